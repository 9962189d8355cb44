// Package schema reads the database catalog: the sqlite_schema table
// that records every table, index, view, and trigger in the file.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/driftdb/litefile/core/btree"
	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/core/record"
	"github.com/driftdb/litefile/core/sqlparse"
)

// Object type names as stored in the schema table.
const (
	TypeTable   = "table"
	TypeIndex   = "index"
	TypeView    = "view"
	TypeTrigger = "trigger"
)

// schemaRootPage is the root of the schema table b-tree, always page 1.
const schemaRootPage = 1

// Object is one row of the schema table.
type Object struct {
	Type      string // "table", "index", "view", or "trigger"
	Name      string
	TableName string // the table this object is attached to
	RootPage  uint32 // 0 for views and triggers
	SQL       string // original DDL; empty for auto-created indexes
}

// Internal reports whether the object belongs to SQLite itself
// (sqlite_schema rows named sqlite_*).
func (o *Object) Internal() bool {
	return strings.HasPrefix(o.Name, "sqlite_")
}

// Column describes one column of a table.
type Column struct {
	Name          string
	Type          string
	PrimaryKey    bool
	NotNull       bool
	Autoincrement bool
}

// Table is a table object with its parsed column metadata.
type Table struct {
	Object
	Columns      []Column
	WithoutRowid bool

	// RowidAlias is the index of the INTEGER PRIMARY KEY column that
	// aliases the rowid, or -1 when the table has none.
	RowidAlias int
}

// ColumnIndex returns the position of a column by name,
// case-insensitively, or -1 when the table has no such column.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Index is an index object with its parsed column list.
type Index struct {
	Object
	Columns []sqlparse.IndexedColumn
	Unique  bool
}

// Catalog is the parsed contents of the schema table.
type Catalog struct {
	objects []*Object
	tables  map[string]*Table
	indexes map[string]*Index
}

// Load reads and parses the schema table of the given database.
func Load(bt *btree.Btree) (*Catalog, error) {
	cat := &Catalog{
		tables:  make(map[string]*Table),
		indexes: make(map[string]*Index),
	}

	cur := btree.NewCursor(bt, schemaRootPage)
	var err error
	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
		payload, perr := cur.Payload()
		if perr != nil {
			return nil, fmt.Errorf("read schema row: %w", perr)
		}
		obj, oerr := decodeSchemaRow(payload)
		if oerr != nil {
			return nil, fmt.Errorf("schema row %d: %w", cur.Rowid(), oerr)
		}
		if err := cat.add(obj); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("walk schema table: %w", err)
	}

	return cat, nil
}

// decodeSchemaRow decodes one schema record into an Object. The schema
// table columns are: type, name, tbl_name, rootpage, sql.
func decodeSchemaRow(payload []byte) (*Object, error) {
	values, err := record.Decode(payload)
	if err != nil {
		return nil, err
	}
	if len(values) < 5 {
		return nil, &lferrors.CorruptError{Page: schemaRootPage, Detail: fmt.Sprintf("schema row has %d columns, want 5", len(values))}
	}

	obj := &Object{
		Type:      values[0].Text(),
		Name:      values[1].Text(),
		TableName: values[2].Text(),
	}
	if values[3].Kind() == record.KindInt {
		obj.RootPage = uint32(values[3].Int())
	}
	if values[4].Kind() == record.KindText {
		obj.SQL = values[4].Text()
	}

	return obj, nil
}

// add records an object in the catalog, parsing table and index DDL.
func (c *Catalog) add(obj *Object) error {
	c.objects = append(c.objects, obj)
	key := strings.ToLower(obj.Name)

	switch obj.Type {
	case TypeTable:
		t := &Table{Object: *obj, RowidAlias: -1}
		if obj.SQL != "" && !obj.Internal() {
			if err := parseTableDDL(t, obj.SQL); err != nil {
				return fmt.Errorf("table %q: %w", obj.Name, err)
			}
		}
		c.tables[key] = t

	case TypeIndex:
		idx := &Index{Object: *obj}
		if obj.SQL != "" {
			stmt, err := sqlparse.Parse(obj.SQL)
			if err != nil {
				return fmt.Errorf("index %q: %w", obj.Name, err)
			}
			ci, ok := stmt.(*sqlparse.CreateIndexStmt)
			if !ok {
				return fmt.Errorf("index %q: DDL is not CREATE INDEX", obj.Name)
			}
			idx.Columns = ci.Columns
			idx.Unique = ci.Unique
		}
		c.indexes[key] = idx
	}

	return nil
}

// parseTableDDL fills in column metadata from a CREATE TABLE statement.
func parseTableDDL(t *Table, sql string) error {
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		return err
	}
	ct, ok := stmt.(*sqlparse.CreateTableStmt)
	if !ok {
		return fmt.Errorf("DDL is not CREATE TABLE")
	}

	t.WithoutRowid = ct.WithoutRowid
	t.Columns = make([]Column, len(ct.Columns))
	for i, cd := range ct.Columns {
		t.Columns[i] = Column{
			Name:          cd.Name,
			Type:          cd.Type,
			PrimaryKey:    cd.PrimaryKey,
			NotNull:       cd.NotNull,
			Autoincrement: cd.Autoincrement,
		}
	}

	// Table-level PRIMARY KEY (...) marks its columns.
	for _, pk := range ct.PKColumns {
		if i := t.ColumnIndex(pk); i >= 0 {
			t.Columns[i].PrimaryKey = true
		}
	}

	// An INTEGER PRIMARY KEY column aliases the rowid in rowid tables.
	if !t.WithoutRowid {
		pkCount := 0
		pkIdx := -1
		for i, c := range t.Columns {
			if c.PrimaryKey {
				pkCount++
				pkIdx = i
			}
		}
		if pkCount == 1 && strings.EqualFold(t.Columns[pkIdx].Type, "integer") {
			t.RowidAlias = pkIdx
		}
	}

	return nil
}

// Objects returns every schema row in rowid order.
func (c *Catalog) Objects() []*Object {
	return c.objects
}

// Table looks up a table by name, case-insensitively.
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, &lferrors.NotFoundError{Resource: "table", ID: name}
	}
	return t, nil
}

// Index looks up an index by name, case-insensitively.
func (c *Catalog) Index(name string) (*Index, error) {
	idx, ok := c.indexes[strings.ToLower(name)]
	if !ok {
		return nil, &lferrors.NotFoundError{Resource: "index", ID: name}
	}
	return idx, nil
}

// TableNames returns the names of user tables, sorted.
// Internal sqlite_* tables are excluded.
func (c *Catalog) TableNames() []string {
	var names []string
	for _, obj := range c.objects {
		if obj.Type == TypeTable && !obj.Internal() {
			names = append(names, obj.Name)
		}
	}
	sort.Strings(names)
	return names
}

// IndexesOn returns the indexes attached to a table, in schema order.
func (c *Catalog) IndexesOn(table string) []*Index {
	var out []*Index
	for _, obj := range c.objects {
		if obj.Type != TypeIndex || !strings.EqualFold(obj.TableName, table) {
			continue
		}
		if idx, ok := c.indexes[strings.ToLower(obj.Name)]; ok {
			out = append(out, idx)
		}
	}
	return out
}

// Count returns the number of schema objects of the given type,
// excluding internal ones.
func (c *Catalog) Count(objType string) int {
	n := 0
	for _, obj := range c.objects {
		if obj.Type == objType && !obj.Internal() {
			n++
		}
	}
	return n
}
