package litefile

import (
	"fmt"
	"strings"

	"github.com/driftdb/litefile/core/btree"
	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/core/record"
	"github.com/driftdb/litefile/core/schema"
	"github.com/driftdb/litefile/core/sqlparse"
	"github.com/driftdb/litefile/internal/logging"
)

// Result is the outcome of a query.
type Result struct {
	Columns []string
	Rows    [][]record.Value
}

// Query parses and evaluates a SELECT statement against the database.
func (db *DB) Query(sql string) (*Result, error) {
	stmt, err := sqlparse.ParseSelect(sql)
	if err != nil {
		return nil, err
	}

	table, err := db.catalog.Table(stmt.Table)
	if err != nil {
		return nil, err
	}
	if table.WithoutRowid {
		return nil, fmt.Errorf("%w: WITHOUT ROWID table %q", lferrors.ErrUnsupported, table.Name)
	}

	// Resolve result columns to positions up front.
	proj, columns, err := resolveColumns(table, stmt)
	if err != nil {
		return nil, err
	}

	conds, err := resolveConditions(table, stmt.Where)
	if err != nil {
		return nil, err
	}

	exec := &execution{
		db:    db,
		table: table,
		stmt:  stmt,
		proj:  proj,
		conds: conds,
	}

	// A single equality on an indexed column uses the index; everything
	// else walks the whole table.
	if idx := db.pickIndex(table, conds); idx != nil {
		logging.QueryPlan(table.Name, idx.Name)
		rows, err := exec.runIndexScan(idx)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: columns, Rows: rows}, nil
	}

	logging.QueryPlan(table.Name, "")
	rows, err := exec.runFullScan()
	if err != nil {
		return nil, err
	}
	return &Result{Columns: columns, Rows: rows}, nil
}

// resolveColumns maps the statement's result columns to column
// positions. COUNT(*) yields no projection.
func resolveColumns(table *schema.Table, stmt *sqlparse.SelectStmt) ([]int, []string, error) {
	if stmt.Count {
		return nil, []string{"count(*)"}, nil
	}

	if stmt.Star {
		proj := make([]int, len(table.Columns))
		names := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			proj[i] = i
			names[i] = c.Name
		}
		return proj, names, nil
	}

	proj := make([]int, len(stmt.Columns))
	names := make([]string, len(stmt.Columns))
	for i, name := range stmt.Columns {
		ci := table.ColumnIndex(name)
		if ci < 0 {
			return nil, nil, &lferrors.NotFoundError{Resource: "column", ID: fmt.Sprintf("%s.%s", table.Name, name)}
		}
		proj[i] = ci
		names[i] = table.Columns[ci].Name
	}
	return proj, names, nil
}

// condition is a resolved WHERE predicate.
type condition struct {
	column int
	value  record.Value
}

func resolveConditions(table *schema.Table, where []sqlparse.Condition) ([]condition, error) {
	conds := make([]condition, len(where))
	for i, w := range where {
		ci := table.ColumnIndex(w.Column)
		if ci < 0 {
			return nil, &lferrors.NotFoundError{Resource: "column", ID: fmt.Sprintf("%s.%s", table.Name, w.Column)}
		}
		conds[i] = condition{column: ci, value: literalValue(w.Value)}
	}
	return conds, nil
}

// literalValue converts a parsed literal to a record value.
func literalValue(lit sqlparse.Literal) record.Value {
	switch lit.Kind {
	case sqlparse.LiteralInt:
		return record.Int(lit.Int)
	case sqlparse.LiteralFloat:
		return record.Float(lit.Float)
	case sqlparse.LiteralString:
		return record.Text(lit.Str)
	case sqlparse.LiteralBlob:
		return record.Blob(lit.Blob)
	default:
		return record.Null()
	}
}

// pickIndex returns an index usable for the WHERE clause: the first
// index whose leading column is the subject of an equality condition.
// NULL comparisons never match, so they disqualify the shortcut.
func (db *DB) pickIndex(table *schema.Table, conds []condition) *schema.Index {
	if len(conds) != 1 || conds[0].value.IsNull() {
		return nil
	}
	// The rowid alias is handled by a rowid seek in the scan itself,
	// not by a secondary index.
	if conds[0].column == table.RowidAlias {
		return nil
	}

	want := table.Columns[conds[0].column].Name
	for _, idx := range db.catalog.IndexesOn(table.Name) {
		if idx.RootPage == 0 || len(idx.Columns) == 0 {
			continue
		}
		if strings.EqualFold(idx.Columns[0].Name, want) && !idx.Columns[0].Desc {
			return idx
		}
	}
	return nil
}

// execution carries the resolved pieces of one query.
type execution struct {
	db    *DB
	table *schema.Table
	stmt  *sqlparse.SelectStmt
	proj  []int
	conds []condition
}

// runFullScan walks the table b-tree in rowid order. An equality on
// the rowid alias column becomes a point lookup.
func (e *execution) runFullScan() ([][]record.Value, error) {
	cur := btree.NewCursor(e.db.bt, e.table.RootPage)

	if rowid, ok := e.rowidEquality(); ok {
		found, err := cur.SeekRowid(rowid)
		if err != nil {
			return nil, err
		}
		if !found {
			return e.emptyResult(), nil
		}
		return e.collectCurrent(cur, nil)
	}

	return e.collect(cur)
}

// rowidEquality reports whether the WHERE clause is a single integer
// equality on the rowid alias column.
func (e *execution) rowidEquality() (int64, bool) {
	if len(e.conds) != 1 || e.table.RowidAlias < 0 {
		return 0, false
	}
	c := e.conds[0]
	if c.column != e.table.RowidAlias || c.value.Kind() != record.KindInt {
		return 0, false
	}
	return c.value.Int(), true
}

// collect iterates the cursor from the first entry, filtering and
// projecting rows until the limit is reached.
func (e *execution) collect(cur *btree.Cursor) ([][]record.Value, error) {
	var rows [][]record.Value
	count := int64(0)

	var err error
	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
		row, match, rerr := e.evalCurrent(cur)
		if rerr != nil {
			return nil, rerr
		}
		if !match {
			continue
		}
		if e.stmt.Count {
			count++
			continue
		}
		rows = append(rows, row)
		if e.stmt.Limit >= 0 && int64(len(rows)) >= e.stmt.Limit {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("scan table %q: %w", e.table.Name, err)
	}

	if e.stmt.Count {
		return [][]record.Value{{record.Int(count)}}, nil
	}
	return rows, nil
}

// collectCurrent evaluates only the row under the cursor (after a
// point lookup) plus any pre-resolved extra rows.
func (e *execution) collectCurrent(cur *btree.Cursor, rows [][]record.Value) ([][]record.Value, error) {
	row, match, err := e.evalCurrent(cur)
	if err != nil {
		return nil, err
	}
	if match {
		if e.stmt.Count {
			return [][]record.Value{{record.Int(1)}}, nil
		}
		if e.stmt.Limit != 0 {
			rows = append(rows, row)
		}
	} else if e.stmt.Count {
		return [][]record.Value{{record.Int(0)}}, nil
	}
	return rows, nil
}

func (e *execution) emptyResult() [][]record.Value {
	if e.stmt.Count {
		return [][]record.Value{{record.Int(0)}}
	}
	return nil
}

// evalCurrent decodes the row under the cursor, applies the WHERE
// conditions, and projects the result columns.
func (e *execution) evalCurrent(cur *btree.Cursor) ([]record.Value, bool, error) {
	payload, err := cur.Payload()
	if err != nil {
		return nil, false, err
	}
	values, err := record.Decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("rowid %d: %w", cur.Rowid(), err)
	}

	// The rowid alias column is stored as NULL; the real value is the
	// b-tree key.
	if a := e.table.RowidAlias; a >= 0 && a < len(values) && values[a].IsNull() {
		values[a] = record.Int(cur.Rowid())
	}

	for _, c := range e.conds {
		if c.column >= len(values) {
			// Short row from an older schema version: missing columns
			// read as NULL, and NULL never matches an equality.
			return nil, false, nil
		}
		v := values[c.column]
		if v.IsNull() || !v.Equal(c.value) {
			return nil, false, nil
		}
	}

	if e.stmt.Count {
		return nil, true, nil
	}

	row := make([]record.Value, len(e.proj))
	for i, ci := range e.proj {
		if ci < len(values) {
			row[i] = values[ci]
		} else {
			row[i] = record.Null()
		}
	}
	return row, true, nil
}

// runIndexScan seeks the index for the equality value, gathers the
// matching rowids, and fetches each row from the table b-tree.
func (e *execution) runIndexScan(idx *schema.Index) ([][]record.Value, error) {
	target := e.conds[0].value

	icur := btree.NewCursor(e.db.bt, idx.RootPage)
	err := icur.SeekIndexGE(func(payload []byte) (int, error) {
		values, err := record.Decode(payload)
		if err != nil {
			return 0, err
		}
		if len(values) == 0 {
			return 0, fmt.Errorf("empty index entry in %q", idx.Name)
		}
		return values[0].Compare(target), nil
	})
	if err != nil {
		return nil, fmt.Errorf("seek index %q: %w", idx.Name, err)
	}

	// Walk forward while the leading column still equals the target.
	// Index entries are (columns..., rowid).
	var rowids []int64
	for ; err == nil && icur.Valid(); err = icur.Next() {
		payload, perr := icur.Payload()
		if perr != nil {
			return nil, perr
		}
		values, derr := record.Decode(payload)
		if derr != nil {
			return nil, fmt.Errorf("index %q: %w", idx.Name, derr)
		}
		if len(values) < 2 {
			return nil, fmt.Errorf("index %q entry has %d columns", idx.Name, len(values))
		}
		if values[0].Compare(target) != 0 {
			break
		}
		rowids = append(rowids, values[len(values)-1].Int())
	}
	if err != nil {
		return nil, fmt.Errorf("scan index %q: %w", idx.Name, err)
	}

	tcur := btree.NewCursor(e.db.bt, e.table.RootPage)
	var rows [][]record.Value
	count := int64(0)
	for _, rowid := range rowids {
		found, err := tcur.SeekRowid(rowid)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &lferrors.CorruptError{
				Page:   idx.RootPage,
				Detail: fmt.Sprintf("index %q references missing rowid %d", idx.Name, rowid),
			}
		}
		row, match, err := e.evalCurrent(tcur)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		if e.stmt.Count {
			count++
			continue
		}
		rows = append(rows, row)
		if e.stmt.Limit >= 0 && int64(len(rows)) >= e.stmt.Limit {
			break
		}
	}

	if e.stmt.Count {
		return [][]record.Value{{record.Int(count)}}, nil
	}
	return rows, nil
}
