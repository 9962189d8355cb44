package sqlparse

import "fmt"

// Statement is a parsed SQL statement.
type Statement interface {
	stmt()
}

// LiteralKind identifies the type of a literal value.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralInt
	LiteralFloat
	LiteralString
	LiteralBlob
)

// Literal is a literal value appearing in a statement.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Blob  []byte
}

// String renders the literal roughly as it appeared in the SQL.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralNull:
		return "NULL"
	case LiteralInt:
		return fmt.Sprintf("%d", l.Int)
	case LiteralFloat:
		return fmt.Sprintf("%g", l.Float)
	case LiteralString:
		return fmt.Sprintf("'%s'", l.Str)
	default:
		return fmt.Sprintf("x'%x'", l.Blob)
	}
}

// SelectStmt is a SELECT query.
//
// The supported shape is:
//
//	SELECT col, ... | * | COUNT(*) FROM table [WHERE col = lit [AND ...]] [LIMIT n]
type SelectStmt struct {
	Columns []string // result column names; empty when Star or Count
	Star    bool     // SELECT *
	Count   bool     // SELECT COUNT(*)
	Table   string
	Where   []Condition
	Limit   int64 // -1 when absent
}

func (*SelectStmt) stmt() {}

// Condition is a single `column = literal` predicate. Conditions in a
// WHERE clause are conjoined with AND.
type Condition struct {
	Column string
	Value  Literal
}

// ColumnDef is one column definition in a CREATE TABLE statement.
type ColumnDef struct {
	Name          string
	Type          string // declared type, upper-cased tokens joined by spaces ("" if none)
	PrimaryKey    bool
	Autoincrement bool
	NotNull       bool
	Unique        bool
	Default       *Literal
}

// CreateTableStmt is a CREATE TABLE statement.
type CreateTableStmt struct {
	Name         string
	Columns      []ColumnDef
	PKColumns    []string // table-level PRIMARY KEY (...) columns
	WithoutRowid bool
	IfNotExists  bool
}

func (*CreateTableStmt) stmt() {}

// IndexedColumn is one column in a CREATE INDEX column list.
type IndexedColumn struct {
	Name string
	Desc bool
}

// CreateIndexStmt is a CREATE INDEX statement.
type CreateIndexStmt struct {
	Name        string
	Table       string
	Columns     []IndexedColumn
	Unique      bool
	IfNotExists bool
}

func (*CreateIndexStmt) stmt() {}
