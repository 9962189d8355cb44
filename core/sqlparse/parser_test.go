package sqlparse

import (
	"testing"
)

func TestParseSelectStar(t *testing.T) {
	stmt, err := ParseSelect("SELECT * FROM apples")
	if err != nil {
		t.Fatalf("ParseSelect() error: %v", err)
	}
	if !stmt.Star || stmt.Count || len(stmt.Columns) != 0 {
		t.Errorf("result columns wrong: %+v", stmt)
	}
	if stmt.Table != "apples" {
		t.Errorf("Table = %q, want %q", stmt.Table, "apples")
	}
	if stmt.Limit != -1 {
		t.Errorf("Limit = %d, want -1", stmt.Limit)
	}
}

func TestParseSelectColumns(t *testing.T) {
	stmt, err := ParseSelect("select name, color from apples")
	if err != nil {
		t.Fatalf("ParseSelect() error: %v", err)
	}
	if len(stmt.Columns) != 2 || stmt.Columns[0] != "name" || stmt.Columns[1] != "color" {
		t.Errorf("Columns = %v, want [name color]", stmt.Columns)
	}
}

func TestParseSelectCount(t *testing.T) {
	for _, sql := range []string{
		"SELECT COUNT(*) FROM apples",
		"select count(*) from apples;",
	} {
		stmt, err := ParseSelect(sql)
		if err != nil {
			t.Fatalf("ParseSelect(%q) error: %v", sql, err)
		}
		if !stmt.Count {
			t.Errorf("ParseSelect(%q): Count = false, want true", sql)
		}
	}
}

func TestParseSelectWhere(t *testing.T) {
	stmt, err := ParseSelect("SELECT name FROM apples WHERE color = 'Light Green' AND size = 3")
	if err != nil {
		t.Fatalf("ParseSelect() error: %v", err)
	}
	if len(stmt.Where) != 2 {
		t.Fatalf("got %d conditions, want 2", len(stmt.Where))
	}
	if stmt.Where[0].Column != "color" || stmt.Where[0].Value.Kind != LiteralString || stmt.Where[0].Value.Str != "Light Green" {
		t.Errorf("condition 0 = %+v", stmt.Where[0])
	}
	if stmt.Where[1].Column != "size" || stmt.Where[1].Value.Kind != LiteralInt || stmt.Where[1].Value.Int != 3 {
		t.Errorf("condition 1 = %+v", stmt.Where[1])
	}
}

func TestParseSelectWhereLiterals(t *testing.T) {
	tests := []struct {
		sql  string
		want Literal
	}{
		{"SELECT a FROM t WHERE c = 'it''s'", Literal{Kind: LiteralString, Str: "it's"}},
		{"SELECT a FROM t WHERE c = -42", Literal{Kind: LiteralInt, Int: -42}},
		{"SELECT a FROM t WHERE c = 2.5", Literal{Kind: LiteralFloat, Float: 2.5}},
		{"SELECT a FROM t WHERE c = NULL", Literal{Kind: LiteralNull}},
		{"SELECT a FROM t WHERE c = x'0a0b'", Literal{Kind: LiteralBlob, Blob: []byte{0x0a, 0x0b}}},
	}

	for _, tt := range tests {
		stmt, err := ParseSelect(tt.sql)
		if err != nil {
			t.Fatalf("ParseSelect(%q) error: %v", tt.sql, err)
		}
		got := stmt.Where[0].Value
		if got.Kind != tt.want.Kind {
			t.Errorf("%q: kind = %v, want %v", tt.sql, got.Kind, tt.want.Kind)
			continue
		}
		switch tt.want.Kind {
		case LiteralString:
			if got.Str != tt.want.Str {
				t.Errorf("%q: Str = %q, want %q", tt.sql, got.Str, tt.want.Str)
			}
		case LiteralInt:
			if got.Int != tt.want.Int {
				t.Errorf("%q: Int = %d, want %d", tt.sql, got.Int, tt.want.Int)
			}
		case LiteralFloat:
			if got.Float != tt.want.Float {
				t.Errorf("%q: Float = %g, want %g", tt.sql, got.Float, tt.want.Float)
			}
		case LiteralBlob:
			if string(got.Blob) != string(tt.want.Blob) {
				t.Errorf("%q: Blob = %x, want %x", tt.sql, got.Blob, tt.want.Blob)
			}
		}
	}
}

func TestParseSelectLimit(t *testing.T) {
	stmt, err := ParseSelect("SELECT * FROM apples LIMIT 10")
	if err != nil {
		t.Fatalf("ParseSelect() error: %v", err)
	}
	if stmt.Limit != 10 {
		t.Errorf("Limit = %d, want 10", stmt.Limit)
	}
}

func TestParseSelectQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		sql   string
		table string
		col   string
	}{
		{`SELECT "full name" FROM "my table"`, "my table", "full name"},
		{"SELECT `full name` FROM `my table`", "my table", "full name"},
		{`SELECT [full name] FROM [my table]`, "my table", "full name"},
		{`SELECT "she said ""hi""" FROM t`, "t", `she said "hi"`},
	}

	for _, tt := range tests {
		stmt, err := ParseSelect(tt.sql)
		if err != nil {
			t.Fatalf("ParseSelect(%q) error: %v", tt.sql, err)
		}
		if stmt.Table != tt.table {
			t.Errorf("%q: Table = %q, want %q", tt.sql, stmt.Table, tt.table)
		}
		if stmt.Columns[0] != tt.col {
			t.Errorf("%q: Columns[0] = %q, want %q", tt.sql, stmt.Columns[0], tt.col)
		}
	}
}

func TestParseSelectErrors(t *testing.T) {
	tests := []string{
		"",
		"SELECT",
		"SELECT * apples",
		"SELECT * FROM",
		"SELECT * FROM apples WHERE",
		"SELECT * FROM apples WHERE color",
		"SELECT * FROM apples WHERE color = ",
		"SELECT * FROM apples LIMIT x",
		"SELECT * FROM apples extra",
		"DELETE FROM apples",
	}

	for _, sql := range tests {
		if _, err := ParseSelect(sql); err == nil {
			t.Errorf("ParseSelect(%q) should fail", sql)
		}
	}
}

func TestParseCreateTable(t *testing.T) {
	sql := `CREATE TABLE apples
(
	id integer primary key autoincrement,
	name text not null,
	color text,
	weight real default 1.5
)`
	stmt, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("got %T, want *CreateTableStmt", stmt)
	}
	if ct.Name != "apples" {
		t.Errorf("Name = %q, want %q", ct.Name, "apples")
	}
	if len(ct.Columns) != 4 {
		t.Fatalf("got %d columns, want 4", len(ct.Columns))
	}

	id := ct.Columns[0]
	if id.Name != "id" || id.Type != "integer" || !id.PrimaryKey || !id.Autoincrement {
		t.Errorf("id column = %+v", id)
	}
	name := ct.Columns[1]
	if name.Name != "name" || !name.NotNull {
		t.Errorf("name column = %+v", name)
	}
	weight := ct.Columns[3]
	if weight.Default == nil || weight.Default.Kind != LiteralFloat || weight.Default.Float != 1.5 {
		t.Errorf("weight column = %+v", weight)
	}
	if ct.WithoutRowid {
		t.Error("WithoutRowid = true, want false")
	}
}

func TestParseCreateTableVariants(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want func(*testing.T, *CreateTableStmt)
	}{
		{
			"if not exists",
			"CREATE TABLE IF NOT EXISTS t (a)",
			func(t *testing.T, ct *CreateTableStmt) {
				if !ct.IfNotExists {
					t.Error("IfNotExists = false")
				}
			},
		},
		{
			"without rowid",
			"CREATE TABLE t (a TEXT PRIMARY KEY) WITHOUT ROWID",
			func(t *testing.T, ct *CreateTableStmt) {
				if !ct.WithoutRowid {
					t.Error("WithoutRowid = false")
				}
			},
		},
		{
			"table-level primary key",
			"CREATE TABLE t (a, b, PRIMARY KEY (a, b))",
			func(t *testing.T, ct *CreateTableStmt) {
				if len(ct.PKColumns) != 2 || ct.PKColumns[0] != "a" || ct.PKColumns[1] != "b" {
					t.Errorf("PKColumns = %v", ct.PKColumns)
				}
			},
		},
		{
			"sized type",
			"CREATE TABLE t (a VARCHAR(30), b DECIMAL(10,2))",
			func(t *testing.T, ct *CreateTableStmt) {
				if ct.Columns[0].Type != "VARCHAR" {
					t.Errorf("type = %q, want VARCHAR", ct.Columns[0].Type)
				}
			},
		},
		{
			"foreign key constraint skipped",
			"CREATE TABLE t (a, b, FOREIGN KEY (b) REFERENCES other(id))",
			func(t *testing.T, ct *CreateTableStmt) {
				if len(ct.Columns) != 2 {
					t.Errorf("got %d columns, want 2", len(ct.Columns))
				}
			},
		},
		{
			"quoted table and column names",
			`CREATE TABLE "order" ("group" text)`,
			func(t *testing.T, ct *CreateTableStmt) {
				if ct.Name != "order" || ct.Columns[0].Name != "group" {
					t.Errorf("names = %q, %q", ct.Name, ct.Columns[0].Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.sql)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.sql, err)
			}
			ct, ok := stmt.(*CreateTableStmt)
			if !ok {
				t.Fatalf("got %T, want *CreateTableStmt", stmt)
			}
			tt.want(t, ct)
		})
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX idx_companies_country ON companies (country)")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	ci, ok := stmt.(*CreateIndexStmt)
	if !ok {
		t.Fatalf("got %T, want *CreateIndexStmt", stmt)
	}
	if ci.Name != "idx_companies_country" || ci.Table != "companies" {
		t.Errorf("index = %+v", ci)
	}
	if len(ci.Columns) != 1 || ci.Columns[0].Name != "country" || ci.Columns[0].Desc {
		t.Errorf("Columns = %+v", ci.Columns)
	}
	if ci.Unique {
		t.Error("Unique = true, want false")
	}
}

func TestParseCreateUniqueIndex(t *testing.T) {
	stmt, err := Parse("CREATE UNIQUE INDEX idx ON t (a DESC, b)")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	ci := stmt.(*CreateIndexStmt)
	if !ci.Unique {
		t.Error("Unique = false, want true")
	}
	if !ci.Columns[0].Desc || ci.Columns[1].Desc {
		t.Errorf("Columns = %+v", ci.Columns)
	}
}

func TestParseComments(t *testing.T) {
	sql := `SELECT name -- the fruit name
FROM /* block
comment */ apples`
	stmt, err := ParseSelect(sql)
	if err != nil {
		t.Fatalf("ParseSelect() error: %v", err)
	}
	if stmt.Table != "apples" {
		t.Errorf("Table = %q, want apples", stmt.Table)
	}
}

func TestLexerTokens(t *testing.T) {
	l := NewLexer("SELECT id, name FROM t WHERE a = 'x';")
	want := []TokenType{
		TK_SELECT, TK_ID, TK_COMMA, TK_ID, TK_FROM, TK_ID,
		TK_WHERE, TK_ID, TK_EQ, TK_STRING, TK_SEMI, TK_EOF,
	}
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d = %v (%q), want %v", i, tok.Type, tok.Lexeme, wt)
		}
	}
}
