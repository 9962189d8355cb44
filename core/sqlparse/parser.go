package sqlparse

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	lferrors "github.com/driftdb/litefile/core/errors"
)

// Parser implements a recursive descent parser for the supported SQL
// subset.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a new parser for the given SQL input.
func NewParser(input string) *Parser {
	p := &Parser{}
	l := NewLexer(input)
	for {
		tok := l.NextToken()
		p.tokens = append(p.tokens, tok)
		if tok.Type == TK_EOF {
			break
		}
	}
	return p
}

// Parse parses a single statement. Trailing semicolons are allowed.
func Parse(input string) (Statement, error) {
	p := NewParser(input)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.match(TK_SEMI)
	if !p.isAtEnd() {
		return nil, p.errorf("unexpected %q after statement", p.peek().Lexeme)
	}
	return stmt, nil
}

// ParseSelect parses a SELECT statement.
func ParseSelect(input string) (*SelectStmt, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, &lferrors.ParseError{Format: "sql", Message: "expected a SELECT statement"}
	}
	return sel, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.peek().Type {
	case TK_SELECT:
		return p.parseSelect()
	case TK_CREATE:
		return p.parseCreate()
	default:
		return nil, p.errorf("expected SELECT or CREATE, got %q", p.peek().Lexeme)
	}
}

func (p *Parser) parseSelect() (*SelectStmt, error) {
	p.advance() // SELECT

	stmt := &SelectStmt{Limit: -1}

	if err := p.parseResultColumns(stmt); err != nil {
		return nil, err
	}

	if !p.match(TK_FROM) {
		return nil, p.errorf("expected FROM, got %q", p.peek().Lexeme)
	}
	name, err := p.expectName("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = name

	if p.match(TK_WHERE) {
		for {
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			stmt.Where = append(stmt.Where, cond)
			if !p.match(TK_AND) {
				break
			}
		}
	}

	if p.match(TK_LIMIT) {
		tok := p.peek()
		if tok.Type != TK_INTEGER {
			return nil, p.errorf("expected integer after LIMIT, got %q", tok.Lexeme)
		}
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid LIMIT value %q", tok.Lexeme)
		}
		p.advance()
		stmt.Limit = n
	}

	return stmt, nil
}

func (p *Parser) parseResultColumns(stmt *SelectStmt) error {
	if p.match(TK_STAR) {
		stmt.Star = true
		return nil
	}

	// COUNT(*)
	if p.peek().Type == TK_COUNT && p.peekAt(1).Type == TK_LP {
		p.advance()
		p.advance()
		if !p.match(TK_STAR) {
			return p.errorf("expected * in COUNT(*), got %q", p.peek().Lexeme)
		}
		if !p.match(TK_RP) {
			return p.errorf("expected ) after COUNT(*, got %q", p.peek().Lexeme)
		}
		stmt.Count = true
		return nil
	}

	for {
		name, err := p.expectName("column name")
		if err != nil {
			return err
		}
		stmt.Columns = append(stmt.Columns, name)
		if !p.match(TK_COMMA) {
			return nil
		}
	}
}

func (p *Parser) parseCondition() (Condition, error) {
	col, err := p.expectName("column name")
	if err != nil {
		return Condition{}, err
	}
	if !p.match(TK_EQ) {
		return Condition{}, p.errorf("expected = in WHERE clause, got %q", p.peek().Lexeme)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Column: col, Value: lit}, nil
}

func (p *Parser) parseLiteral() (Literal, error) {
	neg := false
	if p.match(TK_MINUS) {
		neg = true
	} else {
		p.match(TK_PLUS)
	}

	tok := p.peek()
	switch tok.Type {
	case TK_INTEGER:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			// Out-of-range integers become floats, like SQLite.
			f, ferr := strconv.ParseFloat(tok.Lexeme, 64)
			if ferr != nil {
				return Literal{}, p.errorf("invalid number %q", tok.Lexeme)
			}
			if neg {
				f = -f
			}
			return Literal{Kind: LiteralFloat, Float: f}, nil
		}
		if neg {
			v = -v
		}
		return Literal{Kind: LiteralInt, Int: v}, nil

	case TK_FLOAT:
		p.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return Literal{}, p.errorf("invalid number %q", tok.Lexeme)
		}
		if neg {
			f = -f
		}
		return Literal{Kind: LiteralFloat, Float: f}, nil

	case TK_STRING:
		if neg {
			return Literal{}, p.errorf("cannot negate a string literal")
		}
		p.advance()
		return Literal{Kind: LiteralString, Str: tok.Lexeme}, nil

	case TK_BLOB:
		if neg {
			return Literal{}, p.errorf("cannot negate a blob literal")
		}
		p.advance()
		b, err := hex.DecodeString(tok.Lexeme)
		if err != nil {
			return Literal{}, p.errorf("invalid blob literal x'%s'", tok.Lexeme)
		}
		return Literal{Kind: LiteralBlob, Blob: b}, nil

	case TK_NULL:
		if neg {
			return Literal{}, p.errorf("cannot negate NULL")
		}
		p.advance()
		return Literal{Kind: LiteralNull}, nil

	default:
		return Literal{}, p.errorf("expected a literal value, got %q", tok.Lexeme)
	}
}

func (p *Parser) parseCreate() (Statement, error) {
	p.advance() // CREATE

	unique := p.match(TK_UNIQUE)

	switch {
	case p.match(TK_TABLE):
		if unique {
			return nil, p.errorf("unexpected UNIQUE before TABLE")
		}
		return p.parseCreateTable()
	case p.match(TK_INDEX):
		return p.parseCreateIndex(unique)
	default:
		return nil, p.errorf("expected TABLE or INDEX after CREATE, got %q", p.peek().Lexeme)
	}
}

func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	stmt := &CreateTableStmt{}

	if p.peek().Type == TK_IF {
		p.advance()
		if !p.match(TK_NOT) || !p.match(TK_EXISTS) {
			return nil, p.errorf("expected NOT EXISTS after IF")
		}
		stmt.IfNotExists = true
	}

	name, err := p.expectName("table name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if !p.match(TK_LP) {
		return nil, p.errorf("expected ( after table name, got %q", p.peek().Lexeme)
	}

	for {
		if err := p.parseTableEntry(stmt); err != nil {
			return nil, err
		}
		if p.match(TK_COMMA) {
			continue
		}
		break
	}

	if !p.match(TK_RP) {
		return nil, p.errorf("expected ) at end of column list, got %q", p.peek().Lexeme)
	}

	if p.peek().Type == TK_WITHOUT {
		p.advance()
		if !p.match(TK_ROWID) {
			return nil, p.errorf("expected ROWID after WITHOUT")
		}
		stmt.WithoutRowid = true
	}

	return stmt, nil
}

// parseTableEntry parses one column definition or table constraint.
func (p *Parser) parseTableEntry(stmt *CreateTableStmt) error {
	switch p.peek().Type {
	case TK_PRIMARY:
		p.advance()
		if !p.match(TK_KEY) {
			return p.errorf("expected KEY after PRIMARY")
		}
		cols, err := p.parseParenNameList()
		if err != nil {
			return err
		}
		stmt.PKColumns = cols
		return nil
	case TK_UNIQUE:
		p.advance()
		_, err := p.parseParenNameList()
		return err
	case TK_CHECK, TK_FOREIGN, TK_CONSTRAINT:
		return p.skipTableConstraint()
	}

	col, err := p.parseColumnDef()
	if err != nil {
		return err
	}
	stmt.Columns = append(stmt.Columns, col)
	return nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectName("column name")
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name}

	// Declared type: identifiers up to a constraint keyword, comma, or
	// close paren, optionally followed by (n) or (n,m).
	var typeParts []string
	for p.peek().Type == TK_ID || p.peek().Type == TK_ROWID || p.peek().Type == TK_KEY {
		typeParts = append(typeParts, p.peek().Lexeme)
		p.advance()
	}
	if len(typeParts) > 0 && p.peek().Type == TK_LP {
		p.advance()
		depth := 1
		for depth > 0 && !p.isAtEnd() {
			switch p.peek().Type {
			case TK_LP:
				depth++
			case TK_RP:
				depth--
			}
			p.advance()
		}
	}
	col.Type = strings.Join(typeParts, " ")

	// Column constraints
	for {
		switch p.peek().Type {
		case TK_PRIMARY:
			p.advance()
			if !p.match(TK_KEY) {
				return ColumnDef{}, p.errorf("expected KEY after PRIMARY")
			}
			p.match(TK_ASC)
			p.match(TK_DESC)
			col.PrimaryKey = true
			if p.match(TK_AUTOINCREMENT) {
				col.Autoincrement = true
			}
		case TK_NOT:
			p.advance()
			if !p.match(TK_NULL) {
				return ColumnDef{}, p.errorf("expected NULL after NOT")
			}
			col.NotNull = true
		case TK_UNIQUE:
			p.advance()
			col.Unique = true
		case TK_DEFAULT:
			p.advance()
			if p.peek().Type == TK_LP {
				// DEFAULT (expr): skip the expression
				if err := p.skipParens(); err != nil {
					return ColumnDef{}, err
				}
				break
			}
			lit, err := p.parseLiteral()
			if err != nil {
				return ColumnDef{}, err
			}
			col.Default = &lit
		case TK_COLLATE:
			p.advance()
			if _, err := p.expectName("collation name"); err != nil {
				return ColumnDef{}, err
			}
		case TK_CHECK:
			p.advance()
			if err := p.skipParens(); err != nil {
				return ColumnDef{}, err
			}
		case TK_REFERENCES:
			p.advance()
			if _, err := p.expectName("table name"); err != nil {
				return ColumnDef{}, err
			}
			if p.peek().Type == TK_LP {
				if err := p.skipParens(); err != nil {
					return ColumnDef{}, err
				}
			}
		default:
			return col, nil
		}
	}
}

// skipTableConstraint consumes a CHECK, FOREIGN KEY, or named
// CONSTRAINT clause without interpreting it.
func (p *Parser) skipTableConstraint() error {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case TK_LP:
			if err := p.skipParens(); err != nil {
				return err
			}
		case TK_COMMA, TK_RP:
			return nil
		default:
			p.advance()
		}
	}
	return p.errorf("unterminated table constraint")
}

// skipParens consumes a balanced parenthesized group.
func (p *Parser) skipParens() error {
	if !p.match(TK_LP) {
		return p.errorf("expected (, got %q", p.peek().Lexeme)
	}
	depth := 1
	for depth > 0 {
		if p.isAtEnd() {
			return p.errorf("unterminated parenthesized expression")
		}
		switch p.peek().Type {
		case TK_LP:
			depth++
		case TK_RP:
			depth--
		}
		p.advance()
	}
	return nil
}

// parseParenNameList parses ( name [ASC|DESC] [, ...] ).
func (p *Parser) parseParenNameList() ([]string, error) {
	if !p.match(TK_LP) {
		return nil, p.errorf("expected (, got %q", p.peek().Lexeme)
	}
	var names []string
	for {
		name, err := p.expectName("column name")
		if err != nil {
			return nil, err
		}
		p.match(TK_ASC)
		p.match(TK_DESC)
		names = append(names, name)
		if p.match(TK_COMMA) {
			continue
		}
		break
	}
	if !p.match(TK_RP) {
		return nil, p.errorf("expected ), got %q", p.peek().Lexeme)
	}
	return names, nil
}

func (p *Parser) parseCreateIndex(unique bool) (*CreateIndexStmt, error) {
	stmt := &CreateIndexStmt{Unique: unique}

	if p.peek().Type == TK_IF {
		p.advance()
		if !p.match(TK_NOT) || !p.match(TK_EXISTS) {
			return nil, p.errorf("expected NOT EXISTS after IF")
		}
		stmt.IfNotExists = true
	}

	name, err := p.expectName("index name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if !p.match(TK_ON) {
		return nil, p.errorf("expected ON, got %q", p.peek().Lexeme)
	}
	table, err := p.expectName("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if !p.match(TK_LP) {
		return nil, p.errorf("expected ( after table name, got %q", p.peek().Lexeme)
	}
	for {
		colName, err := p.expectName("column name")
		if err != nil {
			return nil, err
		}
		ic := IndexedColumn{Name: colName}
		p.match(TK_ASC)
		if p.match(TK_DESC) {
			ic.Desc = true
		}
		if p.peek().Type == TK_COLLATE {
			p.advance()
			if _, err := p.expectName("collation name"); err != nil {
				return nil, err
			}
			p.match(TK_ASC)
			if p.match(TK_DESC) {
				ic.Desc = true
			}
		}
		stmt.Columns = append(stmt.Columns, ic)
		if p.match(TK_COMMA) {
			continue
		}
		break
	}
	if !p.match(TK_RP) {
		return nil, p.errorf("expected ), got %q", p.peek().Lexeme)
	}

	return stmt, nil
}

// expectName consumes an identifier or a keyword used as a name.
// SQLite allows most keywords as identifiers in name position.
func (p *Parser) expectName(what string) (string, error) {
	tok := p.peek()
	switch tok.Type {
	case TK_ID, TK_ROWID, TK_KEY, TK_COUNT, TK_IF, TK_EXISTS, TK_ASC, TK_DESC:
		p.advance()
		return tok.Lexeme, nil
	default:
		return "", p.errorf("expected %s, got %q", what, tok.Lexeme)
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return tok
}

func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TK_EOF
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &lferrors.ParseError{
		Format:  "sql",
		Message: fmt.Sprintf(format, args...),
	}
}
