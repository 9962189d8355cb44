// Package sqlparse implements SQL tokenization and parsing for the
// subset of SQL that litefile evaluates: SELECT queries and the CREATE
// TABLE / CREATE INDEX statements stored in the schema table.
package sqlparse

import "strings"

// TokenType represents the type of a SQL token.
type TokenType int

// Token type constants - based on SQLite's token definitions
const (
	// Special tokens
	TK_EOF TokenType = iota
	TK_ILLEGAL

	// Literals
	TK_INTEGER
	TK_FLOAT
	TK_STRING
	TK_BLOB
	TK_ID

	// Keywords
	TK_SELECT
	TK_FROM
	TK_WHERE
	TK_AND
	TK_LIMIT
	TK_CREATE
	TK_TABLE
	TK_INDEX
	TK_UNIQUE
	TK_ON
	TK_PRIMARY
	TK_KEY
	TK_NOT
	TK_NULL
	TK_DEFAULT
	TK_AUTOINCREMENT
	TK_WITHOUT
	TK_ROWID
	TK_IF
	TK_EXISTS
	TK_ASC
	TK_DESC
	TK_COLLATE
	TK_CHECK
	TK_REFERENCES
	TK_CONSTRAINT
	TK_FOREIGN
	TK_COUNT

	// Punctuation and operators
	TK_SEMI
	TK_LP
	TK_RP
	TK_COMMA
	TK_DOT
	TK_STAR
	TK_EQ
	TK_MINUS
	TK_PLUS
)

// Token is a single lexical token.
type Token struct {
	Type   TokenType
	Lexeme string
	Pos    int
}

// keywords maps upper-cased keywords to their token types.
var keywords = map[string]TokenType{
	"SELECT":        TK_SELECT,
	"FROM":          TK_FROM,
	"WHERE":         TK_WHERE,
	"AND":           TK_AND,
	"LIMIT":         TK_LIMIT,
	"CREATE":        TK_CREATE,
	"TABLE":         TK_TABLE,
	"INDEX":         TK_INDEX,
	"UNIQUE":        TK_UNIQUE,
	"ON":            TK_ON,
	"PRIMARY":       TK_PRIMARY,
	"KEY":           TK_KEY,
	"NOT":           TK_NOT,
	"NULL":          TK_NULL,
	"DEFAULT":       TK_DEFAULT,
	"AUTOINCREMENT": TK_AUTOINCREMENT,
	"WITHOUT":       TK_WITHOUT,
	"ROWID":         TK_ROWID,
	"IF":            TK_IF,
	"EXISTS":        TK_EXISTS,
	"ASC":           TK_ASC,
	"DESC":          TK_DESC,
	"COLLATE":       TK_COLLATE,
	"CHECK":         TK_CHECK,
	"REFERENCES":    TK_REFERENCES,
	"CONSTRAINT":    TK_CONSTRAINT,
	"FOREIGN":       TK_FOREIGN,
	"COUNT":         TK_COUNT,
}

// lookupIdent returns the keyword token type for an identifier, or
// TK_ID if it is not a keyword. SQL keywords are case-insensitive.
func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[strings.ToUpper(ident)]; ok {
		return tt
	}
	return TK_ID
}
