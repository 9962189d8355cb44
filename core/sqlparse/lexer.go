package sqlparse

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // current reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given SQL input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing position.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case 0:
		tok.Type = TK_EOF
	case ';':
		tok.Type = TK_SEMI
		tok.Lexeme = ";"
		l.readChar()
	case '(':
		tok.Type = TK_LP
		tok.Lexeme = "("
		l.readChar()
	case ')':
		tok.Type = TK_RP
		tok.Lexeme = ")"
		l.readChar()
	case ',':
		tok.Type = TK_COMMA
		tok.Lexeme = ","
		l.readChar()
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		tok.Type = TK_DOT
		tok.Lexeme = "."
		l.readChar()
	case '*':
		tok.Type = TK_STAR
		tok.Lexeme = "*"
		l.readChar()
	case '=':
		tok.Type = TK_EQ
		tok.Lexeme = "="
		l.readChar()
		if l.ch == '=' { // == is also equality in SQLite
			tok.Lexeme = "=="
			l.readChar()
		}
	case '-':
		tok.Type = TK_MINUS
		tok.Lexeme = "-"
		l.readChar()
	case '+':
		tok.Type = TK_PLUS
		tok.Lexeme = "+"
		l.readChar()
	case '\'':
		return l.readString()
	case '"':
		return l.readQuotedIdent('"')
	case '`':
		return l.readQuotedIdent('`')
	case '[':
		return l.readBracketIdent()
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if isIdentStart(l.ch) {
			return l.readIdentifier()
		}
		tok.Type = TK_ILLEGAL
		tok.Lexeme = string(l.ch)
		l.readChar()
	}

	return tok
}

// skipWhitespaceAndComments consumes whitespace, -- line comments, and
// /* block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

// readIdentifier reads an unquoted identifier or keyword.
func (l *Lexer) readIdentifier() Token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	lexeme := l.input[start:l.pos]

	// x'ab' blob literal
	if (lexeme == "x" || lexeme == "X") && l.ch == '\'' {
		return l.readBlobLiteral(start)
	}

	return Token{Type: lookupIdent(lexeme), Lexeme: lexeme, Pos: start}
}

// readQuotedIdent reads a "double-quoted" or `backtick-quoted`
// identifier. A doubled quote character is an escaped quote.
func (l *Lexer) readQuotedIdent(quote byte) Token {
	start := l.pos
	l.readChar() // opening quote

	var sb []byte
	for {
		if l.ch == 0 {
			return Token{Type: TK_ILLEGAL, Lexeme: l.input[start:l.pos], Pos: start}
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				sb = append(sb, quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing quote
			break
		}
		sb = append(sb, l.ch)
		l.readChar()
	}

	return Token{Type: TK_ID, Lexeme: string(sb), Pos: start}
}

// readBracketIdent reads a [bracket-quoted] identifier.
func (l *Lexer) readBracketIdent() Token {
	start := l.pos
	l.readChar() // [
	identStart := l.pos
	for l.ch != ']' && l.ch != 0 {
		l.readChar()
	}
	if l.ch == 0 {
		return Token{Type: TK_ILLEGAL, Lexeme: l.input[start:l.pos], Pos: start}
	}
	lexeme := l.input[identStart:l.pos]
	l.readChar() // ]
	return Token{Type: TK_ID, Lexeme: lexeme, Pos: start}
}

// readString reads a 'single-quoted' string literal. A doubled quote
// is an escaped quote.
func (l *Lexer) readString() Token {
	start := l.pos
	l.readChar() // opening quote

	var sb []byte
	for {
		if l.ch == 0 {
			return Token{Type: TK_ILLEGAL, Lexeme: l.input[start:l.pos], Pos: start}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				sb = append(sb, '\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing quote
			break
		}
		sb = append(sb, l.ch)
		l.readChar()
	}

	return Token{Type: TK_STRING, Lexeme: string(sb), Pos: start}
}

// readBlobLiteral reads the hex body of an x'...' blob literal; start
// points at the x.
func (l *Lexer) readBlobLiteral(start int) Token {
	l.readChar() // opening quote
	hexStart := l.pos
	for isHexDigit(l.ch) {
		l.readChar()
	}
	if l.ch != '\'' {
		return Token{Type: TK_ILLEGAL, Lexeme: l.input[start:l.pos], Pos: start}
	}
	lexeme := l.input[hexStart:l.pos]
	l.readChar() // closing quote
	return Token{Type: TK_BLOB, Lexeme: lexeme, Pos: start}
}

// readNumber reads an integer or floating-point literal.
func (l *Lexer) readNumber() Token {
	start := l.pos
	isFloat := false

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' {
		isFloat = true
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	tt := TK_INTEGER
	if isFloat {
		tt = TK_FLOAT
	}
	return Token{Type: tt, Lexeme: l.input[start:l.pos], Pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}
