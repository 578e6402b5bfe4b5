package parser

import (
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/token"
)

// Lexer tokenizes map query input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	var tok token.Token
	tok.Pos = pos

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
	case '[':
		tok = l.newToken(token.LBRACKET, "[")
	case ']':
		tok = l.newToken(token.RBRACKET, "]")
	case '(':
		tok = l.newToken(token.LPAREN, "(")
	case ')':
		tok = l.newToken(token.RPAREN, ")")
	case ';':
		tok = l.newToken(token.SEMICOLON, ";")
	case ':':
		tok = l.newToken(token.COLON, ":")
	case ',':
		tok = l.newToken(token.COMMA, ",")
	case '.':
		tok = l.newToken(token.DOT, ".")
	case '=':
		tok = l.newToken(token.EQ, "=")
	case '~':
		tok = l.newToken(token.MATCH, "~")
	case '!':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.NEQ, Literal: "!=", Pos: pos}
		case '~':
			l.readChar()
			tok = token.Token{Type: token.NOTMATCH, Literal: "!~", Pos: pos}
		default:
			tok = l.newToken(token.BANG, "!")
		}
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			tok = token.Token{Type: token.LTLT, Literal: "<<", Pos: pos}
		} else {
			tok = l.newToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			tok = token.Token{Type: token.GTGT, Literal: ">>", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">")
		}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = token.Token{Type: token.ARROW, Literal: "->", Pos: pos}
		} else if isDigit(l.peekChar()) {
			// Negative floats only; integers are unsigned.
			typ, lit := l.readNumber()
			return token.Token{Type: typ, Literal: lit, Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, "-")
		}
	case '\'', '"':
		lit := l.readString(l.ch)
		return token.Token{Type: token.STRING, Literal: lit, Pos: pos}
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			lit := l.readIdentifier()
			return token.Token{Type: token.IDENT, Literal: lit, Pos: pos}
		case isDigit(l.ch):
			typ, lit := l.readNumber()
			return token.Token{Type: typ, Literal: lit, Pos: pos}
		default:
			tok = l.newToken(token.ILLEGAL, string(l.ch))
		}
	}

	l.readChar()
	return tok
}

// newToken creates a new token.
func (l *Lexer) newToken(tokenType token.TokenType, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

// skipWhitespaceAndComments skips whitespace and both comment forms.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		// Line comment (// ...)
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		// Block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar() // skip '/'
			l.readChar() // skip '*'
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // skip '*'
					l.readChar() // skip '/'
					break
				}
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a quoted string literal delimited by quote.
// A backslash escapes the matching quote character and itself;
// any other backslash pair is kept verbatim.
func (l *Lexer) readString(quote byte) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for l.ch != 0 {
		if l.ch == '\\' {
			next := l.peekChar()
			if next == quote || next == '\\' {
				result.WriteByte(next)
				l.readChar() // skip backslash
				l.readChar() // skip escaped char
				continue
			}
			result.WriteByte(l.ch)
			l.readChar()
			continue
		}
		if l.ch == quote {
			l.readChar() // skip closing quote
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an unquoted string or binding name.
// Hyphens are part of the identifier except when starting an arrow.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || (l.ch == '-' && l.peekChar() != '>') {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads an integer or float literal, preserving the lexeme.
// Floats carry an optional leading minus and a mandatory fractional part;
// a minus without a fraction is not a valid number.
func (l *Lexer) readNumber() (token.TokenType, string) {
	start := l.pos
	negative := l.ch == '-'
	if negative {
		l.readChar()
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
		return token.FLOAT, l.input[start:l.pos]
	}

	if negative {
		return token.ILLEGAL, l.input[start:l.pos]
	}
	return token.INT, l.input[start:l.pos]
}

// Tokenize returns all tokens in the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
