// Package token defines the token types for the map query language.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // node, amenity, name-1
	INT    // 25
	FLOAT  // -1.1
	STRING // "drinking_water", 'yes'

	// Delimiters
	LBRACKET  // [
	RBRACKET  // ]
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;
	COLON     // :
	COMMA     // ,
	DOT       // .

	// Operators
	ARROW    // ->
	BANG     // !
	EQ       // =
	NEQ      // !=
	MATCH    // ~
	NOTMATCH // !~
	LT       // <
	LTLT     // <<
	GT       // >
	GTGT     // >>
)

// Token is a lexical token with its literal text and source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	LBRACKET:  "[",
	RBRACKET:  "]",
	LPAREN:    "(",
	RPAREN:    ")",
	SEMICOLON: ";",
	COLON:     ":",
	COMMA:     ",",
	DOT:       ".",

	ARROW:    "->",
	BANG:     "!",
	EQ:       "=",
	NEQ:      "!=",
	MATCH:    "~",
	NOTMATCH: "!~",
	LT:       "<",
	LTLT:     "<<",
	GT:       ">",
	GTGT:     ">>",
}
