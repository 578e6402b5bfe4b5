package parser

import (
	"fmt"

	"github.com/leapstack-labs/overpassql/pkg/token"
)

// SyntaxError represents a parsing error with position information.
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken = "unexpected %s, expected %s"
	ErrIllegalToken    = "illegal token %q"
	ErrUnknownKind     = "unknown entity kind %q"
	ErrUnknownFilter   = "unknown filter %q"
	ErrUnknownModifier = "unknown output modifier %q"
	ErrTimeoutValue    = "invalid timeout value %q"
	ErrOutInUnion      = "output statements are not allowed inside a union"
)
