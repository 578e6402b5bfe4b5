// Package format provides SQL statement formatting.
//
// The compiler assembles statements from fragment bodies and predicate
// expressions that may span multiple lines; this package owns the
// indentation rules so generated scripts stay readable.
package format

import "strings"

// Indent prefixes every non-empty line of s with n spaces.
func Indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// IndentTail prefixes every non-empty line of s except the first with
// n spaces. Used for multi-line expressions embedded in a clause list.
func IndentTail(s string, n int) string {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s
	}
	return s[:i] + "\n" + Indent(s[i+1:], n)
}
