package dialect

// Shared seam implementations, the pieces both backends agree on.
// Descriptors compose from these and override the rest.

import (
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// --- Standard Views ---

// StandardView maps an entity kind to its view name. Every kind is served
// by a lookup view <kind>_by_id and a geometry view <kind>_by_geom; the
// "any" kind scans the union views nwr_by_id / nwr_by_geom.
func StandardView(kind parser.Kind, lookup bool) string {
	if lookup {
		return string(kind) + "_by_id"
	}
	return string(kind) + "_by_geom"
}

// --- Standard Literals ---

// QuoteSingle renders a string as a single-quoted SQL literal, doubling
// embedded quotes.
func QuoteSingle(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
