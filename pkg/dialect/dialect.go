// Package dialect provides the backend descriptor that parameterizes SQL
// generation.
//
// This package contains the public contract between the compiler and the
// supported backends: view naming, literal quoting, tag and member access,
// identifier derivation, and statement materialization. Concrete descriptors
// are registered from pkg/dialects/*/ packages.
package dialect

import (
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// Strategy classifies how a backend materializes intermediate result sets.
type Strategy string

const (
	// StrategyCTE accumulates fragments as common table expressions and
	// emits one WITH-prefixed statement per output.
	StrategyCTE Strategy = "cte"
	// StrategyTempTable materializes each fragment as a temporary table
	// and emits plain terminal selects.
	StrategyTempTable Strategy = "temp-table"
)

// AreaOffset is added to relation identifiers to derive area identifiers.
// Way-derived areas keep their native identifier.
const AreaOffset int64 = 3600000000

// AreaID returns the synthetic area identifier for an entity.
func AreaID(kind parser.Kind, id int64) int64 {
	if kind == parser.KindRelation {
		return id + AreaOffset
	}
	return id
}

// Descriptor is a backend configuration. All schema-specific knowledge
// lives here; the compiler itself is dialect-agnostic.
type Descriptor struct {
	Name       string
	Strategy   Strategy
	AreaOffset int64

	// HasTimeout reports whether the backend honors a statement timeout.
	HasTimeout bool

	// View returns the name of the view serving the given entity kind.
	// The lookup view serves identifier filters, the geometry view
	// everything else. A backend may let the two coincide.
	View func(kind parser.Kind, lookup bool) string

	// QuoteLiteral renders a string as a quoted SQL literal.
	QuoteLiteral func(s string) string

	// Tag access over the tags column of the given table reference.
	TagsExist  func(table, key string) string
	TagsAbsent func(table, key string) string
	TagsGet    func(table, key string) string

	// Regex comparison of a tag expression against a pattern literal.
	RegexMatch    func(expr, pattern string) string
	RegexNotMatch func(expr, pattern string) string

	// IDList renders a membership predicate over identifier literals.
	IDList func(field string, ids []string) string

	// AreaIDExpr returns the expression carrying the derived area
	// identifier for rows of the given table reference. Backends whose
	// area views expose derived identifiers return the id column
	// unchanged; backends over raw scans apply the offset arithmetic.
	AreaIDExpr func(table string) string

	// GeomLiteral renders a WKT string as a geometry value in SRID 4326.
	GeomLiteral func(wkt string) string

	// Transform reprojects an SRID 4326 expression to the target SRID;
	// TransformBack reprojects a target-SRID expression to 4326.
	Transform     func(expr string, srid int) string
	TransformBack func(expr string, srid int) string

	// StatementTimeout renders the timeout statement for the given
	// duration in milliseconds. Backends without timeout support
	// report false.
	StatementTimeout func(ms int64) (string, bool)

	// MemberRows renders a derived table over the members column of the
	// given relation reference, exposing one row per member with fields
	// m.ref, m.role and m.type.
	MemberRows func(expr string) string

	// NodeMembership renders the predicate testing whether the node row
	// aliased node belongs to the nodes list of the way row aliased way.
	NodeMembership func(node, way string) string
}
