// Package postgres provides the PostgreSQL backend descriptor.
// The backend is a PostGIS database exposing one lookup view and one
// geometry view per entity kind, with area identifiers already derived.
package postgres

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL descriptor. Intermediate sets accumulate as
// common table expressions, so each output statement is self-contained.
var Postgres = &dialect.Descriptor{
	Name:       "postgres",
	Strategy:   dialect.StrategyCTE,
	AreaOffset: dialect.AreaOffset,
	HasTimeout: true,

	View:         dialect.StandardView,
	QuoteLiteral: dialect.QuoteSingle,

	TagsExist: func(table, key string) string {
		return table + ".tags?" + dialect.QuoteSingle(key)
	},
	TagsAbsent: func(table, key string) string {
		return "NOT " + table + ".tags?" + dialect.QuoteSingle(key)
	},
	TagsGet: func(table, key string) string {
		return table + ".tags->>" + dialect.QuoteSingle(key)
	},

	RegexMatch: func(expr, pattern string) string {
		return expr + " ~ " + dialect.QuoteSingle(pattern)
	},
	RegexNotMatch: func(expr, pattern string) string {
		return expr + " !~ " + dialect.QuoteSingle(pattern)
	},

	IDList: func(field string, ids []string) string {
		return fmt.Sprintf("%s = ANY (ARRAY[%s])", field, strings.Join(ids, ", "))
	},

	// The backend views expose derived area identifiers directly.
	AreaIDExpr: func(table string) string {
		return table + ".id"
	},

	GeomLiteral: func(wkt string) string {
		return dialect.QuoteSingle("SRID=4326;"+wkt) + "::geometry"
	},
	Transform: func(expr string, srid int) string {
		return fmt.Sprintf("ST_Transform(%s, %d)", expr, srid)
	},
	TransformBack: func(expr string, _ int) string {
		return fmt.Sprintf("ST_Transform(%s, 4326)", expr)
	},

	StatementTimeout: func(ms int64) (string, bool) {
		return fmt.Sprintf("SET statement_timeout = %d;", ms), true
	},

	MemberRows: func(expr string) string {
		return fmt.Sprintf("jsonb_to_recordset(%s) AS m(ref bigint, role text, type text)", expr)
	},
	NodeMembership: func(node, way string) string {
		return fmt.Sprintf("%s.id = ANY(%s.nodes)", node, way)
	},
}
