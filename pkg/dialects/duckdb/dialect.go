// Package duckdb provides the DuckDB backend descriptor.
// The backend scans static files through id-range-partitioned views, so
// intermediate sets materialize as temporary tables and area identifiers
// are derived arithmetically in the predicate.
package duckdb

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB descriptor.
var DuckDB = &dialect.Descriptor{
	Name:       "duckdb",
	Strategy:   dialect.StrategyTempTable,
	AreaOffset: dialect.AreaOffset,
	HasTimeout: false,

	View:         dialect.StandardView,
	QuoteLiteral: dialect.QuoteSingle,

	TagsExist: func(table, key string) string {
		return fmt.Sprintf("(%s.tags->>%s) IS NOT NULL", table, dialect.QuoteSingle(key))
	},
	TagsAbsent: func(table, key string) string {
		return fmt.Sprintf("(%s.tags->>%s) IS NULL", table, dialect.QuoteSingle(key))
	},
	TagsGet: func(table, key string) string {
		return fmt.Sprintf("(%s.tags->>%s)", table, dialect.QuoteSingle(key))
	},

	RegexMatch: func(expr, pattern string) string {
		return fmt.Sprintf("regexp_matches(%s, %s)", expr, dialect.QuoteSingle(pattern))
	},
	RegexNotMatch: func(expr, pattern string) string {
		return fmt.Sprintf("NOT regexp_matches(%s, %s)", expr, dialect.QuoteSingle(pattern))
	},

	IDList: func(field string, ids []string) string {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = field + " = " + id
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	},

	// The file scans expose native identifiers; relation-derived areas
	// shift into their reserved id range here.
	AreaIDExpr: func(table string) string {
		return fmt.Sprintf("CASE %[1]s.osm_type WHEN 'r' THEN %[1]s.id + %d ELSE %[1]s.id END",
			table, dialect.AreaOffset)
	},

	GeomLiteral: func(wkt string) string {
		return "ST_GeomFromText(" + dialect.QuoteSingle(wkt) + ")"
	},
	Transform: func(expr string, srid int) string {
		if srid == 4326 {
			return expr
		}
		return fmt.Sprintf("ST_Transform(%s, 'EPSG:4326', 'EPSG:%d')", expr, srid)
	},
	TransformBack: func(expr string, srid int) string {
		if srid == 4326 {
			return expr
		}
		return fmt.Sprintf("ST_Transform(%s, 'EPSG:%d', 'EPSG:4326')", expr, srid)
	},

	StatementTimeout: func(_ int64) (string, bool) {
		return "", false
	},

	MemberRows: func(expr string) string {
		return fmt.Sprintf("UNNEST(%s) AS t(m)", expr)
	},
	NodeMembership: func(node, way string) string {
		return fmt.Sprintf("list_contains(%s.nodes, %s.id)", way, node)
	},
}
