package compiler_test

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/overpassql/internal/testutil"
	"github.com/leapstack-labs/overpassql/pkg/compiler"
	"github.com/leapstack-labs/overpassql/pkg/dialect"
	"github.com/leapstack-labs/overpassql/pkg/dialects/duckdb"
	"github.com/leapstack-labs/overpassql/pkg/dialects/postgres"
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// script compiles the query and joins the statements the way the CLI
// prints them.
func script(t *testing.T, d *dialect.Descriptor, query string, opts compiler.Options) string {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	req, err := parser.Parse(query)
	require.NoError(t, err)
	stmts, err := compiler.Compile(req, d, opts)
	require.NoError(t, err)
	return strings.Join(stmts, "\n") + "\n"
}

func TestCompileGolden(t *testing.T) {
	tests := []struct {
		name  string
		d     *dialect.Descriptor
		query string
		opts  compiler.Options
	}{
		{
			name:  "postgres_scenario",
			d:     postgres.Postgres,
			query: `[out:json][timeout:25];area(7009125)->.a;nwr.a["tourism"="information"];out center meta;`,
		},
		{
			name:  "duckdb_scenario",
			d:     duckdb.DuckDB,
			query: `[out:json][timeout:25];area(7009125)->.a;nwr.a["tourism"="information"];out center meta;`,
		},
		{
			name:  "postgres_bbox",
			d:     postgres.Postgres,
			query: `node["amenity"="cafe"](1.0,2.0,3.0,4.0);out;`,
		},
		{
			name:  "duckdb_bbox",
			d:     duckdb.DuckDB,
			query: `node["amenity"="cafe"](1.0,2.0,3.0,4.0);out;`,
		},
		{
			name:  "postgres_union",
			d:     postgres.Postgres,
			query: `[out:json];(node(1);way(2););out skel;`,
		},
		{
			name:  "postgres_children",
			d:     postgres.Postgres,
			query: `way(42);>;out ids;`,
		},
		{
			name:  "postgres_parents",
			d:     postgres.Postgres,
			query: `node(42);<;out ids;`,
		},
		{
			name:  "postgres_recursive",
			d:     postgres.Postgres,
			query: `way(42);>>;out ids;`,
		},
		{
			name:  "duckdb_recursive",
			d:     duckdb.DuckDB,
			query: `way(42);>>;out ids;`,
		},
		{
			name:  "postgres_poly",
			d:     postgres.Postgres,
			query: `node(poly:"50.7 7.1 50.7 7.2 50.8 7.2");out;`,
		},
		{
			name:  "postgres_around",
			d:     postgres.Postgres,
			query: `node(1)->.x;way(around.x:100.5);out;`,
		},
		{
			name:  "postgres_multi_emit",
			d:     postgres.Postgres,
			query: `node(1)->.a;way(2)->.b;.a out;.b out geom;`,
		},
		{
			name:  "postgres_srid",
			d:     postgres.Postgres,
			query: `node(1.0,2.0,3.0,4.0);out geom;`,
			opts:  compiler.Options{SRID: 25832},
		},
		{
			name:  "duckdb_srid",
			d:     duckdb.DuckDB,
			query: `node(1.0,2.0,3.0,4.0);out geom;`,
			opts:  compiler.Options{SRID: 25832},
		},
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(script(t, tt.d, tt.query, tt.opts)))
		})
	}
}

func TestCompileTimeout(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "default when absent",
			query:    `node(1);out;`,
			expected: "SET statement_timeout = 160000;",
		},
		{
			name:     "metadata value",
			query:    `[out:json][timeout:25];node(1);out;`,
			expected: "SET statement_timeout = 25000;",
		},
		{
			name:     "capped",
			query:    `[out:json][timeout:900];node(1);out;`,
			expected: "SET statement_timeout = 500000;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parser.Parse(tt.query)
			require.NoError(t, err)
			stmts, err := compiler.Compile(req, postgres.Postgres, compiler.Options{})
			require.NoError(t, err)
			require.NotEmpty(t, stmts)
			assert.Equal(t, tt.expected, stmts[0])
		})
	}
}

func TestCompileTimeoutDuckDB(t *testing.T) {
	req, err := parser.Parse(`[out:json][timeout:25];node(1);out;`)
	require.NoError(t, err)
	stmts, err := compiler.Compile(req, duckdb.DuckDB, compiler.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, stmts)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TEMP TABLE"), "expected no timeout statement, got %q", stmts[0])
}

func TestCompileUnboundName(t *testing.T) {
	tests := []struct {
		name  string
		query string
		set   string
	}{
		{"entity source", `node.x;out;`, "x"},
		{"area filter", `nwr(area.missing);out;`, "missing"},
		{"around filter", `way(around.q:50);out;`, "q"},
		{"emit source", `node(1);.k out;`, "k"},
		{"default before any statement", `out;`, ""},
		{"traversal before any statement", `>;`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parser.Parse(tt.query)
			require.NoError(t, err)
			stmts, err := compiler.Compile(req, postgres.Postgres, compiler.Options{})
			assert.Nil(t, stmts, "no partial SQL on error")
			var unbound *compiler.UnboundNameError
			require.ErrorAs(t, err, &unbound)
			assert.Equal(t, tt.set, unbound.Name)
		})
	}
}

func TestCompileFilterError(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		filter string
	}{
		{"area filter over non-area set", `node(1)->.a;nwr(area.a);out;`, "area"},
		{"odd polygon coordinates", `node(poly:"1.0 2.0 3.0");out;`, "poly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parser.Parse(tt.query)
			require.NoError(t, err)
			stmts, err := compiler.Compile(req, postgres.Postgres, compiler.Options{})
			assert.Nil(t, stmts)
			var ferr *compiler.FilterError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.filter, ferr.Filter)
		})
	}
}

func TestCompileBBoxArgumentOrder(t *testing.T) {
	// south,west,north,east becomes "west south, east north" in the
	// geometry literal.
	sql := script(t, postgres.Postgres, `node(1.0,2.0,3.0,4.0);out;`, compiler.Options{})
	assert.Contains(t, sql, "LINESTRING(2.0 1.0, 4.0 3.0)")
}

func TestCompileSetSource(t *testing.T) {
	// A non-area source restricts the scan to the bound set itself.
	sql := script(t, postgres.Postgres, `node(1)->.s;node.s["name"];out;`, compiler.Options{})
	assert.Contains(t, sql, "FROM\n        _s\n")
	assert.Contains(t, sql, "_s.tags?'name'")
	assert.Contains(t, sql, "osm_type = 'n'")
}

func TestCompileAreaFilter(t *testing.T) {
	sql := script(t, postgres.Postgres, `area(3600166718)->.a;node(area.a);out;`, compiler.Options{})
	assert.Contains(t, sql, "JOIN _a ON true")
	assert.Contains(t, sql, "ST_Within(")
	assert.Contains(t, sql, "node_by_geom.geom")
}

func TestCompileRebind(t *testing.T) {
	// Re-assigning a set name gets a fresh fragment so both stay
	// addressable in one statement.
	sql := script(t, postgres.Postgres, `node(1)->.a;way(2)->.a;.a out;`, compiler.Options{})
	assert.Contains(t, sql, "_a_2 AS (")
	assert.Contains(t, sql, "FROM\n    _a_2\n")
}

func TestCompileUnionBindings(t *testing.T) {
	// Branch assignments surface once the union closes.
	sql := script(t, postgres.Postgres, `(node(1)->.n1;way(2););.n1 out;`, compiler.Options{})
	assert.Contains(t, sql, "FROM\n    _n1\n")

	// The default binding advances across branches, so a traversal
	// branch consumes its predecessor.
	sql = script(t, postgres.Postgres, `(node(1);>;);out;`, compiler.Options{})
	assert.Contains(t, sql, "_0 AS parent")

	// Sibling assignments stay invisible.
	req, err := parser.Parse(`(node(1)->.p;way.p;);out;`)
	require.NoError(t, err)
	_, err = compiler.Compile(req, postgres.Postgres, compiler.Options{})
	var unbound *compiler.UnboundNameError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "p", unbound.Name)
}

func TestCompileTraverseSource(t *testing.T) {
	sql := script(t, postgres.Postgres, `node(1)->.s;.s <->.up;.up out;`, compiler.Options{})
	assert.Contains(t, sql, "_s AS child")
	assert.Contains(t, sql, "FROM\n    _up\n")
}

func TestCompileNoEmit(t *testing.T) {
	req, err := parser.Parse(`node(1);`)
	require.NoError(t, err)

	stmts, err := compiler.Compile(req, postgres.Postgres, compiler.Options{})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "SET statement_timeout = 160000;", stmts[0])

	stmts, err = compiler.Compile(req, duckdb.DuckDB, compiler.Options{})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TEMP TABLE _0 AS\n"))
}
