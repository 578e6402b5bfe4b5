package parser_test

import (
	"testing"

	"github.com/leapstack-labs/overpassql/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(n int64) *int64 { return &n }

func parseOne(t *testing.T, input string) parser.Statement {
	t.Helper()
	req, err := parser.Parse(input)
	require.NoError(t, err)
	require.Len(t, req.Statements, 1)
	return req.Statements[0]
}

// ---------- Metadata Tests ----------

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *parser.Metadata
	}{
		{
			name:  "format and timeout",
			input: "[out:json][timeout:25];node;",
			want:  &parser.Metadata{Format: "json", Timeout: i64(25)},
		},
		{
			name:  "format only",
			input: "[out:json];node;",
			want:  &parser.Metadata{Format: "json"},
		},
		{
			name:  "no metadata",
			input: "node;",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parser.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Metadata)
		})
	}
}

// ---------- Entity Query Tests ----------

func TestParseEntityQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *parser.EntityQuery
	}{
		{
			name:  "bare kind",
			input: "node;",
			want:  &parser.EntityQuery{Kind: parser.KindNode},
		},
		{
			name:  "kind with source and assignment",
			input: "nwr.a->.b;",
			want:  &parser.EntityQuery{Kind: parser.KindAny, Source: "a", Assign: "b"},
		},
		{
			name:  "presence selector",
			input: "way[highway];",
			want: &parser.EntityQuery{
				Kind:      parser.KindWay,
				Selectors: []*parser.Selector{{Key: "highway"}},
			},
		},
		{
			name:  "negated presence selector",
			input: "node[!loop];",
			want: &parser.EntityQuery{
				Kind:      parser.KindNode,
				Selectors: []*parser.Selector{{Key: "loop", Not: true}},
			},
		},
		{
			name:  "equality with unquoted value",
			input: "node[shop=florist];",
			want: &parser.EntityQuery{
				Kind: parser.KindNode,
				Selectors: []*parser.Selector{{
					Key: "shop", Op: parser.OpEquals,
					Value: &parser.Value{Raw: "florist"},
				}},
			},
		},
		{
			name:  "equality with quoted key and value",
			input: `node["amenity"="drinking_water"];`,
			want: &parser.EntityQuery{
				Kind: parser.KindNode,
				Selectors: []*parser.Selector{{
					Key: "amenity", Op: parser.OpEquals,
					Value: &parser.Value{Raw: "drinking_water"},
				}},
			},
		},
		{
			name:  "numeric value",
			input: "node[population=5000];",
			want: &parser.EntityQuery{
				Kind: parser.KindNode,
				Selectors: []*parser.Selector{{
					Key: "population", Op: parser.OpEquals,
					Value: &parser.Value{Raw: "5000", IsNumber: true},
				}},
			},
		},
		{
			name:  "regex operators",
			input: `relation[foo~"bar|baz"][qux!~"^a"];`,
			want: &parser.EntityQuery{
				Kind: parser.KindRelation,
				Selectors: []*parser.Selector{
					{Key: "foo", Op: parser.OpMatches, Value: &parser.Value{Raw: "bar|baz"}},
					{Key: "qux", Op: parser.OpNotMatches, Value: &parser.Value{Raw: "^a"}},
				},
			},
		},
		{
			name:  "inequality",
			input: "area[boundary!=administrative];",
			want: &parser.EntityQuery{
				Kind: parser.KindArea,
				Selectors: []*parser.Selector{{
					Key: "boundary", Op: parser.OpNotEquals,
					Value: &parser.Value{Raw: "administrative"},
				}},
			},
		},
		{
			name:  "selectors and filters together",
			input: `nwr.a["tourism"="information"](area.a);`,
			want: &parser.EntityQuery{
				Kind:   parser.KindAny,
				Source: "a",
				Selectors: []*parser.Selector{{
					Key: "tourism", Op: parser.OpEquals,
					Value: &parser.Value{Raw: "information"},
				}},
				Filters: []parser.Filter{&parser.AreaFilter{Name: "a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOne(t, tt.input))
		})
	}
}

// ---------- Filter Tests ----------

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []parser.Filter
	}{
		{
			name:  "bbox",
			input: "node(1,2,3,4);",
			want:  []parser.Filter{&parser.BBoxFilter{South: "1", West: "2", North: "3", East: "4"}},
		},
		{
			name:  "bbox keeps lexical form",
			input: "node(-1.1, 2, 3.25, 4);",
			want:  []parser.Filter{&parser.BBoxFilter{South: "-1.1", West: "2", North: "3.25", East: "4"}},
		},
		{
			name:  "single id",
			input: "area(3600166718);",
			want:  []parser.Filter{&parser.IDFilter{ID: "3600166718"}},
		},
		{
			name:  "id list",
			input: "way(id:1,2,3);",
			want:  []parser.Filter{&parser.IDListFilter{IDs: []string{"1", "2", "3"}}},
		},
		{
			name:  "id list with single element",
			input: "way(id:42);",
			want:  []parser.Filter{&parser.IDListFilter{IDs: []string{"42"}}},
		},
		{
			name:  "poly",
			input: `node(poly:"1 2 3 4 5 6");`,
			want:  []parser.Filter{&parser.PolyFilter{Points: "1 2 3 4 5 6"}},
		},
		{
			name:  "area reference",
			input: "nwr(area.a);",
			want:  []parser.Filter{&parser.AreaFilter{Name: "a"}},
		},
		{
			name:  "around with float radius",
			input: "node(around.a:12.3);",
			want:  []parser.Filter{&parser.AroundFilter{Name: "a", Radius: "12.3"}},
		},
		{
			name:  "around with integer radius",
			input: "node(around.center:100);",
			want:  []parser.Filter{&parser.AroundFilter{Name: "center", Radius: "100"}},
		},
		{
			name:  "stacked filters",
			input: `nwr(poly:"1 2 3 4")(area.a);`,
			want: []parser.Filter{
				&parser.PolyFilter{Points: "1 2 3 4"},
				&parser.AreaFilter{Name: "a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := parseOne(t, tt.input).(*parser.EntityQuery)
			require.True(t, ok)
			assert.Equal(t, tt.want, q.Filters)
		})
	}
}

// ---------- Traversal Tests ----------

func TestParseTraverse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *parser.Traverse
	}{
		{"children", ">;", &parser.Traverse{Dir: parser.DirChildren}},
		{"children all", ">>;", &parser.Traverse{Dir: parser.DirChildrenAll}},
		{"parents", "<;", &parser.Traverse{Dir: parser.DirParents}},
		{"parents all", "<<;", &parser.Traverse{Dir: parser.DirParentsAll}},
		{"with source", ".a >;", &parser.Traverse{Source: "a", Dir: parser.DirChildren}},
		{"with assignment", ">->.b;", &parser.Traverse{Dir: parser.DirChildren, Assign: "b"}},
		{"with source and assignment", ".a >->.b;", &parser.Traverse{Source: "a", Dir: parser.DirChildren, Assign: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "node;" + tt.input
			req, err := parser.Parse(input)
			require.NoError(t, err)
			require.Len(t, req.Statements, 2)
			assert.Equal(t, tt.want, req.Statements[1])
		})
	}
}

// ---------- Union Tests ----------

func TestParseUnion(t *testing.T) {
	stmt := parseOne(t, "(node->.a;way->.b;)->.k;")
	u, ok := stmt.(*parser.Union)
	require.True(t, ok)
	assert.Equal(t, "k", u.Assign)
	require.Len(t, u.Branches, 2)
	assert.Equal(t, &parser.EntityQuery{Kind: parser.KindNode, Assign: "a"}, u.Branches[0])
	assert.Equal(t, &parser.EntityQuery{Kind: parser.KindWay, Assign: "b"}, u.Branches[1])
}

func TestParseUnionNested(t *testing.T) {
	stmt := parseOne(t, "((node;);way;);")
	u, ok := stmt.(*parser.Union)
	require.True(t, ok)
	require.Len(t, u.Branches, 2)
	inner, ok := u.Branches[0].(*parser.Union)
	require.True(t, ok)
	require.Len(t, inner.Branches, 1)
	assert.Equal(t, &parser.EntityQuery{Kind: parser.KindNode}, inner.Branches[0])
}

func TestParseUnionWithTraversal(t *testing.T) {
	stmt := parseOne(t, "(node(1);>;);")
	u, ok := stmt.(*parser.Union)
	require.True(t, ok)
	require.Len(t, u.Branches, 2)
	assert.Equal(t, &parser.Traverse{Dir: parser.DirChildren}, u.Branches[1])
}

// ---------- Output Tests ----------

func TestParseOut(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *parser.Emit
	}{
		{
			name:  "defaults",
			input: "out;",
			want:  &parser.Emit{Detail: parser.DetailBody},
		},
		{
			name:  "geometry then detail",
			input: "out center meta;",
			want:  &parser.Emit{Geom: parser.GeomCenter, Detail: parser.DetailMeta},
		},
		{
			name:  "detail then geometry",
			input: "out meta center;",
			want:  &parser.Emit{Geom: parser.GeomCenter, Detail: parser.DetailMeta},
		},
		{
			name:  "geometry only",
			input: "out geom;",
			want:  &parser.Emit{Geom: parser.GeomFull, Detail: parser.DetailBody},
		},
		{
			name:  "bounding box",
			input: "out bb;",
			want:  &parser.Emit{Geom: parser.GeomBBox, Detail: parser.DetailBody},
		},
		{
			name:  "skeleton",
			input: "out skel;",
			want:  &parser.Emit{Detail: parser.DetailSkel},
		},
		{
			name:  "identifiers only",
			input: "out ids;",
			want:  &parser.Emit{Detail: parser.DetailIDs},
		},
		{
			name:  "with source",
			input: ".k out;",
			want:  &parser.Emit{Source: "k", Detail: parser.DetailBody},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "node;" + tt.input
			req, err := parser.Parse(input)
			require.NoError(t, err)
			require.Len(t, req.Statements, 2)
			assert.Equal(t, tt.want, req.Statements[1])
		})
	}
}

// ---------- Error Tests ----------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty input", "", "expected a statement"},
		{"metadata only", "[out:json];", "expected a statement"},
		{"unknown kind", "house;", `unknown entity kind "house"`},
		{"missing semicolon", "node", `expected ";"`},
		{"illegal statement", "-5;", `illegal token "-5"`},
		{"negative integer filter", "node(-5);", `unexpected "-5"`},
		{"unterminated string", `node["abc`, "end of input"},
		{"unknown filter", "node(box:1);", `unknown filter "box"`},
		{"unknown output modifier", "node;out fancy;", `unknown output modifier "fancy"`},
		{"out inside union", "(node;out;);", "not allowed inside a union"},
		{"negation with operator", "node[!k=v];", `expected "]"`},
		{"unterminated selector", `node["amenity";`, "expected"},
		{"missing bbox bound", "node(1,2,3);", `expected ","`},
		{"empty union", "();", "expected a statement"},
		{"assignment without name", "node->;", `expected "."`},
		{"trailing garbage after out", "node;out;;", "expected a statement"},
		{"bad timeout", "[out:json][timeout:99999999999999999999];node;", "invalid timeout value"},
		{"source without statement", ".a;", `"out" or a traversal operator`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("node;\n  house;")
	require.Error(t, err)

	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 2, syntaxErr.Pos.Line)
	assert.Equal(t, 3, syntaxErr.Pos.Column)
	assert.Contains(t, err.Error(), "line 2, column 3")
}

// ---------- Round-Trip Tests ----------

// Parsing the canonical serialization of an AST yields an equal AST.
func TestRoundTrip(t *testing.T) {
	queries := []string{
		"node;",
		"[out:json][timeout:25];node;out;",
		`node["amenity"="drinking_water"][!loop][foo~"bar|baz"](1, 2, 3, 4);out;`,
		"[out:json][timeout:25];area(7009125)->.a;nwr.a[\"tourism\"=\"information\"];out center meta;",
		"(node[shop=florist]->.a;way(id:1,2,3)->.b;)->.k;.k out geom tags;",
		"node(1)->.a;.a >->.b;.b out skel;",
		"node(id:42);<<;out ids;",
		`node(poly:"1 2 3 4 5 6")(around.a:12.3);out bb meta;`,
		"area[name='l\\'l'];out;",
		"node[population=5000][ele=-1.5];out;",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			first, err := parser.Parse(query)
			require.NoError(t, err)

			second, err := parser.Parse(first.String())
			require.NoError(t, err, "canonical form must reparse: %s", first.String())
			assert.Equal(t, first, second)
		})
	}
}

func TestCanonicalForm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Keys and string values are re-quoted with double quotes.
		{"node[shop=florist];", `node["shop"="florist"];`},
		{"node['amenity'];", `node["amenity"];`},
		// Numeric lexemes pass through unchanged.
		{"node[ele=-1.5](1.0,2.0,3.0,4.0);", `node["ele"=-1.5](1.0,2.0,3.0,4.0);`},
		// Defaulted modifiers are omitted.
		{"node;out body;", "node;out;"},
		{"node;out meta center;", "node;out center meta;"},
		// Embedded quotes are escaped.
		{`node[name="l'l\"r"];`, `node["name"="l'l\"r"];`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := parser.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.String())
		})
	}
}

// ---------- Full Request Tests ----------

func TestParseRequest(t *testing.T) {
	input := `[out:json][timeout:25];
area(7009125)->.a;
nwr.a["tourism"="information"];
out center meta;`

	req, err := parser.Parse(input)
	require.NoError(t, err)

	assert.Equal(t, &parser.Metadata{Format: "json", Timeout: i64(25)}, req.Metadata)
	require.Len(t, req.Statements, 3)

	assert.Equal(t, &parser.EntityQuery{
		Kind:    parser.KindArea,
		Filters: []parser.Filter{&parser.IDFilter{ID: "7009125"}},
		Assign:  "a",
	}, req.Statements[0])

	assert.Equal(t, &parser.EntityQuery{
		Kind:   parser.KindAny,
		Source: "a",
		Selectors: []*parser.Selector{{
			Key: "tourism", Op: parser.OpEquals,
			Value: &parser.Value{Raw: "information"},
		}},
	}, req.Statements[1])

	assert.Equal(t, &parser.Emit{Geom: parser.GeomCenter, Detail: parser.DetailMeta}, req.Statements[2])
}
