package compiler

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/format"
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// compileEntity lowers an entity query into a filtered scan. The scan
// target is the kind's view, or a bound fragment when the query names
// a non-area source set. An area-kind source restricts geographically
// instead: the view joins against the bound areas and keeps the rows
// their geometry contains.
func (c *compiler) compileEntity(q *parser.EntityQuery) (binding, error) {
	table := c.dialect.View(q.Kind, hasIDFilter(q.Filters))

	var areaSrc string
	if q.Source != "" {
		src, err := c.env.resolve(q.Source)
		if err != nil {
			return binding{}, err
		}
		if src.kind == parser.KindArea {
			areaSrc = src.frag
		} else {
			table = src.frag
		}
	}

	var joins, where []string
	if code, ok := kindCode(q.Kind); ok {
		where = append(where, "osm_type = '"+code+"'")
	}
	if len(q.Selectors) > 0 {
		where = append(where, c.selectorsClause(table, q.Selectors))
	}
	if areaSrc != "" {
		joins = append(joins, "JOIN "+areaSrc+" ON true")
		where = append(where, within(table, areaSrc))
	}
	for _, f := range q.Filters {
		clause, join, err := c.compileFilter(q.Kind, table, f)
		if err != nil {
			return binding{}, err
		}
		if join != "" {
			joins = append(joins, join)
		}
		where = append(where, clause)
	}

	body := format.Select{
		Columns: []string{table + ".*"},
		From:    table,
		Joins:   joins,
		Where:   where,
	}.String()

	name := c.fragmentName(q.Assign)
	c.addFragment(name, body)
	return binding{frag: name, kind: q.Kind}, nil
}

// kindCode returns the discriminant value for the three primitive
// kinds. Area and nwr scans carry no kind predicate.
func kindCode(k parser.Kind) (string, bool) {
	switch k {
	case parser.KindNode:
		return "n", true
	case parser.KindWay:
		return "w", true
	case parser.KindRelation:
		return "r", true
	}
	return "", false
}

// hasIDFilter reports whether the query narrows by identifier, which
// selects the lookup view over the geometry view.
func hasIDFilter(filters []parser.Filter) bool {
	for _, f := range filters {
		switch f.(type) {
		case *parser.IDFilter, *parser.IDListFilter:
			return true
		}
	}
	return false
}

// ---------- Selectors ----------

// selectorsClause lowers every selector and joins them into one
// AND-combined predicate.
func (c *compiler) selectorsClause(table string, sels []*parser.Selector) string {
	parts := make([]string, len(sels))
	for i, s := range sels {
		parts[i] = c.selector(table, s)
	}
	return strings.Join(parts, " AND ")
}

// selector lowers one tag predicate through the dialect's accessors.
// Values compare as strings whatever their lexical form.
func (c *compiler) selector(table string, s *parser.Selector) string {
	d := c.dialect
	if s.Value == nil {
		if s.Not {
			return d.TagsAbsent(table, s.Key)
		}
		return d.TagsExist(table, s.Key)
	}
	value := d.QuoteLiteral(s.Value.Raw)
	get := d.TagsGet(table, s.Key)
	switch s.Op {
	case parser.OpNotEquals:
		return "(" + d.TagsAbsent(table, s.Key) + " OR " + get + " != " + value + ")"
	case parser.OpMatches:
		return d.RegexMatch(get, s.Value.Raw)
	case parser.OpNotMatches:
		return d.RegexNotMatch(get, s.Value.Raw)
	default:
		return "(" + d.TagsExist(table, s.Key) + " AND " + get + " = " + value + ")"
	}
}

// ---------- Filters ----------

// compileFilter lowers one filter to a predicate and an optional join
// against a bound fragment.
func (c *compiler) compileFilter(kind parser.Kind, table string, f parser.Filter) (clause, join string, err error) {
	d := c.dialect
	switch f := f.(type) {
	case *parser.BBoxFilter:
		// Corners flip from the query's south,west,north,east order
		// to WKT's lon-lat axis order.
		wkt := "LINESTRING(" + f.West + " " + f.South + ", " + f.East + " " + f.North + ")"
		box := d.Transform("ST_Envelope("+d.GeomLiteral(wkt)+")", c.srid)
		return "ST_Intersects(\n    " + box + ",\n    " + table + ".geom\n)", "", nil
	case *parser.PolyFilter:
		poly, err := polygonWKT(f.Points)
		if err != nil {
			return "", "", err
		}
		lit := d.Transform(d.GeomLiteral(poly), c.srid)
		return "ST_Within(\n    " + table + ".geom,\n    " + lit + "\n)", "", nil
	case *parser.IDFilter:
		return d.IDList(c.idField(kind, table), []string{f.ID}), "", nil
	case *parser.IDListFilter:
		return d.IDList(c.idField(kind, table), f.IDs), "", nil
	case *parser.AreaFilter:
		src, err := c.env.resolve(f.Name)
		if err != nil {
			return "", "", err
		}
		if src.kind != parser.KindArea {
			return "", "", &FilterError{
				Filter: "area",
				Reason: fmt.Sprintf("set %q was not produced by an area query", f.Name),
			}
		}
		return within(table, src.frag), "JOIN " + src.frag + " ON true", nil
	case *parser.AroundFilter:
		src, err := c.env.resolve(f.Name)
		if err != nil {
			return "", "", err
		}
		clause := "ST_DWithin(\n    " + table + ".geom,\n    " + src.frag + ".geom,\n    " + f.Radius + "\n)"
		return clause, "JOIN " + src.frag + " ON true", nil
	}
	return "", "", fmt.Errorf("unsupported filter %T", f)
}

// idField picks the identifier expression. Area queries compare
// against the dialect's derived identifier.
func (c *compiler) idField(kind parser.Kind, table string) string {
	if kind == parser.KindArea {
		return c.dialect.AreaIDExpr(table)
	}
	return table + ".id"
}

// within renders containment of a scanned geometry inside the rows of
// a bound fragment.
func within(table, frag string) string {
	return "ST_Within(\n    " + table + ".geom,\n    " + frag + ".geom\n)"
}

// polygonWKT converts the filter's "lat lon ..." list into a POLYGON
// literal in lon-lat axis order.
func polygonWKT(points string) (string, error) {
	fields := strings.Fields(points)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return "", &FilterError{
			Filter: "poly",
			Reason: fmt.Sprintf("needs an even number of coordinates, got %d", len(fields)),
		}
	}
	pairs := make([]string, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		pairs = append(pairs, fields[i+1]+" "+fields[i])
	}
	return "POLYGON((" + strings.Join(pairs, ", ") + "))", nil
}
