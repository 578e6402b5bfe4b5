package compiler

import (
	"github.com/leapstack-labs/overpassql/pkg/format"
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// compileTraverse lowers a traversal of structural references. Single
// arrows resolve one level through a lateral join; doubled arrows wrap
// the same join in a recursive fixed point.
func (c *compiler) compileTraverse(t *parser.Traverse) (binding, error) {
	src, err := c.env.source(t.Source)
	if err != nil {
		return binding{}, err
	}

	var body string
	switch t.Dir {
	case parser.DirChildren:
		body = step(src.frag, "parent", "child", c.childrenInner())
	case parser.DirChildrenAll:
		body = closure(src.frag, "parent", "child", c.childrenInner())
	case parser.DirParents:
		body = step(src.frag, "child", "parent", c.parentsInner())
	case parser.DirParentsAll:
		body = closure(src.frag, "child", "parent", c.parentsInner())
	}

	name := c.fragmentName(t.Assign)
	c.addFragment(name, body)
	return binding{frag: name, kind: parser.KindAny}, nil
}

// step renders one expansion level: each row of src joins laterally to
// the rows it resolves to, deduplicated by entity.
func step(src, from, to, inner string) string {
	return format.Select{
		Distinct: "DISTINCT ON (" + to + ".osm_type, " + to + ".id)",
		Columns:  []string{to + ".*"},
		From:     src + " AS " + from,
		Joins:    []string{lateral(inner, to)},
		OrderBy:  to + ".osm_type, " + to + ".id",
	}.String()
}

// closure renders the transitive expansion as a recursive union. The
// seed rows stay in the result, so repeating the traversal over its
// own output is a fixed point.
func closure(src, from, to, inner string) string {
	// The recursive relation may not share the seed's name, or the
	// seed scan would read the relation being defined.
	rec := "_t"
	if rec == src {
		rec = "_u"
	}
	seed := "SELECT\n    *\nFROM\n    " + src
	step := format.Select{
		Columns: []string{to + ".*"},
		From:    rec + " AS " + from,
		Joins:   []string{lateral(inner, to)},
	}
	return "WITH RECURSIVE " + rec + " AS (\n" +
		format.Indent(seed+"\nUNION\n"+step.String(), 4) +
		"\n)\nSELECT DISTINCT ON (osm_type, id)\n    *\nFROM\n    " + rec + "\nORDER BY\n    osm_type, id"
}

func lateral(inner, as string) string {
	return "JOIN LATERAL (\n" + format.Indent(inner, 4) + "\n) AS " + as + " ON true"
}

// childrenInner resolves one row's structural references: a way's
// node list, a relation's member list.
func (c *compiler) childrenInner() string {
	d := c.dialect
	nodes := format.Select{
		Columns: []string{"node.*"},
		From:    d.View(parser.KindNode, true) + " AS node",
		Where: []string{
			"parent.osm_type = 'w'",
			d.NodeMembership("node", "parent"),
		},
	}
	members := format.Select{
		Columns: []string{"member.*"},
		From:    d.MemberRows("parent.members"),
		Joins:   []string{"JOIN " + d.View(parser.KindAny, true) + " AS member ON member.osm_type = m.type AND member.id = m.ref"},
		Where:   []string{"parent.osm_type = 'r'"},
	}
	return nodes.String() + "\nUNION ALL\n" + members.String()
}

// parentsInner resolves the rows referencing one row: ways by node
// list, relations by member list.
func (c *compiler) parentsInner() string {
	d := c.dialect
	ways := format.Select{
		Columns: []string{"way.*"},
		From:    d.View(parser.KindWay, true) + " AS way",
		Where: []string{
			"child.osm_type = 'n'",
			d.NodeMembership("child", "way"),
		},
	}
	rels := "SELECT\n    rel.*\nFROM\n    " + d.View(parser.KindRelation, true) + " AS rel,\n    " +
		d.MemberRows("rel.members") +
		"\nWHERE\n    m.type = child.osm_type AND\n    m.ref = child.id"
	return ways.String() + "\nUNION ALL\n" + rels
}
