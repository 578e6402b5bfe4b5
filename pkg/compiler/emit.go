package compiler

import (
	"github.com/leapstack-labs/overpassql/pkg/dialect"
	"github.com/leapstack-labs/overpassql/pkg/format"
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

// compileEmit lowers one output statement into a terminal SELECT over
// the source set. Under the CTE strategy the terminal carries every
// fragment compiled so far; under the temp-table strategy those are
// already materialized and the terminal stands alone.
func (c *compiler) compileEmit(e *parser.Emit) error {
	src, err := c.env.source(e.Source)
	if err != nil {
		return err
	}

	sel := format.Select{
		Columns: c.outputColumns(e),
		From:    src.frag,
		OrderBy: "osm_type, id",
	}.String()

	if c.dialect.Strategy == dialect.StrategyCTE {
		c.out = append(c.out, format.With(c.fragments, sel))
	} else {
		c.out = append(c.out, sel+"\n;")
	}
	c.log.Debug("compiled terminal", "source", src.frag, "detail", string(e.Detail), "geom", string(e.Geom))
	return nil
}

// outputColumns builds the projection for an output statement. Detail
// levels are cumulative; tags is an alias for body.
func (c *compiler) outputColumns(e *parser.Emit) []string {
	cols := []string{"id", "osm_type"}
	switch e.Detail {
	case parser.DetailSkel:
		cols = append(cols, "nodes", "members")
	case parser.DetailBody, parser.DetailTags:
		cols = append(cols, "nodes", "members", "tags")
	case parser.DetailMeta:
		cols = append(cols, "nodes", "members", "tags", "version", "created")
	}

	if e.Geom == parser.GeomNone {
		return cols
	}
	expr := "geom"
	switch e.Geom {
	case parser.GeomCenter:
		expr = "ST_Centroid(geom)"
	case parser.GeomBBox:
		expr = "ST_Envelope(geom)"
	}
	expr = c.dialect.TransformBack(expr, c.srid)
	if expr != "geom" {
		expr += " AS geom"
	}
	return append(cols, expr)
}
