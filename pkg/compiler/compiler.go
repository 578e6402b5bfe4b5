// Package compiler lowers parsed requests into SQL scripts.
//
// Statements compile in textual order. Each set-producing statement
// becomes a named fragment (a SELECT over the backend views or over
// earlier fragments) and each output statement becomes one terminal
// SELECT. How fragments materialize is the dialect's choice: the
// postgres strategy prefixes every terminal with the fragments as
// CTEs, the duckdb strategy defines each fragment as a temporary
// table and emits the terminals as plain statements.
//
// # Usage
//
//	req, err := parser.Parse(`node["amenity"="cafe"](50.6,7.0,50.8,7.3);out center;`)
//	if err != nil {
//		return err
//	}
//	d, err := dialect.Lookup("postgres")
//	if err != nil {
//		return err
//	}
//	stmts, err := compiler.Compile(req, d, compiler.Options{})
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/overpassql/pkg/dialect"
	"github.com/leapstack-labs/overpassql/pkg/format"
	"github.com/leapstack-labs/overpassql/pkg/parser"
)

const (
	// DefaultTimeout is the statement timeout in seconds when the
	// metadata clause omits one.
	DefaultTimeout = 160
	// MaxTimeout caps the timeout a query may request.
	MaxTimeout = 500

	// DefaultSRID is the coordinate system of query literals.
	DefaultSRID = 4326
)

// Options configure one compilation pass.
type Options struct {
	// SRID is the spatial reference of the backend's geometry columns.
	// Zero means WGS84 (4326).
	SRID int
	// Logger receives statement-level debug events. Nil discards them.
	Logger *slog.Logger
}

// Compile lowers req into SQL statements for the given dialect. The
// result holds one statement per output statement of the request,
// preceded by whatever setup the dialect requires (a timeout setting,
// temporary-table definitions). Compilation is atomic: any error
// yields no SQL at all.
func Compile(req *parser.Request, d *dialect.Descriptor, opts Options) ([]string, error) {
	c := &compiler{
		dialect: d,
		srid:    opts.SRID,
		log:     opts.Logger,
		env:     newEnv(),
		used:    make(map[string]bool),
	}
	if c.srid == 0 {
		c.srid = DefaultSRID
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c.compile(req)
}

// compiler holds the state of one pass: the live environment, the
// fragments compiled so far, and the statements already assembled.
type compiler struct {
	dialect *dialect.Descriptor
	srid    int
	log     *slog.Logger

	env       *env
	fragments []format.Fragment
	out       []string
	used      map[string]bool
	counter   int
}

func (c *compiler) compile(req *parser.Request) ([]string, error) {
	if stmt, ok := c.dialect.StatementTimeout(timeoutMillis(req.Metadata)); ok {
		c.out = append(c.out, stmt)
	}
	for _, stmt := range req.Statements {
		if e, ok := stmt.(*parser.Emit); ok {
			if err := c.compileEmit(e); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return c.out, nil
}

// compileStatement lowers one set-producing statement, records its
// fragment, and binds the result into the current environment.
func (c *compiler) compileStatement(stmt parser.Statement) (binding, error) {
	var (
		res    binding
		assign string
		err    error
	)
	switch s := stmt.(type) {
	case *parser.EntityQuery:
		res, err = c.compileEntity(s)
		assign = s.Assign
	case *parser.Traverse:
		res, err = c.compileTraverse(s)
		assign = s.Assign
	case *parser.Union:
		res, err = c.compileUnion(s)
		assign = s.Assign
	default:
		return binding{}, fmt.Errorf("unsupported statement %T", stmt)
	}
	if err != nil {
		return binding{}, err
	}
	if assign != "" {
		c.env.define(assign, res)
	} else {
		c.env.setDefault(res)
	}
	return res, nil
}

// compileUnion lowers each branch against a copy of the current
// environment, then combines the branch results deduplicated by
// (osm_type, id). Branch assignments surface only after the union
// closes; the default binding advances across branches so a traversal
// branch may consume its predecessor.
func (c *compiler) compileUnion(u *parser.Union) (binding, error) {
	outer := c.env
	def, defSet := outer.def, outer.defSet
	merged := make(map[string]binding)
	frags := make([]string, 0, len(u.Branches))

	for _, stmt := range u.Branches {
		be := outer.copy()
		be.def, be.defSet = def, defSet
		c.env = be

		res, err := c.compileStatement(stmt)
		if err != nil {
			c.env = outer
			return binding{}, err
		}
		frags = append(frags, res.frag)
		def, defSet = be.def, be.defSet
		for name, b := range be.bindings {
			if prev, ok := outer.bindings[name]; !ok || prev != b {
				merged[name] = b
			}
		}
	}
	c.env = outer
	for name, b := range merged {
		outer.define(name, b)
	}

	name := c.fragmentName(u.Assign)
	c.addFragment(name, unionBody(frags))
	return binding{frag: name, kind: parser.KindAny}, nil
}

// unionBody renders the combining SELECT over the branch fragments.
func unionBody(frags []string) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = "(SELECT * FROM " + f + ")"
	}
	return "SELECT DISTINCT ON(osm_type, id)\n    *\nFROM (\n    " +
		strings.Join(parts, " UNION\n    ") +
		"\n) AS t\nORDER BY\n    osm_type, id"
}

// fragmentName allocates a unique relation name. Assigned statements
// take their set name; a rebind gets a numbered variant so earlier
// fragments stay addressable.
func (c *compiler) fragmentName(assign string) string {
	var name string
	if assign == "" {
		name = fmt.Sprintf("_%d", c.counter)
		c.counter++
	} else {
		name = "_" + assign
		for n := 2; c.used[name]; n++ {
			name = fmt.Sprintf("_%s_%d", assign, n)
		}
	}
	c.used[name] = true
	return name
}

// addFragment records a compiled fragment. Temp-table dialects flush
// it to the statement list immediately; CTE dialects keep it for the
// next terminal.
func (c *compiler) addFragment(name, body string) {
	c.fragments = append(c.fragments, format.Fragment{Name: name, Body: body})
	if c.dialect.Strategy == dialect.StrategyTempTable {
		c.out = append(c.out, format.TempTable(name, body))
	}
	c.log.Debug("compiled fragment", "name", name)
}

// timeoutMillis computes the statement timeout in milliseconds from
// the metadata clause, applying the default and the cap.
func timeoutMillis(m *parser.Metadata) int64 {
	seconds := int64(DefaultTimeout)
	if m != nil && m.Timeout != nil {
		seconds = *m.Timeout
	}
	if seconds > MaxTimeout {
		seconds = MaxTimeout
	}
	return seconds * 1000
}
