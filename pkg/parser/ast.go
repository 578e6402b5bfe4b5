package parser

import (
	"strconv"
	"strings"
)

// Request is the root of a parsed query: an optional metadata clause
// followed by an ordered statement list.
type Request struct {
	Metadata   *Metadata
	Statements []Statement
}

// Metadata represents the leading [out:...][timeout:...] clause.
type Metadata struct {
	Format  string
	Timeout *int64 // seconds; nil when the clause omits it
}

// Statement represents one statement of a request.
type Statement interface {
	stmtNode()
	String() string
}

// Filter represents a non-tag predicate on an entity query.
type Filter interface {
	filterNode()
	String() string
}

// ---------- Statement Types ----------

// Kind is an entity kind keyword.
type Kind string

// Entity kind constants. KindAny covers nodes, ways, and relations.
const (
	KindNode     Kind = "node"
	KindWay      Kind = "way"
	KindRelation Kind = "relation"
	KindArea     Kind = "area"
	KindAny      Kind = "nwr"
)

// EntityQuery selects entities of one kind, optionally restricted to a
// bound input set and narrowed by tag selectors and filters.
type EntityQuery struct {
	Kind      Kind
	Source    string // input set name; empty when reading the full view
	Selectors []*Selector
	Filters   []Filter
	Assign    string // result set name; empty for the default binding
}

func (*EntityQuery) stmtNode() {}

// Direction is a traversal operator.
type Direction string

// Traversal operators. Single angles resolve one structural level,
// doubled angles resolve the transitive closure.
const (
	DirParents     Direction = "<"
	DirParentsAll  Direction = "<<"
	DirChildren    Direction = ">"
	DirChildrenAll Direction = ">>"
)

// Traverse resolves membership relationships of an input set.
type Traverse struct {
	Source string // input set name; empty means the default binding
	Dir    Direction
	Assign string
}

func (*Traverse) stmtNode() {}

// Union combines its branch results by set union.
type Union struct {
	Branches []Statement
	Assign   string
}

func (*Union) stmtNode() {}

// GeomMode selects the geometry expression of an output statement.
type GeomMode string

// Geometry modifiers. GeomNone omits the geometry column.
const (
	GeomNone   GeomMode = ""
	GeomFull   GeomMode = "geom"
	GeomCenter GeomMode = "center"
	GeomBBox   GeomMode = "bb"
)

// Detail selects the column set of an output statement. Levels are
// cumulative: each adds columns to the previous one.
type Detail string

// Detail levels, in ascending order of verbosity.
const (
	DetailIDs  Detail = "ids"
	DetailSkel Detail = "skel"
	DetailBody Detail = "body"
	DetailTags Detail = "tags"
	DetailMeta Detail = "meta"
)

// Emit produces one terminal SELECT over the source set.
type Emit struct {
	Source string // input set name; empty means the default binding
	Geom   GeomMode
	Detail Detail
}

func (*Emit) stmtNode() {}

// ---------- Selector Types ----------

// CompareOp is a tag comparison operator.
type CompareOp string

// Comparison operators usable in selectors.
const (
	OpEquals     CompareOp = "="
	OpNotEquals  CompareOp = "!="
	OpMatches    CompareOp = "~"
	OpNotMatches CompareOp = "!~"
)

// Selector is a tag predicate. With a nil Value it tests key presence;
// Not inverts the presence test. With a Value it compares under Op.
type Selector struct {
	Key   string
	Not   bool
	Op    CompareOp
	Value *Value
}

// Value is a comparison operand. Raw holds the lexical form exactly as
// written, so numbers survive serialization unchanged.
type Value struct {
	Raw      string
	IsNumber bool
}

// ---------- Filter Types ----------

// BBoxFilter bounds results to a box. Coordinates keep their lexical
// form in source order: south, west, north, east.
type BBoxFilter struct {
	South string
	West  string
	North string
	East  string
}

func (*BBoxFilter) filterNode() {}

// PolyFilter bounds results to a polygon given as a "lat lon ..."
// coordinate string.
type PolyFilter struct {
	Points string
}

func (*PolyFilter) filterNode() {}

// IDFilter matches a single entity identifier.
type IDFilter struct {
	ID string
}

func (*IDFilter) filterNode() {}

// IDListFilter matches any identifier in the list.
type IDListFilter struct {
	IDs []string
}

func (*IDListFilter) filterNode() {}

// AreaFilter bounds results to the geometry of a bound area set.
type AreaFilter struct {
	Name string
}

func (*AreaFilter) filterNode() {}

// AroundFilter bounds results to a radius in meters around a bound set.
type AroundFilter struct {
	Name   string
	Radius string
}

func (*AroundFilter) filterNode() {}

// ---------- Serialization ----------

// String renders the request in canonical form. Parsing the result
// yields an AST equal to the receiver: values are re-quoted, numeric
// lexemes pass through unchanged, and defaulted modifiers are omitted.
func (r *Request) String() string {
	var sb strings.Builder
	if r.Metadata != nil {
		sb.WriteString(r.Metadata.String())
	}
	for _, stmt := range r.Statements {
		sb.WriteString(stmt.String())
	}
	return sb.String()
}

func (m *Metadata) String() string {
	var sb strings.Builder
	sb.WriteString("[out:")
	sb.WriteString(m.Format)
	sb.WriteString("]")
	if m.Timeout != nil {
		sb.WriteString("[timeout:")
		sb.WriteString(strconv.FormatInt(*m.Timeout, 10))
		sb.WriteString("]")
	}
	sb.WriteString(";")
	return sb.String()
}

func (q *EntityQuery) String() string {
	var sb strings.Builder
	sb.WriteString(string(q.Kind))
	if q.Source != "" {
		sb.WriteString(".")
		sb.WriteString(q.Source)
	}
	for _, sel := range q.Selectors {
		sb.WriteString(sel.String())
	}
	for _, f := range q.Filters {
		sb.WriteString(f.String())
	}
	writeAssign(&sb, q.Assign)
	sb.WriteString(";")
	return sb.String()
}

func (t *Traverse) String() string {
	var sb strings.Builder
	if t.Source != "" {
		sb.WriteString(".")
		sb.WriteString(t.Source)
		sb.WriteString(" ")
	}
	sb.WriteString(string(t.Dir))
	writeAssign(&sb, t.Assign)
	sb.WriteString(";")
	return sb.String()
}

func (u *Union) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for _, branch := range u.Branches {
		sb.WriteString(branch.String())
	}
	sb.WriteString(")")
	writeAssign(&sb, u.Assign)
	sb.WriteString(";")
	return sb.String()
}

func (e *Emit) String() string {
	var sb strings.Builder
	if e.Source != "" {
		sb.WriteString(".")
		sb.WriteString(e.Source)
		sb.WriteString(" ")
	}
	sb.WriteString("out")
	if e.Geom != GeomNone {
		sb.WriteString(" ")
		sb.WriteString(string(e.Geom))
	}
	if e.Detail != DetailBody {
		sb.WriteString(" ")
		sb.WriteString(string(e.Detail))
	}
	sb.WriteString(";")
	return sb.String()
}

func (s *Selector) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	if s.Not {
		sb.WriteString("!")
	}
	sb.WriteString(quoteValue(s.Key))
	if s.Value != nil {
		sb.WriteString(string(s.Op))
		if s.Value.IsNumber {
			sb.WriteString(s.Value.Raw)
		} else {
			sb.WriteString(quoteValue(s.Value.Raw))
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func (f *BBoxFilter) String() string {
	return "(" + f.South + "," + f.West + "," + f.North + "," + f.East + ")"
}

func (f *PolyFilter) String() string {
	return "(poly:" + quoteValue(f.Points) + ")"
}

func (f *IDFilter) String() string {
	return "(" + f.ID + ")"
}

func (f *IDListFilter) String() string {
	return "(id:" + strings.Join(f.IDs, ",") + ")"
}

func (f *AreaFilter) String() string {
	return "(area." + f.Name + ")"
}

func (f *AroundFilter) String() string {
	return "(around." + f.Name + ":" + f.Radius + ")"
}

func writeAssign(sb *strings.Builder, name string) {
	if name != "" {
		sb.WriteString("->.")
		sb.WriteString(name)
	}
}

// quoteValue renders s as a double-quoted literal, escaping backslashes
// and embedded double quotes.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
