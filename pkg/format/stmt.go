package format

import "strings"

// ---------- Select ----------

// Select is a single SELECT statement under assembly. Fields hold
// already-rendered SQL text; String applies the layout.
type Select struct {
	// Distinct is the full distinct clause, e.g. "DISTINCT ON(osm_type, id)".
	Distinct string
	Columns  []string
	From     string
	// Joins are rendered below the FROM table, one per line.
	Joins []string
	// Where clauses are joined with AND. A clause may span multiple
	// lines; continuation lines keep their relative indentation.
	Where   []string
	OrderBy string
}

func (s Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT")
	if s.Distinct != "" {
		b.WriteString(" ")
		b.WriteString(s.Distinct)
	}
	b.WriteString("\n    ")
	b.WriteString(strings.Join(s.Columns, ",\n    "))
	b.WriteString("\nFROM\n    ")
	b.WriteString(s.From)
	for _, join := range s.Joins {
		b.WriteString("\n")
		b.WriteString(Indent(join, 8))
	}
	if len(s.Where) > 0 {
		clauses := make([]string, len(s.Where))
		for i, clause := range s.Where {
			clauses[i] = IndentTail(clause, 4)
		}
		b.WriteString("\nWHERE\n    ")
		b.WriteString(strings.Join(clauses, " AND\n    "))
	}
	if s.OrderBy != "" {
		b.WriteString("\nORDER BY\n    ")
		b.WriteString(s.OrderBy)
	}
	return b.String()
}

// ---------- Scripts ----------

// Fragment is a named intermediate result. Name carries the leading
// underscore the compiler assigns.
type Fragment struct {
	Name string
	Body string
}

// With renders fragments as a CTE chain followed by the terminal
// statement. The result is a complete statement ending in ";".
func With(fragments []Fragment, terminal string) string {
	if len(fragments) == 0 {
		return terminal + "\n;"
	}
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Name + " AS (\n" + Indent(f.Body, 4) + "\n)"
	}
	return "WITH\n" + strings.Join(parts, ",\n") + "\n" + terminal + "\n;"
}

// TempTable renders a fragment as a temporary table definition for
// backends that materialize intermediate results between statements.
func TempTable(name, body string) string {
	return "CREATE TEMP TABLE " + name + " AS\n" + body + "\n;"
}
