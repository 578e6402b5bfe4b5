package compiler

import "fmt"

// UnboundNameError reports a reference to a set that no earlier
// statement assigned. An empty Name stands for the default set.
type UnboundNameError struct {
	Name string
}

func (e *UnboundNameError) Error() string {
	if e.Name == "" {
		return ErrUnboundDefault
	}
	return fmt.Sprintf(ErrUnboundName, e.Name)
}

// FilterError reports a filter that cannot apply in its context, such
// as an area filter naming a set that no area query produced.
type FilterError struct {
	Filter string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf(ErrFilter, e.Filter, e.Reason)
}

// Common error messages
const (
	ErrUnboundName    = "unbound set %q: no earlier statement assigned it"
	ErrUnboundDefault = "no default result set: no unassigned statement has run yet"
	ErrFilter         = "cannot apply %s filter: %s"
)
