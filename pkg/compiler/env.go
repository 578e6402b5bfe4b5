package compiler

import "github.com/leapstack-labs/overpassql/pkg/parser"

// binding records what a set name points at: the fragment holding its
// rows and the entity kind of the statement that produced it.
type binding struct {
	frag string
	kind parser.Kind
}

// env tracks named result sets during one compilation pass. Statement
// order is the sole determinant of visibility: a name resolves only
// after a statement assigned it, and re-assignment replaces the prior
// value.
type env struct {
	bindings map[string]binding
	def      binding
	defSet   bool
}

func newEnv() *env {
	return &env{bindings: make(map[string]binding)}
}

func (e *env) define(name string, b binding) {
	e.bindings[name] = b
}

func (e *env) resolve(name string) (binding, error) {
	b, ok := e.bindings[name]
	if !ok {
		return binding{}, &UnboundNameError{Name: name}
	}
	return b, nil
}

// setDefault records the result of an unassigned statement.
func (e *env) setDefault(b binding) {
	e.def = b
	e.defSet = true
}

func (e *env) defaultBinding() (binding, error) {
	if !e.defSet {
		return binding{}, &UnboundNameError{}
	}
	return e.def, nil
}

// source resolves an optional set reference, falling back to the
// default binding when name is empty.
func (e *env) source(name string) (binding, error) {
	if name == "" {
		return e.defaultBinding()
	}
	return e.resolve(name)
}

// copy returns an independent environment with the same bindings.
// Union branches compile against copies so their assignments stay
// invisible to sibling branches.
func (e *env) copy() *env {
	c := &env{
		bindings: make(map[string]binding, len(e.bindings)),
		def:      e.def,
		defSet:   e.defSet,
	}
	for name, b := range e.bindings {
		c.bindings[name] = b
	}
	return c
}
