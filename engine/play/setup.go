package play

import "fmt"

// SetupStore lazily compiles and caches named reusable conditions
// (spec.md §4.5 "Setup references"). A RawCond is only compiled to an
// Expr the first time it's referenced; an in-flight id stack guards
// against a setup referencing itself, directly or transitively (spec.md
// §9 "Recursion guards").
type SetupStore struct {
	raw      map[string]RawCond
	compiled map[string]Expr
	inFlight map[string]bool
	reg      *Registry
}

func NewSetupStore(raw map[string]RawCond, reg *Registry) *SetupStore {
	return &SetupStore{
		raw:      raw,
		compiled: map[string]Expr{},
		inFlight: map[string]bool{},
		reg:      reg,
	}
}

// Resolve returns the compiled Expr for id, compiling and caching it on
// first use. Compilation recurses through Compile, so a setup_ref chain
// that cycles back to an in-flight id is caught here rather than
// overflowing the stack.
func (s *SetupStore) Resolve(id string) (Expr, error) {
	if e, ok := s.compiled[id]; ok {
		return e, nil
	}
	if s.inFlight[id] {
		return nil, &CompileError{Path: id, Message: "setup_ref cycle detected"}
	}
	r, ok := s.raw[id]
	if !ok {
		return nil, &CompileError{Path: id, Message: fmt.Sprintf("unknown setup_ref %q", id)}
	}
	s.inFlight[id] = true
	defer delete(s.inFlight, id)

	e, err := Compile(r, s.reg)
	if err != nil {
		return nil, err
	}
	s.compiled[id] = e
	return e, nil
}
