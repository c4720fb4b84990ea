package smt

import (
	"context"
	"errors"
	"fmt"
)

// ErrSolverUnavailable means the requested backend cannot be used here.
var ErrSolverUnavailable = errors.New("solver unavailable")

// Status is the outcome of a satisfiability check.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// Solver decides a conjunction of assertions over decision variables.
type Solver interface {
	Assert(bs ...Bool)
	Check(ctx context.Context) (Status, error)
	// Model returns the satisfying assignment of the last Sat check.
	Model() (Model, error)
}

// Backend creates independent solvers. A backend must be safe for
// concurrent NewSolver calls; each solver is used by one goroutine.
type Backend interface {
	Name() string
	NewSolver() Solver
}

// Backend names accepted by Lookup.
const (
	BackendSearch = "search"
	BackendSMTLib = "smtlib"
)

// Lookup resolves a backend by name. binary is the external solver
// executable for BackendSMTLib; empty means "z3".
func Lookup(name, binary string) (Backend, error) {
	switch name {
	case "", BackendSearch:
		return Search{}, nil
	case BackendSMTLib, "z3":
		b, err := NewSMTLib(binary)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("backend %q: %w", name, ErrSolverUnavailable)
}

var errNoModel = errors.New("no model: last check was not sat")
