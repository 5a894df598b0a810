package cpsat

import "time"

// Status reports how a solve run ended.
type Status int

const (
	// Unknown means no solution was found within the budget and
	// infeasibility was not proven either.
	Unknown Status = iota
	// Optimal means the returned solution is proven cost-minimal.
	Optimal
	// Feasible means a solution was found but the search stopped (usually on
	// the time budget) before proving optimality.
	Feasible
	// Infeasible means the constraints admit no solution at all.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	}
	return "UNKNOWN"
}

// Params is the per-run search budget.
type Params struct {
	TimeLimit time.Duration // zero means no limit
	Workers   int           // parallel search workers hint; backends may ignore it
}

// Solution is the outcome of a single solve run. Values is indexed by
// variable identifier (entry 0 is unused) and is only populated for the
// Optimal and Feasible statuses. Objective carries the realized objective in
// the model's own integer domain.
type Solution struct {
	Status    Status
	Values    []bool
	Objective int
}

// Solver is a pluggable optimization backend. A Solve call is blocking and
// self-contained: it must not retain the model and must be safe to invoke
// from concurrent goroutines with independent models.
type Solver interface {
	Solve(model Model, params Params) (Solution, error)
}
