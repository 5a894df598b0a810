package model

import "printalloc/internal/cpsat"

// Allocator turns a validated ProblemData into an OptimizationResult and can
// audit a result against the business rules it was built from.
type Allocator interface {
	// Solve builds the constraint model, runs the solving backend once and
	// extracts typed assignments. Validation and build failures return an
	// error; INFEASIBLE and UNKNOWN outcomes are regular results.
	Solve(data ProblemData) (OptimizationResult, error)

	// Verify re-checks a solved result against the data: assignment
	// cardinality, kit cohesion, brand fairness, capacities and the
	// objective-versus-cost reconciliation.
	Verify(data ProblemData, result OptimizationResult) bool
}

// NewAllocator returns the CP-SAT based Allocator implementation backed by
// the given solver.
func NewAllocator(solver cpsat.Solver) Allocator {
	return &cpsatAllocator{solver: solver}
}
