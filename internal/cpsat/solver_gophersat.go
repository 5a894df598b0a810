package cpsat

import (
	"fmt"
	"time"

	"github.com/crillab/gophersat/solver"
)

type gophersatSolver struct{}

// NewGophersatSolver returns a pure-Go backend built on gophersat's
// pseudo-boolean engine. Improving incumbents are observed while the search
// runs, so exceeding the time budget surfaces the best solution found so far
// as Feasible; Unknown is returned only when the budget expires before any
// model arrived. The workers hint is ignored (single search worker).
func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (gs *gophersatSolver) Solve(model Model, params Params) (Solution, error) {
	constrs := make([]solver.PBConstr, 0, 2*len(model.Constraints))
	for _, constraint := range model.Constraints {
		// gophersat's constructors normalize negative weights by rewriting
		// the slices in place, so every call gets its own copy.
		switch constraint.Op {
		case Eq:
			lits, weights := splitTerms(constraint.Terms)
			constrs = append(constrs, solver.Eq(lits, weights, constraint.Bound)...)
		case LtEq:
			lits, weights := splitTerms(constraint.Terms)
			constrs = append(constrs, solver.LtEq(lits, weights, constraint.Bound))
		case GtEq:
			lits, weights := splitTerms(constraint.Terms)
			constrs = append(constrs, solver.GtEq(lits, weights, constraint.Bound))
		default:
			return Solution{}, fmt.Errorf("unsupported constraint operator: %v", constraint.Op)
		}
	}

	problem := solver.ParsePBConstrs(constrs)
	if len(model.Objective) > 0 {
		lits := make([]solver.Lit, len(model.Objective))
		weights := make([]int, len(model.Objective))
		for i, term := range model.Objective {
			lits[i] = solver.IntToLit(int32(term.Var))
			weights[i] = term.Coeff
		}
		problem.SetCostFunc(lits, weights)
	}
	s := solver.New(problem)

	// Optimal publishes every improving model on the results channel while
	// the search runs and returns the final verdict once done. The stop
	// channel is accepted but not acted upon by this engine version, so a
	// timed-out search keeps running until it finishes on its own; the
	// drain below keeps its channel sends from blocking forever.
	results := make(chan solver.Result)
	verdicts := make(chan solver.Result, 1)
	stop := make(chan struct{})
	go func() {
		verdicts <- s.Optimal(results, stop)
	}()

	var timeout <-chan time.Time
	if params.TimeLimit > 0 {
		timeout = time.After(params.TimeLimit)
	}

	var incumbent Solution
	haveIncumbent := false
	for {
		select {
		case res, running := <-results:
			if !running {
				return gs.verdictSolution(model, <-verdicts, incumbent, haveIncumbent), nil
			}
			if res.Status == solver.Sat {
				incumbent = resultSolution(model, Feasible, res)
				haveIncumbent = true
			}
		case <-timeout:
			close(stop)
			go func() {
				for range results {
				}
			}()
			if haveIncumbent {
				return incumbent, nil
			}
			return Solution{Status: Unknown}, nil
		}
	}
}

// verdictSolution maps Optimal's final verdict: Sat means the last model is
// proven cost-minimal, Unsat means the hard constraints admit no model at
// all, and a premature stop falls back to the best incumbent seen.
func (gs *gophersatSolver) verdictSolution(model Model, verdict solver.Result, incumbent Solution, haveIncumbent bool) Solution {
	switch verdict.Status {
	case solver.Sat:
		return resultSolution(model, Optimal, verdict)
	case solver.Unsat:
		return Solution{Status: Infeasible}
	}
	if haveIncumbent {
		return incumbent
	}
	return Solution{Status: Unknown}
}

// resultSolution converts a gophersat Result. Its Model slice binds the basic
// solver's variables in order: Model[i] holds the value of variable i+1.
func resultSolution(model Model, status Status, res solver.Result) Solution {
	values := make([]bool, model.Variables+1)
	for i, binding := range res.Model {
		if v := i + 1; v <= int(model.Variables) {
			values[v] = binding
		}
	}
	return Solution{Status: status, Values: values, Objective: res.Weight}
}

func splitTerms(terms []Term) (lits []int, weights []int) {
	lits = make([]int, len(terms))
	weights = make([]int, len(terms))
	for i, term := range terms {
		lits[i] = int(term.Var)
		weights[i] = term.Coeff
	}
	return lits, weights
}
