package cpsat

import "math/rand/v2"

// GenerateAssignmentModel builds a random feasible instance shaped like an
// assignment problem: every one of `items` items picks exactly one of
// `options` options, each pick has a random positive cost, and each option
// may host every item. Used by solver tests.
func GenerateAssignmentModel(items, options int) Model {
	model := Model{}
	vars := make([][]BoolVar, items)
	for i := range vars {
		vars[i] = make([]BoolVar, options)
		for j := range vars[i] {
			vars[i][j] = model.NewBoolVar()
			model.Objective = append(model.Objective, Term{
				Var:   vars[i][j],
				Coeff: rand.IntN(100) + 1,
			})
		}
		model.AddExactlyOne(vars[i])
	}
	return model
}

// AssertSolution reports whether the solution satisfies every constraint of
// the model and whether its objective matches the assignment's cost.
func AssertSolution(model Model, solution Solution) bool {
	if len(solution.Values) != int(model.Variables)+1 {
		return false
	}

	for _, constraint := range model.Constraints {
		sum := 0
		for _, term := range constraint.Terms {
			if solution.Values[term.Var] {
				sum += term.Coeff
			}
		}
		switch constraint.Op {
		case Eq:
			if sum != constraint.Bound {
				return false
			}
		case LtEq:
			if sum > constraint.Bound {
				return false
			}
		case GtEq:
			if sum < constraint.Bound {
				return false
			}
		}
	}

	cost := 0
	for _, term := range model.Objective {
		if solution.Values[term.Var] {
			cost += term.Coeff
		}
	}
	return cost == solution.Objective
}
