package cpsat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGophersatOptimalAssignment(t *testing.T) {
	solver := NewGophersatSolver()

	// Two items, two options: item 1 is cheaper on option A, item 2 on B.
	model := Model{}
	x1a := model.NewBoolVar()
	x1b := model.NewBoolVar()
	x2a := model.NewBoolVar()
	x2b := model.NewBoolVar()
	model.AddExactlyOne([]BoolVar{x1a, x1b})
	model.AddExactlyOne([]BoolVar{x2a, x2b})
	model.Objective = []Term{
		{Var: x1a, Coeff: 10}, {Var: x1b, Coeff: 30},
		{Var: x2a, Coeff: 40}, {Var: x2b, Coeff: 20},
	}

	solution, err := solver.Solve(model, Params{})

	assert.Nil(t, err)
	assert.Equal(t, Optimal, solution.Status)
	assert.Equal(t, 30, solution.Objective)
	assert.True(t, solution.Values[x1a])
	assert.False(t, solution.Values[x1b])
	assert.False(t, solution.Values[x2a])
	assert.True(t, solution.Values[x2b])
}

func TestGophersatInfeasible(t *testing.T) {
	solver := NewGophersatSolver()

	// x + y = 1 and x + y = 2 cannot both hold.
	model := Model{}
	x := model.NewBoolVar()
	y := model.NewBoolVar()
	model.AddExactlyOne([]BoolVar{x, y})
	model.Add(LinearConstraint{
		Terms: []Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}},
		Op:    Eq,
		Bound: 2,
	})
	model.Objective = []Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}

	solution, err := solver.Solve(model, Params{})

	assert.Nil(t, err)
	assert.Equal(t, Infeasible, solution.Status)
	assert.Nil(t, solution.Values)
}

func TestGophersatRandomInstances(t *testing.T) {
	solver := NewGophersatSolver()

	for range 10 {
		model := GenerateAssignmentModel(5, 4)

		solution, err := solver.Solve(model, Params{TimeLimit: time.Minute})

		assert.Nil(t, err)
		assert.Equal(t, Optimal, solution.Status)
		assert.True(t, AssertSolution(model, solution))
	}
}

func TestGophersatTimeLimit(t *testing.T) {
	solver := NewGophersatSolver()

	// A nanosecond budget expires at the first scheduling point. Depending
	// on how far the search got by then, the run surfaces its best incumbent
	// as Feasible, finishes outright as Optimal, or reports Unknown when no
	// model arrived yet. It must never error and never hand back an invalid
	// or inconsistent model.
	for range 10 {
		model := GenerateAssignmentModel(10, 6)

		solution, err := solver.Solve(model, Params{TimeLimit: time.Nanosecond})

		assert.Nil(t, err)
		switch solution.Status {
		case Optimal, Feasible:
			assert.True(t, AssertSolution(model, solution))
		default:
			assert.Equal(t, Unknown, solution.Status)
			assert.Nil(t, solution.Values)
		}
	}
}

func TestGophersatEqualityIndicator(t *testing.T) {
	solver := NewGophersatSolver()

	// indicator == x + y, with x forced true: the indicator must follow.
	model := Model{}
	x := model.NewBoolVar()
	y := model.NewBoolVar()
	indicator := model.NewBoolVar()
	model.AddSumEqualsVar([]BoolVar{x, y}, indicator)
	model.Add(LinearConstraint{Terms: []Term{{Var: x, Coeff: 1}}, Op: Eq, Bound: 1})
	model.Add(LinearConstraint{Terms: []Term{{Var: y, Coeff: 1}}, Op: Eq, Bound: 0})
	// Reward turning the indicator off so the equality is the only thing
	// keeping it on.
	model.Objective = []Term{{Var: indicator, Coeff: 1}}

	solution, err := solver.Solve(model, Params{})

	assert.Nil(t, err)
	assert.Equal(t, Optimal, solution.Status)
	assert.True(t, solution.Values[indicator])
	assert.Equal(t, 1, solution.Objective)
}
