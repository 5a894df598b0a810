package cpsat

import (
	"fmt"
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"google.golang.org/protobuf/proto"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
)

type ortoolsSolver struct{}

// NewOrtoolsSolver returns a backend built on the OR-Tools CP-SAT engine.
// It honors both the time budget and the workers hint, and can return a
// Feasible incumbent when the budget runs out before the optimality proof.
func NewOrtoolsSolver() Solver {
	return &ortoolsSolver{}
}

func (os *ortoolsSolver) Solve(model Model, params Params) (Solution, error) {
	builder := cpmodel.NewCpModelBuilder()

	vars := make([]cpmodel.BoolVar, model.Variables+1)
	for i := int32(1); i <= model.Variables; i++ {
		vars[i] = builder.NewBoolVar().WithName(fmt.Sprintf("x%d", i))
	}

	for _, constraint := range model.Constraints {
		expr := cpmodel.NewLinearExpr()
		for _, term := range constraint.Terms {
			expr.AddTerm(vars[term.Var], int64(term.Coeff))
		}
		bound := cpmodel.NewConstant(int64(constraint.Bound))
		switch constraint.Op {
		case Eq:
			builder.AddEquality(expr, bound)
		case LtEq:
			builder.AddLessOrEqual(expr, bound)
		case GtEq:
			builder.AddGreaterOrEqual(expr, bound)
		default:
			return Solution{}, fmt.Errorf("unsupported constraint operator: %v", constraint.Op)
		}
	}

	if len(model.Objective) > 0 {
		objective := cpmodel.NewLinearExpr()
		for _, term := range model.Objective {
			objective.AddTerm(vars[term.Var], int64(term.Coeff))
		}
		builder.Minimize(objective)
	}

	m, err := builder.Model()
	if err != nil {
		return Solution{}, fmt.Errorf("cannot instantiate CP model: %w", err)
	}

	satParams := &sppb.SatParameters{}
	if params.TimeLimit > 0 {
		satParams.MaxTimeInSeconds = proto.Float64(params.TimeLimit.Seconds())
	}
	if params.Workers > 0 {
		satParams.NumSearchWorkers = proto.Int32(int32(params.Workers))
	}

	response, err := cpmodel.SolveCpModelWithParameters(m, satParams)
	if err != nil {
		return Solution{}, fmt.Errorf("CP-SAT solve failed: %w", err)
	}

	var status Status
	switch response.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL:
		status = Optimal
	case cmpb.CpSolverStatus_FEASIBLE:
		status = Feasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		status = Infeasible
	default:
		status = Unknown
	}
	if status != Optimal && status != Feasible {
		return Solution{Status: status}, nil
	}

	values := make([]bool, model.Variables+1)
	for i := int32(1); i <= model.Variables; i++ {
		values[i] = cpmodel.SolutionBooleanValue(response, vars[i])
	}
	return Solution{
		Status:    status,
		Values:    values,
		Objective: int(math.Round(response.GetObjectiveValue())),
	}, nil
}
