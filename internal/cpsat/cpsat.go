package cpsat

import (
	"fmt"
	"strings"
)

// BoolVar identifies a 0/1 decision variable of a Model. Valid identifiers
// start at 1, so the zero value can be used as "no variable".
type BoolVar int32

// Term is a variable multiplied by an integer coefficient.
type Term struct {
	Var   BoolVar
	Coeff int
}

// Op is the relational operator of a linear constraint.
type Op int

const (
	Eq Op = iota
	LtEq
	GtEq
)

func (op Op) String() string {
	switch op {
	case Eq:
		return "="
	case LtEq:
		return "<="
	case GtEq:
		return ">="
	}
	return "?"
}

// LinearConstraint states that the weighted sum of its terms relates to Bound
// through Op.
type LinearConstraint struct {
	Terms []Term
	Op    Op
	Bound int
}

// Model is a pseudo-boolean optimization instance: boolean variables, linear
// constraints over them and a linear objective to be minimized.
type Model struct {
	Variables   int32 // variable identifiers range over 1..Variables
	Constraints []LinearConstraint
	Objective   []Term // minimized; empty means pure satisfaction
}

// NewBoolVar registers a fresh variable and returns its identifier.
func (m *Model) NewBoolVar() BoolVar {
	m.Variables++
	return BoolVar(m.Variables)
}

// Add appends a constraint to the model. Constraints with no terms are
// ignored: they are either trivially true or the caller's bug, and neither
// belongs in the solver input.
func (m *Model) Add(constraint LinearConstraint) {
	if len(constraint.Terms) == 0 {
		return
	}
	m.Constraints = append(m.Constraints, constraint)
}

// AddExactlyOne constrains the given variables so exactly one of them is true.
func (m *Model) AddExactlyOne(vars []BoolVar) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coeff: 1}
	}
	m.Add(LinearConstraint{Terms: terms, Op: Eq, Bound: 1})
}

// AddSumEqualsVar constrains sum(vars) == target. An empty sum pins target
// to false, which keeps equality-defined indicators sound even when no
// candidate variable exists.
func (m *Model) AddSumEqualsVar(vars []BoolVar, target BoolVar) {
	terms := make([]Term, 0, len(vars)+1)
	terms = append(terms, Term{Var: target, Coeff: 1})
	for _, v := range vars {
		terms = append(terms, Term{Var: v, Coeff: -1})
	}
	m.Add(LinearConstraint{Terms: terms, Op: Eq, Bound: 0})
}

// ToOPB renders the model in the OPB pseudo-boolean competition format, the
// same role DIMACS-CNF plays for plain SAT instances. Useful for dumping a
// built model to disk for inspection or for feeding external PB solvers.
func (m Model) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", m.Variables, len(m.Constraints))

	if len(m.Objective) > 0 {
		builder.WriteString("min:")
		for _, term := range m.Objective {
			fmt.Fprintf(&builder, " %+d x%d", term.Coeff, term.Var)
		}
		builder.WriteString(" ;\n")
	}

	for _, constraint := range m.Constraints {
		// OPB only admits >= and =, so a <= constraint is negated termwise.
		terms, op, bound := constraint.Terms, constraint.Op, constraint.Bound
		if op == LtEq {
			negated := make([]Term, len(terms))
			for i, term := range terms {
				negated[i] = Term{Var: term.Var, Coeff: -term.Coeff}
			}
			terms, op, bound = negated, GtEq, -bound
		}
		for _, term := range terms {
			fmt.Fprintf(&builder, "%+d x%d ", term.Coeff, term.Var)
		}
		fmt.Fprintf(&builder, "%v %d ;\n", op, bound)
	}

	return builder.String()
}
