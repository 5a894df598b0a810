package model

import (
	"testing"

	"printalloc/internal/cpsat"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func solve(t *testing.T, data ProblemData) OptimizationResult {
	t.Helper()
	result, err := NewAllocator(cpsat.NewGophersatSolver()).Solve(data)
	assert.NoError(t, err)
	return result
}

func supplierOf(result OptimizationResult, bookID string) string {
	for _, assignment := range result.Assignments {
		if assignment.BookID == bookID {
			return assignment.SupplierID
		}
	}
	return ""
}

// twoSupplierProblem builds a problem where s1 prices everything at cheap
// and s2 at expensive, over a single "offset" method.
func twoSupplierProblem(books []Book, cheap, expensive float64, capacity int) ProblemData {
	data := ProblemData{
		Books: books,
		Suppliers: []Supplier{
			{ID: "s1", Name: "Cheap", Capacities: map[string]int{"offset": capacity}},
			{ID: "s2", Name: "Expensive", Capacities: map[string]int{"offset": capacity}},
		},
		Config: DefaultConfig(),
	}
	for _, book := range books {
		data.Costs = append(data.Costs,
			Cost{BookID: book.ID, SupplierID: "s1", PrintingMethod: "offset", UnitCost: cheap},
			Cost{BookID: book.ID, SupplierID: "s2", PrintingMethod: "offset", UnitCost: expensive},
		)
	}
	return data
}

func simpleBook(id, brand string, volume int) Book {
	return Book{ID: id, Title: id, Brand: brand, ProductionVolume: volume, AvailablePrintingMethods: []string{"offset"}}
}

func TestSolveSingleBook(t *testing.T) {
	data := ProblemData{
		Books: []Book{simpleBook("b1", "acme", 100)},
		Suppliers: []Supplier{
			{ID: "s1", Name: "s1", Capacities: map[string]int{"offset": 500}},
		},
		Costs: []Cost{
			{BookID: "b1", SupplierID: "s1", PrintingMethod: "offset", UnitCost: 2.5},
		},
		Config: DefaultConfig(),
	}

	result := solve(t, data)

	assert.Equal(t, "OPTIMAL", result.Status)
	assert.Len(t, result.Assignments, 1)
	assert.Equal(t, Assignment{
		BookID:           "b1",
		SupplierID:       "s1",
		PrintingMethod:   "offset",
		ProductionVolume: 100,
		UnitCost:         2.5,
		TotalCost:        250,
	}, result.Assignments[0])
	assert.InDelta(t, 250.0, *result.ObjectiveValue, 0.001)
	assert.InDelta(t, 50.0, result.SupplierUtilization["s1"]["offset"], 0.001)
}

func TestSolvePicksCheapestViableAssignment(t *testing.T) {
	// Arrange
	data := validProblem()

	// Act
	result := solve(t, data)

	// Assert
	assert.Equal(t, "OPTIMAL", result.Status)
	assert.Len(t, result.Assignments, 3)
	assert.Equal(t, 3, result.TotalBooks)
	assert.Equal(t, 230, result.TotalVolume)

	// b1 is cheaper at s1 via offset; the kit books are cheaper at s2.
	assert.Equal(t, "s1", supplierOf(result, "b1"))
	assert.Equal(t, "s2", supplierOf(result, "b2"))
	assert.Equal(t, "s2", supplierOf(result, "b3"))

	expected := 100*2.5 + 50*2.8 + 80*2.7
	assert.InDelta(t, expected, *result.ObjectiveValue, 0.001)
	assert.InDelta(t, expected, result.TotalCost(), 0.001)

	// Every declared (supplier, method) pair reports a utilization entry;
	// s1's digital capacity goes unused and must read exactly 0.
	assert.InDelta(t, 20.0, result.SupplierUtilization["s1"]["offset"], 0.001)
	assert.Contains(t, result.SupplierUtilization["s1"], "digital")
	assert.Zero(t, result.SupplierUtilization["s1"]["digital"])
	assert.InDelta(t, 32.5, result.SupplierUtilization["s2"]["digital"], 0.001)
}

func TestSolveKitCohesion(t *testing.T) {
	// Splitting the kit would cost 10+10; cohesion forces both books to one
	// supplier for 10+50.
	data := ProblemData{
		Books: []Book{
			{ID: "b1", Title: "b1", Brand: "x", ProductionVolume: 10, AvailablePrintingMethods: []string{"offset"}, KitID: "k1"},
			{ID: "b2", Title: "b2", Brand: "x", ProductionVolume: 10, AvailablePrintingMethods: []string{"offset"}, KitID: "k1"},
		},
		Kits: []Kit{{ID: "k1", Name: "k1", BookIDs: []string{"b1", "b2"}}},
		Suppliers: []Supplier{
			{ID: "s1", Name: "s1", Capacities: map[string]int{"offset": 100}},
			{ID: "s2", Name: "s2", Capacities: map[string]int{"offset": 100}},
		},
		Costs: []Cost{
			{BookID: "b1", SupplierID: "s1", PrintingMethod: "offset", UnitCost: 1},
			{BookID: "b1", SupplierID: "s2", PrintingMethod: "offset", UnitCost: 5},
			{BookID: "b2", SupplierID: "s1", PrintingMethod: "offset", UnitCost: 5},
			{BookID: "b2", SupplierID: "s2", PrintingMethod: "offset", UnitCost: 1},
		},
		Config: DefaultConfig(),
	}

	result := solve(t, data)

	assert.Equal(t, "OPTIMAL", result.Status)
	assert.Equal(t, supplierOf(result, "b1"), supplierOf(result, "b2"))
	assert.InDelta(t, 60.0, *result.ObjectiveValue, 0.001)
}

func TestSolveBrandDiversification(t *testing.T) {
	// Three same-brand books, cap 2: one book must take the expensive
	// supplier even though the cheap one has room.
	data := twoSupplierProblem([]Book{
		simpleBook("b1", "acme", 10),
		simpleBook("b2", "acme", 10),
		simpleBook("b3", "acme", 10),
	}, 1.0, 2.0, 1000)
	data.Config.MaxItemsPerBrandPerSupplier = 2

	result := solve(t, data)

	assert.Equal(t, "OPTIMAL", result.Status)
	atCheap := lo.CountBy(result.Assignments, func(a Assignment) bool { return a.SupplierID == "s1" })
	assert.Equal(t, 2, atCheap)
	assert.InDelta(t, 40.0, *result.ObjectiveValue, 0.001)
}

func TestSolveBrandCapCountsKitsOnce(t *testing.T) {
	// A kit of two same-brand books plus two standalone books is three
	// items, not four, so everything still fits at the cheap supplier under
	// a cap of three.
	data := twoSupplierProblem([]Book{
		simpleBook("b1", "acme", 10),
		simpleBook("b2", "acme", 10),
		simpleBook("b3", "acme", 10),
		simpleBook("b4", "acme", 10),
	}, 1.0, 2.0, 1000)
	data.Books[0].KitID = "k1"
	data.Books[1].KitID = "k1"
	data.Kits = []Kit{{ID: "k1", Name: "k1", BookIDs: []string{"b1", "b2"}}}
	data.Config.MaxItemsPerBrandPerSupplier = 3

	result := solve(t, data)

	assert.Equal(t, "OPTIMAL", result.Status)
	for _, assignment := range result.Assignments {
		assert.Equal(t, "s1", assignment.SupplierID)
	}
	assert.InDelta(t, 40.0, *result.ObjectiveValue, 0.001)
}

func TestSolveBrandCapWithoutOverflowSupplier(t *testing.T) {
	// Five same-brand books, cap four, one supplier: no legal placement for
	// the fifth book exists.
	data := ProblemData{
		Books: []Book{
			simpleBook("b1", "acme", 10),
			simpleBook("b2", "acme", 10),
			simpleBook("b3", "acme", 10),
			simpleBook("b4", "acme", 10),
			simpleBook("b5", "acme", 10),
		},
		Suppliers: []Supplier{
			{ID: "s1", Name: "s1", Capacities: map[string]int{"offset": 1000}},
		},
		Config: DefaultConfig(),
	}
	for _, book := range data.Books {
		data.Costs = append(data.Costs, Cost{
			BookID: book.ID, SupplierID: "s1", PrintingMethod: "offset", UnitCost: 1,
		})
	}

	result := solve(t, data)

	assert.Equal(t, "INFEASIBLE", result.Status)
	assert.Empty(t, result.Assignments)
}

func TestSolveCapacitySplitsLoad(t *testing.T) {
	// Both books fit the cheap supplier only one at a time.
	data := twoSupplierProblem([]Book{
		simpleBook("b1", "acme", 60),
		simpleBook("b2", "other", 60),
	}, 1.0, 2.0, 100)

	result := solve(t, data)

	assert.Equal(t, "OPTIMAL", result.Status)
	assert.NotEqual(t, supplierOf(result, "b1"), supplierOf(result, "b2"))
	assert.InDelta(t, 180.0, *result.ObjectiveValue, 0.001)

	// One supplier runs at 60%, the other at 60% as well, both out of 100.
	assert.InDelta(t, 60.0, result.SupplierUtilization["s1"]["offset"], 0.001)
	assert.InDelta(t, 60.0, result.SupplierUtilization["s2"]["offset"], 0.001)
}

func TestSolveInfeasible(t *testing.T) {
	data := twoSupplierProblem([]Book{
		simpleBook("b1", "acme", 120),
	}, 1.0, 2.0, 100)

	result := solve(t, data)

	assert.Equal(t, "INFEASIBLE", result.Status)
	assert.Empty(t, result.Assignments)
	assert.Nil(t, result.ObjectiveValue)
	assert.Empty(t, result.SupplierUtilization)
}

func TestSolveRejectsUnassignableBook(t *testing.T) {
	data := twoSupplierProblem([]Book{simpleBook("b1", "acme", 10)}, 1.0, 2.0, 100)
	data.Books[0].AvailablePrintingMethods = []string{"digital"}
	data.Costs[0].PrintingMethod = "digital"
	data.Costs[1].PrintingMethod = "digital"

	_, err := NewAllocator(cpsat.NewGophersatSolver()).Solve(data)

	assert.ErrorContains(t, err, "b1")
}

func TestSymmetryBreakingPreservesOptimum(t *testing.T) {
	// Two interchangeable suppliers: breaking their symmetry must not change
	// the objective, only which of them carries the load.
	build := func(symmetry bool) ProblemData {
		data := twoSupplierProblem([]Book{
			simpleBook("b1", "acme", 30),
			simpleBook("b2", "other", 40),
			simpleBook("b3", "third", 50),
		}, 2.0, 2.0, 200)
		data.Config.EnableSymmetryBreaking = symmetry
		return data
	}

	with := solve(t, build(true))
	without := solve(t, build(false))

	assert.Equal(t, "OPTIMAL", with.Status)
	assert.Equal(t, "OPTIMAL", without.Status)
	assert.InDelta(t, *without.ObjectiveValue, *with.ObjectiveValue, 0.001)

	// With symmetry breaking the first supplier carries at least as much
	// volume as the second.
	volumeAt := func(result OptimizationResult, supplierID string) int {
		return lo.SumBy(result.Assignments, func(a Assignment) int {
			if a.SupplierID != supplierID {
				return 0
			}
			return a.ProductionVolume
		})
	}
	assert.GreaterOrEqual(t, volumeAt(with, "s1"), volumeAt(with, "s2"))
}

func TestBuildModelIsLazy(t *testing.T) {
	// Only priced triples get variables. With the default cap no brand
	// indicators are needed either, so the model has exactly one variable
	// per priced candidate.
	data := ProblemData{
		Books: []Book{
			simpleBook("b1", "acme", 10),
			simpleBook("b2", "acme", 10),
		},
		Suppliers: []Supplier{
			{ID: "s1", Name: "s1", Capacities: map[string]int{"offset": 100}},
			{ID: "s2", Name: "s2", Capacities: map[string]int{"offset": 100}},
		},
		Costs: []Cost{
			{BookID: "b1", SupplierID: "s1", PrintingMethod: "offset", UnitCost: 1},
			{BookID: "b1", SupplierID: "s2", PrintingMethod: "offset", UnitCost: 2},
			{BookID: "b2", SupplierID: "s1", PrintingMethod: "offset", UnitCost: 1},
		},
		Config: DefaultConfig(),
	}
	data.Config.EnableSymmetryBreaking = false

	built, err := BuildModel(data)

	assert.NoError(t, err)
	assert.Equal(t, int32(3), built.Variables)
	assert.Len(t, built.Objective, 3)
}

func TestVerify(t *testing.T) {
	allocator := NewAllocator(cpsat.NewGophersatSolver())
	data := validProblem()
	result, err := allocator.Solve(data)
	assert.NoError(t, err)

	t.Run("accepts a solved result", func(t *testing.T) {
		assert.True(t, allocator.Verify(data, result))
	})

	t.Run("rejects a missing assignment", func(t *testing.T) {
		tampered := result
		tampered.Assignments = result.Assignments[1:]

		assert.False(t, allocator.Verify(data, tampered))
	})

	t.Run("rejects a broken kit", func(t *testing.T) {
		tampered := result
		tampered.Assignments = make([]Assignment, len(result.Assignments))
		copy(tampered.Assignments, result.Assignments)
		for i := range tampered.Assignments {
			if tampered.Assignments[i].BookID == "b2" {
				tampered.Assignments[i].SupplierID = "s1"
				tampered.Assignments[i].UnitCost = 2.9
				tampered.Assignments[i].TotalCost = 2.9 * 50
			}
		}

		assert.False(t, allocator.Verify(data, tampered))
	})

	t.Run("rejects a tampered objective", func(t *testing.T) {
		tampered := result
		objective := *result.ObjectiveValue + 10
		tampered.ObjectiveValue = &objective

		assert.False(t, allocator.Verify(data, tampered))
	})

	t.Run("accepts an unsolved result without assignments", func(t *testing.T) {
		assert.True(t, allocator.Verify(data, OptimizationResult{Status: "INFEASIBLE", Assignments: []Assignment{}}))
		assert.False(t, allocator.Verify(data, OptimizationResult{Status: "UNKNOWN", Assignments: result.Assignments}))
	})
}
