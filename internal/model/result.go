package model

import (
	"github.com/samber/lo"
)

// Assignment records that one book is produced by one supplier using one
// printing method.
type Assignment struct {
	BookID           string  `json:"book_id"`
	SupplierID       string  `json:"supplier_id"`
	PrintingMethod   string  `json:"printing_method"`
	ProductionVolume int     `json:"production_volume"`
	UnitCost         float64 `json:"unit_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// OptimizationResult is the outcome of a single solve: the solver status, the
// assignments (empty unless the status is OPTIMAL or FEASIBLE) and derived
// statistics.
type OptimizationResult struct {
	Status           string                        `json:"status"`
	ObjectiveValue   *float64                      `json:"objective_value"`
	SolveTimeSeconds float64                       `json:"solve_time_seconds"`
	TotalBooks       int                           `json:"total_books"`
	TotalVolume      int                           `json:"total_volume"`
	Assignments      []Assignment                  `json:"assignments"`
	// Utilization maps supplier id -> method -> percentage of the declared
	// capacity consumed by the assignments.
	SupplierUtilization map[string]map[string]float64 `json:"supplier_utilization"`
}

// Solved reports whether the result carries a concrete allocation.
func (r OptimizationResult) Solved() bool {
	return r.Status == "OPTIMAL" || r.Status == "FEASIBLE"
}

// TotalCost sums the total cost over all assignments.
func (r OptimizationResult) TotalCost() float64 {
	return lo.SumBy(r.Assignments, func(a Assignment) float64 { return a.TotalCost })
}

// computeUtilization derives per-(supplier, method) capacity consumption.
// Methods with no declared capacity never appear; a declared method with no
// usage reports 0.
func computeUtilization(assignments []Assignment, suppliers []Supplier) map[string]map[string]float64 {
	used := make(map[string]map[string]int)
	for _, assignment := range assignments {
		if _, ok := used[assignment.SupplierID]; !ok {
			used[assignment.SupplierID] = make(map[string]int)
		}
		used[assignment.SupplierID][assignment.PrintingMethod] += assignment.ProductionVolume
	}

	utilization := make(map[string]map[string]float64, len(suppliers))
	for _, supplier := range suppliers {
		utilization[supplier.ID] = make(map[string]float64, len(supplier.Capacities))
		for method, capacity := range supplier.Capacities {
			if capacity <= 0 {
				utilization[supplier.ID][method] = 0
				continue
			}
			utilization[supplier.ID][method] = float64(used[supplier.ID][method]) / float64(capacity) * 100
		}
	}
	return utilization
}
