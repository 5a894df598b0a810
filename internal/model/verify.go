package model

import (
	"math"

	"github.com/samber/lo"
)

// Verify audits a result against the data it was solved from. A result
// without a solution passes exactly when it carries no assignments; a solved
// result must satisfy every business rule the model encodes.
func (a *cpsatAllocator) Verify(data ProblemData, result OptimizationResult) bool {
	if !result.Solved() {
		return len(result.Assignments) == 0
	}
	return verifyCardinality(data, result) &&
		verifyAssignmentsViable(data, result) &&
		verifyKitCohesion(data, result) &&
		verifyBrandDiversification(data, result) &&
		verifyCapacities(data, result) &&
		verifyObjective(result)
}

// verifyCardinality checks that every book is assigned exactly once.
func verifyCardinality(data ProblemData, result OptimizationResult) bool {
	counts := lo.CountValuesBy(result.Assignments, func(a Assignment) string {
		return a.BookID
	})
	if len(counts) != len(data.Books) {
		return false
	}
	for _, book := range data.Books {
		if counts[book.ID] != 1 {
			return false
		}
	}
	return true
}

// verifyAssignmentsViable checks that each assignment uses an available
// method, a supplier declaring capacity for it, a priced triple and the
// book's own volume and unit cost.
func verifyAssignmentsViable(data ProblemData, result OptimizationResult) bool {
	books := lo.SliceToMap(data.Books, func(book Book) (string, Book) {
		return book.ID, book
	})
	suppliers := lo.SliceToMap(data.Suppliers, func(supplier Supplier) (string, Supplier) {
		return supplier.ID, supplier
	})
	costs := costIndex(data.Costs)

	for _, assignment := range result.Assignments {
		book, ok := books[assignment.BookID]
		if !ok {
			return false
		}
		if !lo.Contains(book.AvailablePrintingMethods, assignment.PrintingMethod) {
			return false
		}
		supplier, ok := suppliers[assignment.SupplierID]
		if !ok {
			return false
		}
		if _, declared := supplier.Capacities[assignment.PrintingMethod]; !declared {
			return false
		}
		unitCost, priced := costs[costKey{assignment.BookID, assignment.SupplierID, assignment.PrintingMethod}]
		if !priced || unitCost != assignment.UnitCost {
			return false
		}
		if assignment.ProductionVolume != book.ProductionVolume {
			return false
		}
		if assignment.TotalCost != assignment.UnitCost*float64(assignment.ProductionVolume) {
			return false
		}
	}
	return true
}

// verifyKitCohesion checks that all books of a kit ended up at one supplier.
func verifyKitCohesion(data ProblemData, result OptimizationResult) bool {
	supplierOf := lo.SliceToMap(result.Assignments, func(a Assignment) (string, string) {
		return a.BookID, a.SupplierID
	})
	for _, kit := range data.Kits {
		suppliers := lo.Uniq(lo.Map(kit.BookIDs, func(bookID string, _ int) string {
			return supplierOf[bookID]
		}))
		if len(suppliers) != 1 {
			return false
		}
	}
	return true
}

// verifyBrandDiversification counts items per (brand, supplier): a kit is
// one item towards each brand it contains, a standalone book is one item.
func verifyBrandDiversification(data ProblemData, result OptimizationResult) bool {
	books := lo.SliceToMap(data.Books, func(book Book) (string, Book) {
		return book.ID, book
	})

	type brandSupplier struct{ Brand, SupplierID string }
	items := make(map[brandSupplier]int)
	countedKits := make(map[brandSupplier]map[string]bool)

	for _, assignment := range result.Assignments {
		book := books[assignment.BookID]
		key := brandSupplier{book.Brand, assignment.SupplierID}
		if book.KitID == "" {
			items[key]++
			continue
		}
		if countedKits[key] == nil {
			countedKits[key] = make(map[string]bool)
		}
		if countedKits[key][book.KitID] {
			continue
		}
		countedKits[key][book.KitID] = true
		items[key]++
	}

	for _, count := range items {
		if count > data.Config.MaxItemsPerBrandPerSupplier {
			return false
		}
	}
	return true
}

// verifyCapacities sums assigned volume per (supplier, method) against the
// declared capacity.
func verifyCapacities(data ProblemData, result OptimizationResult) bool {
	type supplierMethod struct{ SupplierID, Method string }
	used := make(map[supplierMethod]int)
	for _, assignment := range result.Assignments {
		used[supplierMethod{assignment.SupplierID, assignment.PrintingMethod}] += assignment.ProductionVolume
	}

	for _, supplier := range data.Suppliers {
		for method, capacity := range supplier.Capacities {
			if used[supplierMethod{supplier.ID, method}] > capacity {
				return false
			}
		}
	}
	return true
}

// verifyObjective reconciles the reported objective with the assignment
// costs. Each assignment may deviate by up to half a scale unit per volume
// unit from cost rounding, so the tolerance grows with the total volume.
func verifyObjective(result OptimizationResult) bool {
	if result.ObjectiveValue == nil {
		return false
	}
	volume := lo.SumBy(result.Assignments, func(a Assignment) int { return a.ProductionVolume })
	tolerance := (float64(volume)*0.5 + 1) / costScale
	return math.Abs(*result.ObjectiveValue-result.TotalCost()) <= tolerance
}
