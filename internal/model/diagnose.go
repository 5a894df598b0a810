package model

import (
	"fmt"
	"sort"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// DiagnosticFinding names one structural reason a problem cannot be solved,
// or is at risk of not being solvable.
type DiagnosticFinding struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	FindingMissingCosts      = "missing_costs"
	FindingMethodOverload    = "method_overload"
	FindingTotalOverload     = "total_overload"
	FindingBrandSlotShortage = "brand_slot_shortage"
)

// Diagnose inspects a problem for structural infeasibility causes without
// invoking a solver: books nobody can produce, printing methods whose
// committed demand exceeds the fleet capacity, and brands with more items
// than the fairness cap leaves room for. An empty result does not prove
// feasibility, but every finding names a real obstruction.
func Diagnose(data ProblemData) ([]DiagnosticFinding, error) {
	if err := data.Normalize(); err != nil {
		return nil, err
	}

	findings := []DiagnosticFinding{}
	findings = append(findings, diagnoseMissingCosts(data)...)
	findings = append(findings, diagnoseCapacity(data)...)

	brandFindings, err := diagnoseBrandSlots(data)
	if err != nil {
		return nil, err
	}
	return append(findings, brandFindings...), nil
}

// diagnoseMissingCosts lists books with no viable (supplier, method)
// candidate at all.
func diagnoseMissingCosts(data ProblemData) []DiagnosticFinding {
	costs := costIndex(data.Costs)
	var findings []DiagnosticFinding
	for _, book := range data.Books {
		if len(candidatesFor(book, data.Suppliers, costs)) == 0 {
			findings = append(findings, DiagnosticFinding{
				Kind:   FindingMissingCosts,
				Detail: fmt.Sprintf("book %v has no priced (supplier, method) candidate", book.ID),
			})
		}
	}
	return findings
}

// diagnoseCapacity compares committed demand against capacity. A book with a
// single available method commits its volume to that method; flexible books
// only count towards the overall total.
func diagnoseCapacity(data ProblemData) []DiagnosticFinding {
	capacity := make(map[string]int)
	totalCapacity := 0
	for _, supplier := range data.Suppliers {
		for method, methodCapacity := range supplier.Capacities {
			capacity[method] += methodCapacity
			totalCapacity += methodCapacity
		}
	}

	committed := make(map[string]int)
	totalVolume := 0
	for _, book := range data.Books {
		totalVolume += book.ProductionVolume
		if len(book.AvailablePrintingMethods) == 1 {
			committed[book.AvailablePrintingMethods[0]] += book.ProductionVolume
		}
	}

	var findings []DiagnosticFinding
	methods := lo.Keys(committed)
	sort.Strings(methods)
	for _, method := range methods {
		if committed[method] > capacity[method] {
			findings = append(findings, DiagnosticFinding{
				Kind: FindingMethodOverload,
				Detail: fmt.Sprintf("method %v: committed volume %v exceeds fleet capacity %v",
					method, committed[method], capacity[method]),
			})
		}
	}
	if totalVolume > totalCapacity {
		findings = append(findings, DiagnosticFinding{
			Kind: FindingTotalOverload,
			Detail: fmt.Sprintf("total volume %v exceeds total fleet capacity %v",
				totalVolume, totalCapacity),
		})
	}
	return findings
}

// brandItem is one unit of the fairness cap: a standalone book or a whole
// kit. Suppliers lists where the item could conceivably be produced.
type brandItem struct {
	ID        string
	Suppliers map[string]bool
}

// brandSlot is one unit of room a supplier offers a brand under the cap.
type brandSlot struct {
	SupplierID string
}

// diagnoseBrandSlots checks, per brand, that the cap leaves enough supplier
// slots for the brand's items. Each supplier offers the cap's worth of slots
// but an item only fits where it has a candidate, so a plain count is too
// optimistic: a maximum bipartite matching between items and slots decides
// whether every item can land somewhere.
func diagnoseBrandSlots(data ProblemData) ([]DiagnosticFinding, error) {
	costs := costIndex(data.Costs)
	items := brandItems(data, costs)

	var findings []DiagnosticFinding
	brands := lo.Keys(items)
	sort.Strings(brands)
	for _, brand := range brands {
		itemList := items[brand]

		left := lo.Map(itemList, func(item brandItem, _ int) any { return item })
		var right []any
		for _, supplier := range data.Suppliers {
			for slot := 0; slot < data.Config.MaxItemsPerBrandPerSupplier; slot++ {
				right = append(right, brandSlot{SupplierID: supplier.ID})
			}
		}

		graph, err := bipartitegraph.NewBipartiteGraph(left, right, func(l, r any) (bool, error) {
			return l.(brandItem).Suppliers[r.(brandSlot).SupplierID], nil
		})
		if err != nil {
			return nil, err
		}

		if matched := len(graph.LargestMatching()); matched < len(itemList) {
			findings = append(findings, DiagnosticFinding{
				Kind: FindingBrandSlotShortage,
				Detail: fmt.Sprintf("brand %v: only %v of %v items fit within %v slots per supplier",
					brand, matched, len(itemList), data.Config.MaxItemsPerBrandPerSupplier),
			})
		}
	}
	return findings, nil
}

// brandItems groups the cap-relevant items per brand. A kit appears once for
// every brand it contains and can only go where all of its members have a
// candidate.
func brandItems(data ProblemData, costs map[costKey]float64) map[string][]brandItem {
	kitByID := lo.SliceToMap(data.Kits, func(kit Kit) (string, Kit) {
		return kit.ID, kit
	})
	bookByID := lo.SliceToMap(data.Books, func(book Book) (string, Book) {
		return book.ID, book
	})

	candidateSuppliers := func(book Book) map[string]bool {
		suppliers := make(map[string]bool)
		for _, candidate := range candidatesFor(book, data.Suppliers, costs) {
			suppliers[candidate.SupplierID] = true
		}
		return suppliers
	}

	kitSuppliers := make(map[string]map[string]bool, len(data.Kits))
	for _, kit := range data.Kits {
		suppliers := make(map[string]bool, len(data.Suppliers))
		for _, supplier := range data.Suppliers {
			suppliers[supplier.ID] = true
		}
		for _, bookID := range kit.BookIDs {
			memberSuppliers := candidateSuppliers(bookByID[bookID])
			for id := range suppliers {
				if !memberSuppliers[id] {
					delete(suppliers, id)
				}
			}
		}
		kitSuppliers[kit.ID] = suppliers
	}

	items := make(map[string][]brandItem)
	seenKit := make(map[string]map[string]bool) // brand -> kit ids already added
	for _, book := range data.Books {
		if book.KitID == "" {
			items[book.Brand] = append(items[book.Brand], brandItem{
				ID:        book.ID,
				Suppliers: candidateSuppliers(book),
			})
			continue
		}
		if seenKit[book.Brand] == nil {
			seenKit[book.Brand] = make(map[string]bool)
		}
		if seenKit[book.Brand][book.KitID] {
			continue
		}
		seenKit[book.Brand][book.KitID] = true
		items[book.Brand] = append(items[book.Brand], brandItem{
			ID:        kitByID[book.KitID].ID,
			Suppliers: kitSuppliers[book.KitID],
		})
	}
	return items
}
