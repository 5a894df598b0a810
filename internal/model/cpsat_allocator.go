package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"printalloc/internal/cpsat"

	"github.com/samber/lo"
)

type cpsatAllocator struct {
	solver cpsat.Solver
}

// solveBuild carries the per-run state of one model construction. A fresh
// one is created on every Solve call, so an allocator can be reused.
type solveBuild struct {
	data  ProblemData
	model *cpsat.Model
	arena *varArena

	costs        map[costKey]float64
	kitByID      map[string]Kit
	booksByBrand map[string][]Book
	// candidates caches candidatesFor per book id; the same list drives
	// variable creation, constraints, the objective and extraction.
	candidates map[string][]costKey
}

func (a *cpsatAllocator) Solve(data ProblemData) (OptimizationResult, error) {
	if err := data.Validate(); err != nil {
		return OptimizationResult{}, err
	}

	build, err := newSolveBuild(data)
	if err != nil {
		return OptimizationResult{}, err
	}

	start := time.Now()
	solution, err := a.solver.Solve(*build.model, data.Config.solverParams())
	if err != nil {
		return OptimizationResult{}, fmt.Errorf("solving backend failed: %w", err)
	}

	return build.extract(solution, time.Since(start)), nil
}

// BuildModel constructs the constraint model for the given data without
// solving it, for dumping or inspection. The data must already validate.
func BuildModel(data ProblemData) (cpsat.Model, error) {
	if err := data.Validate(); err != nil {
		return cpsat.Model{}, err
	}
	build, err := newSolveBuild(data)
	if err != nil {
		return cpsat.Model{}, err
	}
	return *build.model, nil
}

func newSolveBuild(data ProblemData) (*solveBuild, error) {
	build := &solveBuild{
		data:  data,
		model: &cpsat.Model{},
		costs: costIndex(data.Costs),
		kitByID: lo.SliceToMap(data.Kits, func(kit Kit) (string, Kit) {
			return kit.ID, kit
		}),
		booksByBrand: lo.GroupBy(data.Books, func(book Book) string {
			return book.Brand
		}),
		candidates: make(map[string][]costKey, len(data.Books)),
	}
	build.arena = newVarArena(build.model)

	if err := build.createAssignmentVariables(); err != nil {
		return nil, err
	}
	build.addAssignmentConstraints()
	build.addKitCohesionConstraints()
	build.addBrandDiversificationConstraints()
	build.addCapacityConstraints()
	if data.Config.EnableSymmetryBreaking {
		build.addSymmetryBreakingConstraints()
	}
	build.setObjective()

	return build, nil
}

// createAssignmentVariables registers one boolean per viable (book, supplier,
// method) candidate. Unpriced or incapable combinations get no variable at
// all, which keeps the model proportional to the cost matrix density.
func (b *solveBuild) createAssignmentVariables() error {
	for _, book := range b.data.Books {
		candidates := candidatesFor(book, b.data.Suppliers, b.costs)
		if len(candidates) == 0 {
			return UnassignableBookError{BookID: book.ID}
		}
		b.candidates[book.ID] = candidates
		for _, candidate := range candidates {
			b.arena.Bool(assignKey(candidate))
		}
	}
	return nil
}

// addAssignmentConstraints forces every book onto exactly one (supplier,
// method) candidate.
func (b *solveBuild) addAssignmentConstraints() {
	for _, book := range b.data.Books {
		vars := lo.Map(b.candidates[book.ID], func(candidate costKey, _ int) cpsat.BoolVar {
			return b.arena.Bool(assignKey(candidate))
		})
		b.model.AddExactlyOne(vars)
	}
}

// addKitCohesionConstraints ties every member of a multi-book kit to the
// supplier indicator of its kit: at each supplier, either the whole kit is
// produced there or none of it is.
func (b *solveBuild) addKitCohesionConstraints() {
	for _, kit := range b.data.Kits {
		if len(kit.BookIDs) < 2 {
			continue
		}
		for _, supplier := range b.data.Suppliers {
			indicator := b.kitIndicator(kit, supplier.ID)
			for _, bookID := range kit.BookIDs[1:] {
				b.model.AddSumEqualsVar(b.supplierVars(bookID, supplier.ID), indicator)
			}
		}
	}
}

// kitIndicator returns the "kit produced at supplier" boolean, defining it on
// first use by equality with the assignment variables of the kit's first
// member. A member with no candidate at the supplier pins the indicator to
// false there.
func (b *solveBuild) kitIndicator(kit Kit, supplierID string) cpsat.BoolVar {
	key := varKey{Tag: tagKit, EntityID: kit.ID, SupplierID: supplierID}
	if indicator, ok := b.arena.Lookup(key); ok {
		return indicator
	}
	indicator := b.arena.Bool(key)
	b.model.AddSumEqualsVar(b.supplierVars(kit.BookIDs[0], supplierID), indicator)
	return indicator
}

// itemIndicator returns the "standalone book produced at supplier" boolean,
// defining it on first use by equality with the book's assignment variables
// at that supplier.
func (b *solveBuild) itemIndicator(bookID, supplierID string) cpsat.BoolVar {
	key := varKey{Tag: tagItem, EntityID: bookID, SupplierID: supplierID}
	if indicator, ok := b.arena.Lookup(key); ok {
		return indicator
	}
	indicator := b.arena.Bool(key)
	b.model.AddSumEqualsVar(b.supplierVars(bookID, supplierID), indicator)
	return indicator
}

// addBrandDiversificationConstraints caps how many items of a brand a single
// supplier may produce. A kit counts as one item towards each brand it
// contains, no matter how many of that brand's books it bundles; a book
// outside any kit counts as one item on its own.
func (b *solveBuild) addBrandDiversificationConstraints() {
	maxItems := b.data.Config.MaxItemsPerBrandPerSupplier

	brands := lo.Keys(b.booksByBrand)
	sort.Strings(brands)

	for _, brand := range brands {
		items := b.brandItems(brand)
		// A brand with no more items than the cap cannot violate it at any
		// supplier, so it needs no indicators at all.
		if len(items) <= maxItems {
			continue
		}
		for _, supplier := range b.data.Suppliers {
			terms := lo.Map(items, func(item brandItemRef, _ int) cpsat.Term {
				var indicator cpsat.BoolVar
				if item.KitID != "" {
					indicator = b.kitIndicator(b.kitByID[item.KitID], supplier.ID)
				} else {
					indicator = b.itemIndicator(item.BookID, supplier.ID)
				}
				return cpsat.Term{Var: indicator, Coeff: 1}
			})
			b.model.Add(cpsat.LinearConstraint{Terms: terms, Op: cpsat.LtEq, Bound: maxItems})
		}
	}
}

// brandItemRef is one unit of the fairness cap: either a standalone book or
// a whole kit. Exactly one of the fields is set.
type brandItemRef struct {
	BookID string
	KitID  string
}

// brandItems lists a brand's cap-relevant items: standalone books on their
// own, each kit containing at least one of the brand's books once.
func (b *solveBuild) brandItems(brand string) []brandItemRef {
	var items []brandItemRef
	countedKits := make(map[string]bool)
	for _, book := range b.booksByBrand[brand] {
		if book.KitID == "" {
			items = append(items, brandItemRef{BookID: book.ID})
			continue
		}
		if countedKits[book.KitID] {
			continue
		}
		countedKits[book.KitID] = true
		items = append(items, brandItemRef{KitID: book.KitID})
	}
	return items
}

// addCapacityConstraints bounds, per supplier and method, the total volume
// of the books assigned there by the declared capacity.
func (b *solveBuild) addCapacityConstraints() {
	for _, supplier := range b.data.Suppliers {
		methods := lo.Keys(supplier.Capacities)
		sort.Strings(methods)
		for _, method := range methods {
			var terms []cpsat.Term
			for _, book := range b.data.Books {
				key := varKey{Tag: tagAssign, EntityID: book.ID, SupplierID: supplier.ID, Method: method}
				if v, ok := b.arena.Lookup(key); ok {
					terms = append(terms, cpsat.Term{Var: v, Coeff: book.ProductionVolume})
				}
			}
			b.model.Add(cpsat.LinearConstraint{Terms: terms, Op: cpsat.LtEq, Bound: supplier.Capacities[method]})
		}
	}
}

// addSymmetryBreakingConstraints orders interchangeable suppliers. Two
// suppliers are interchangeable when they declare the same capacities and
// price every (book, method) pair identically, in which case any solution
// can be permuted between them; loading the earlier supplier at least as
// heavily prunes the mirrored half of the search space without excluding
// any optimum.
func (b *solveBuild) addSymmetryBreakingConstraints() {
	groups := lo.GroupBy(b.data.Suppliers, func(supplier Supplier) string {
		return capacitySignature(supplier)
	})

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for i := 0; i < len(group)-1; i++ {
			first, second := group[i], group[i+1]
			if !b.identicallyPriced(first.ID, second.ID) {
				continue
			}
			terms := append(
				b.volumeTerms(first.ID, 1),
				b.volumeTerms(second.ID, -1)...,
			)
			b.model.Add(cpsat.LinearConstraint{Terms: terms, Op: cpsat.GtEq, Bound: 0})
		}
	}
}

// capacitySignature is a canonical rendering of a supplier's capacity map.
func capacitySignature(supplier Supplier) string {
	methods := lo.Keys(supplier.Capacities)
	sort.Strings(methods)
	parts := lo.Map(methods, func(method string, _ int) string {
		return fmt.Sprintf("%v=%v", method, supplier.Capacities[method])
	})
	return strings.Join(parts, ";")
}

// identicallyPriced reports whether two suppliers quote the same unit cost
// for every (book, method) pair, including both leaving it unpriced.
func (b *solveBuild) identicallyPriced(firstID, secondID string) bool {
	for _, book := range b.data.Books {
		for _, method := range book.AvailablePrintingMethods {
			firstCost, firstPriced := b.costs[costKey{book.ID, firstID, method}]
			secondCost, secondPriced := b.costs[costKey{book.ID, secondID, method}]
			if firstPriced != secondPriced || firstCost != secondCost {
				return false
			}
		}
	}
	return true
}

// volumeTerms collects sign*volume terms over all assignment variables of a
// supplier.
func (b *solveBuild) volumeTerms(supplierID string, sign int) []cpsat.Term {
	var terms []cpsat.Term
	for _, book := range b.data.Books {
		for _, candidate := range b.candidates[book.ID] {
			if candidate.SupplierID != supplierID {
				continue
			}
			v := b.arena.Bool(assignKey(candidate))
			terms = append(terms, cpsat.Term{Var: v, Coeff: sign * book.ProductionVolume})
		}
	}
	return terms
}

// setObjective minimizes the total production cost. Unit costs are scaled to
// integers and weighted by the volume they apply to.
func (b *solveBuild) setObjective() {
	for _, book := range b.data.Books {
		for _, candidate := range b.candidates[book.ID] {
			v := b.arena.Bool(assignKey(candidate))
			coeff := scaleCost(b.costs[candidate]) * book.ProductionVolume
			b.model.Objective = append(b.model.Objective, cpsat.Term{Var: v, Coeff: coeff})
		}
	}
}

// supplierVars lists a book's assignment variables at one supplier, over all
// of its candidate methods there.
func (b *solveBuild) supplierVars(bookID, supplierID string) []cpsat.BoolVar {
	var vars []cpsat.BoolVar
	for _, candidate := range b.candidates[bookID] {
		if candidate.SupplierID == supplierID {
			vars = append(vars, b.arena.Bool(assignKey(candidate)))
		}
	}
	return vars
}

func assignKey(candidate costKey) varKey {
	return varKey{
		Tag:        tagAssign,
		EntityID:   candidate.BookID,
		SupplierID: candidate.SupplierID,
		Method:     candidate.Method,
	}
}

// extract converts a backend solution into the typed result. Statuses
// without a solution yield a result with no assignments and no objective.
func (b *solveBuild) extract(solution cpsat.Solution, elapsed time.Duration) OptimizationResult {
	result := OptimizationResult{
		Status:              solution.Status.String(),
		SolveTimeSeconds:    elapsed.Seconds(),
		TotalBooks:          len(b.data.Books),
		TotalVolume:         lo.SumBy(b.data.Books, func(book Book) int { return book.ProductionVolume }),
		Assignments:         []Assignment{},
		SupplierUtilization: map[string]map[string]float64{},
	}
	if solution.Status != cpsat.Optimal && solution.Status != cpsat.Feasible {
		return result
	}

	for _, book := range b.data.Books {
		for _, candidate := range b.candidates[book.ID] {
			v := b.arena.Bool(assignKey(candidate))
			if !solution.Values[v] {
				continue
			}
			unitCost := b.costs[candidate]
			result.Assignments = append(result.Assignments, Assignment{
				BookID:           book.ID,
				SupplierID:       candidate.SupplierID,
				PrintingMethod:   candidate.Method,
				ProductionVolume: book.ProductionVolume,
				UnitCost:         unitCost,
				TotalCost:        unitCost * float64(book.ProductionVolume),
			})
			break
		}
	}

	objective := unscaleCost(solution.Objective)
	result.ObjectiveValue = &objective
	result.SupplierUtilization = computeUtilization(result.Assignments, b.data.Suppliers)
	return result
}
