package model

import (
	"fmt"
	"strings"
	"time"

	"printalloc/internal/cpsat"

	"github.com/samber/lo"
)

// Book is a single print job. Brand groups books for the fairness cap, KitID
// back-references the kit the book belongs to (if any).
type Book struct {
	ID                       string   `mapstructure:"id" json:"id"`
	Title                    string   `mapstructure:"title" json:"title"`
	Brand                    string   `mapstructure:"brand" json:"brand"`
	ProductionVolume         int      `mapstructure:"production_volume" json:"production_volume"`
	AvailablePrintingMethods []string `mapstructure:"available_printing_methods" json:"available_printing_methods"`
	KitID                    string   `mapstructure:"kit_id" json:"kit_id,omitempty"`
}

// Kit is a bundle of books that must all be produced by the same supplier.
type Kit struct {
	ID      string   `mapstructure:"id" json:"id"`
	Name    string   `mapstructure:"name" json:"name"`
	BookIDs []string `mapstructure:"book_ids" json:"book_ids"`
}

// Supplier declares, per printing method, the total volume it can absorb.
type Supplier struct {
	ID         string         `mapstructure:"id" json:"id"`
	Name       string         `mapstructure:"name" json:"name"`
	Capacities map[string]int `mapstructure:"capacities" json:"capacities"`
}

// Cost prices one (book, supplier, method) triple. Only priced triples are
// legal assignment candidates.
type Cost struct {
	BookID         string  `mapstructure:"book_id" json:"book_id"`
	SupplierID     string  `mapstructure:"supplier_id" json:"supplier_id"`
	PrintingMethod string  `mapstructure:"printing_method" json:"printing_method"`
	UnitCost       float64 `mapstructure:"unit_cost" json:"unit_cost"`
}

// Config carries the policy knobs of a solve run.
type Config struct {
	MaxItemsPerBrandPerSupplier int  `mapstructure:"max_volumes_per_brand_per_supplier" json:"max_volumes_per_brand_per_supplier"`
	SolverTimeLimitSeconds      int  `mapstructure:"solver_time_limit_seconds" json:"solver_time_limit_seconds"`
	NumSearchWorkers            int  `mapstructure:"num_search_workers" json:"num_search_workers"`
	EnableSymmetryBreaking      bool `mapstructure:"enable_symmetry_breaking" json:"enable_symmetry_breaking"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxItemsPerBrandPerSupplier: 4,
		SolverTimeLimitSeconds:      300,
		NumSearchWorkers:            8,
		EnableSymmetryBreaking:      true,
	}
}

func (c Config) solverParams() cpsat.Params {
	return cpsat.Params{
		TimeLimit: time.Duration(c.SolverTimeLimitSeconds) * time.Second,
		Workers:   c.NumSearchWorkers,
	}
}

// ProblemData aggregates one complete allocation problem. It is read-only
// once Validate has accepted it.
type ProblemData struct {
	Books     []Book     `json:"books"`
	Kits      []Kit      `json:"kits"`
	Suppliers []Supplier `json:"suppliers"`
	Costs     []Cost     `json:"costs"`
	Config    Config     `json:"config"`
}

// NormalizeMethod canonicalizes a printing-method name so the same method
// spelled differently across files still keys identically.
func NormalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

// Normalize canonicalizes method names in place and checks each entity in
// isolation. Cross-entity consistency is Validate's job.
func (d *ProblemData) Normalize() error {
	for i := range d.Books {
		book := &d.Books[i]
		if book.ProductionVolume <= 0 {
			return fmt.Errorf("book %v: production volume must be positive, got %v", book.ID, book.ProductionVolume)
		}
		if len(book.AvailablePrintingMethods) == 0 {
			return fmt.Errorf("book %v: at least one printing method is required", book.ID)
		}
		seen := make(map[string]bool, len(book.AvailablePrintingMethods))
		for j, method := range book.AvailablePrintingMethods {
			normalized := NormalizeMethod(method)
			if seen[normalized] {
				return fmt.Errorf("book %v: duplicate printing method %q", book.ID, normalized)
			}
			seen[normalized] = true
			book.AvailablePrintingMethods[j] = normalized
		}
	}

	for i := range d.Kits {
		kit := &d.Kits[i]
		if len(kit.BookIDs) == 0 {
			return fmt.Errorf("kit %v: must contain at least one book", kit.ID)
		}
		if len(lo.Uniq(kit.BookIDs)) != len(kit.BookIDs) {
			return fmt.Errorf("kit %v: duplicate book ids", kit.ID)
		}
	}

	for i := range d.Suppliers {
		supplier := &d.Suppliers[i]
		normalized := make(map[string]int, len(supplier.Capacities))
		for method, capacity := range supplier.Capacities {
			if capacity <= 0 {
				return fmt.Errorf("supplier %v: capacity for %q must be positive, got %v", supplier.ID, method, capacity)
			}
			normalized[NormalizeMethod(method)] = capacity
		}
		supplier.Capacities = normalized
	}

	for i := range d.Costs {
		cost := &d.Costs[i]
		if cost.UnitCost <= 0 {
			return fmt.Errorf("cost entry for book %v at supplier %v: unit cost must be positive, got %v", cost.BookID, cost.SupplierID, cost.UnitCost)
		}
		cost.PrintingMethod = NormalizeMethod(cost.PrintingMethod)
	}

	if d.Config.MaxItemsPerBrandPerSupplier <= 0 {
		return fmt.Errorf("config: max items per brand per supplier must be positive, got %v", d.Config.MaxItemsPerBrandPerSupplier)
	}
	if d.Config.SolverTimeLimitSeconds <= 0 {
		return fmt.Errorf("config: solver time limit must be positive, got %v", d.Config.SolverTimeLimitSeconds)
	}
	if d.Config.NumSearchWorkers <= 0 {
		return fmt.Errorf("config: number of search workers must be positive, got %v", d.Config.NumSearchWorkers)
	}

	return nil
}

// Validate normalizes the data and then cross-checks referential consistency.
// A ProblemData that passes is safe to hand to an Allocator.
func (d *ProblemData) Validate() error {
	if err := d.Normalize(); err != nil {
		return err
	}

	bookIDs := make(map[string]bool, len(d.Books))
	for _, book := range d.Books {
		if bookIDs[book.ID] {
			return fmt.Errorf("duplicate book id %v", book.ID)
		}
		bookIDs[book.ID] = true
	}

	kitIDs := make(map[string]bool, len(d.Kits))
	kitOf := make(map[string]string) // book id -> kit id
	for _, kit := range d.Kits {
		if kitIDs[kit.ID] {
			return fmt.Errorf("duplicate kit id %v", kit.ID)
		}
		kitIDs[kit.ID] = true

		for _, bookID := range kit.BookIDs {
			if !bookIDs[bookID] {
				return fmt.Errorf("kit %v references non-existent book %v", kit.ID, bookID)
			}
			if existing, ok := kitOf[bookID]; ok {
				return fmt.Errorf("book %v appears in multiple kits: %v and %v", bookID, existing, kit.ID)
			}
			kitOf[bookID] = kit.ID
		}
	}

	supplierIDs := make(map[string]bool, len(d.Suppliers))
	for _, supplier := range d.Suppliers {
		if supplierIDs[supplier.ID] {
			return fmt.Errorf("duplicate supplier id %v", supplier.ID)
		}
		supplierIDs[supplier.ID] = true
	}

	// The kit back-reference must agree with the membership lists in both
	// directions.
	for _, book := range d.Books {
		memberOf, listed := kitOf[book.ID]
		if book.KitID == "" {
			if listed {
				return fmt.Errorf("book %v is listed in kit %v but does not declare a kit id", book.ID, memberOf)
			}
			continue
		}
		if !listed {
			return fmt.Errorf("book %v claims to be in kit %v but is not listed in any kit", book.ID, book.KitID)
		}
		if memberOf != book.KitID {
			return fmt.Errorf("book %v kit mismatch: claims %v but is listed in %v", book.ID, book.KitID, memberOf)
		}
	}

	for _, cost := range d.Costs {
		if !bookIDs[cost.BookID] {
			return fmt.Errorf("cost entry references non-existent book %v", cost.BookID)
		}
		if !supplierIDs[cost.SupplierID] {
			return fmt.Errorf("cost entry references non-existent supplier %v", cost.SupplierID)
		}
	}

	// Every book needs at least one priced (supplier, method) pair it can
	// actually use; anything less would silently vanish from the model.
	costs := costIndex(d.Costs)
	for _, book := range d.Books {
		if len(candidatesFor(book, d.Suppliers, costs)) == 0 {
			return UnassignableBookError{BookID: book.ID}
		}
	}

	return nil
}

// UnassignableBookError marks a book with no viable (supplier, method)
// candidate: no cost entry combines one of its available methods with a
// supplier declaring capacity for that method.
type UnassignableBookError struct {
	BookID string
}

func (err UnassignableBookError) Error() string {
	return fmt.Sprintf("book %v has no viable (supplier, method) assignment", err.BookID)
}

type costKey struct {
	BookID     string
	SupplierID string
	Method     string
}

func costIndex(costs []Cost) map[costKey]float64 {
	index := make(map[costKey]float64, len(costs))
	for _, cost := range costs {
		index[costKey{cost.BookID, cost.SupplierID, cost.PrintingMethod}] = cost.UnitCost
	}
	return index
}

// candidatesFor lists the (supplier, method) pairs a book may be assigned to:
// the method is available for the book, the supplier declares capacity for
// it, and the triple is priced.
func candidatesFor(book Book, suppliers []Supplier, costs map[costKey]float64) []costKey {
	candidates := make([]costKey, 0, 4)
	for _, supplier := range suppliers {
		for _, method := range book.AvailablePrintingMethods {
			if _, declared := supplier.Capacities[method]; !declared {
				continue
			}
			key := costKey{book.ID, supplier.ID, method}
			if _, priced := costs[key]; priced {
				candidates = append(candidates, key)
			}
		}
	}
	return candidates
}
