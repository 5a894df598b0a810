package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"

	"printalloc/internal/model"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// datagen produces reproducible random problem instances for benchmarks and
// manual testing: books.json, kits.json, suppliers.json, costs.csv and
// config.json in the output directory.

var printingMethods = []string{"offset", "digital", "hybrid"}

var brandPrefixes = []string{
	"Tech", "Data", "Cloud", "Web", "Cyber", "Digital", "Smart", "Quantum",
	"Neural", "Meta", "Nano", "Bio", "Eco", "Global", "Prime",
}

var titlePrefixes = []string{
	"Introduction to", "Advanced", "Mastering", "Complete Guide to",
	"Practical", "Essential", "Modern", "Fundamentals of",
}

var titleTopics = []string{
	"Python Programming", "Data Science", "Machine Learning", "Web Development",
	"Cloud Computing", "DevOps", "Cybersecurity", "Database Design",
	"System Architecture", "Software Testing", "Project Management", "UX Design",
}

var supplierPrefixes = []string{
	"Global", "Premium", "Express", "Quality", "Elite", "Pro", "Eco", "Fast",
}

var supplierSuffixes = []string{
	"Print", "Press", "Publishing", "Solutions", "Graphics", "Media", "Works",
}

type generator struct {
	rng *rand.Rand
}

func (g *generator) books(count int, brands []string) []model.Book {
	books := make([]model.Book, 0, count)
	for i := 0; i < count; i++ {
		title := fmt.Sprintf("%v %v",
			titlePrefixes[g.rng.Intn(len(titlePrefixes))],
			titleTopics[g.rng.Intn(len(titleTopics))])

		// Volume distribution: mostly medium runs, some small, a few large.
		var volume int
		switch roll := g.rng.Float64(); {
		case roll < 0.7:
			volume = 500 + g.rng.Intn(1501)
		case roll < 0.9:
			volume = 100 + g.rng.Intn(901)
		default:
			volume = 5000 + g.rng.Intn(5001)
		}

		books = append(books, model.Book{
			ID:                       fmt.Sprintf("B%05d", i+1),
			Title:                    title,
			Brand:                    brands[g.rng.Intn(len(brands))],
			ProductionVolume:         volume,
			AvailablePrintingMethods: g.methodsFor(volume),
		})
	}
	return books
}

// methodsFor correlates the method choice with the run size: small runs lean
// digital, large runs lean offset.
func (g *generator) methodsFor(volume int) []string {
	switch {
	case volume < 1000:
		choices := [][]string{
			{"digital"},
			{"digital", "hybrid"},
			{"digital", "offset"},
		}
		return choices[g.rng.Intn(len(choices))]
	case volume < 5000:
		choices := [][]string{
			{"offset", "digital"},
			{"offset", "digital", "hybrid"},
		}
		return choices[g.rng.Intn(len(choices))]
	default:
		choices := [][]string{
			{"offset"},
			{"offset", "hybrid"},
			{"offset", "digital", "hybrid"},
		}
		return choices[g.rng.Intn(len(choices))]
	}
}

func (g *generator) kits(count, minSize, maxSize int, books []model.Book) []model.Kit {
	indices := g.rng.Perm(len(books))
	kits := make([]model.Kit, 0, count)
	for i := 0; i < count; i++ {
		size := minSize + g.rng.Intn(maxSize-minSize+1)
		if len(indices) < size {
			break
		}
		members := indices[:size]
		indices = indices[size:]

		kitID := fmt.Sprintf("K%04d", i+1)
		for _, idx := range members {
			books[idx].KitID = kitID
		}
		kits = append(kits, model.Kit{
			ID:   kitID,
			Name: fmt.Sprintf("%v Collection %v", books[members[0]].Brand, i+1),
			BookIDs: lo.Map(members, func(idx int, _ int) string {
				return books[idx].ID
			}),
		})
	}
	return kits
}

func (g *generator) suppliers(count int) []model.Supplier {
	suppliers := make([]model.Supplier, 0, count)
	for i := 0; i < count; i++ {
		suppliers = append(suppliers, model.Supplier{
			ID: fmt.Sprintf("S%03d", i+1),
			Name: fmt.Sprintf("%v %v",
				supplierPrefixes[g.rng.Intn(len(supplierPrefixes))],
				supplierSuffixes[g.rng.Intn(len(supplierSuffixes))]),
			Capacities: map[string]int{
				"offset":  50000 + g.rng.Intn(100001),
				"digital": 20000 + g.rng.Intn(60001),
				"hybrid":  10000 + g.rng.Intn(30001),
			},
		})
	}
	return suppliers
}

func (g *generator) costs(books []model.Book, suppliers []model.Supplier) []model.Cost {
	var costs []model.Cost
	for _, book := range books {
		for _, supplier := range suppliers {
			// Supplier-specific variation of roughly +/- 15%.
			factor := 0.85 + float64(idHash(supplier.ID)%30)/100
			for _, method := range book.AvailablePrintingMethods {
				base := g.baseCost(method, book.ProductionVolume)
				costs = append(costs, model.Cost{
					BookID:         book.ID,
					SupplierID:     supplier.ID,
					PrintingMethod: method,
					UnitCost:       float64(int(base*factor*100)) / 100,
				})
			}
		}
	}
	return costs
}

// baseCost mimics real print pricing: offset amortizes setup over large
// runs, digital stays flat, hybrid sits in between.
func (g *generator) baseCost(method string, volume int) float64 {
	uniform := func(low, high float64) float64 {
		return low + g.rng.Float64()*(high-low)
	}
	switch method {
	case "offset":
		switch {
		case volume < 1000:
			return uniform(3.0, 4.5)
		case volume < 5000:
			return uniform(2.0, 3.0)
		default:
			return uniform(1.5, 2.5)
		}
	case "digital":
		return uniform(2.5, 3.5)
	default:
		if volume < 2000 {
			return uniform(2.8, 3.8)
		}
		return uniform(2.2, 3.2)
	}
}

func idHash(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

func run(outDir string, seed int64, numBooks, numSuppliers, numBrands, numKits int) error {
	g := &generator{rng: rand.New(rand.NewSource(seed))}

	brands := make([]string, 0, numBrands)
	for i := 0; i < numBrands; i++ {
		brands = append(brands, fmt.Sprintf("%vBooks", brandPrefixes[i%len(brandPrefixes)]))
	}
	brands = lo.Uniq(brands)

	books := g.books(numBooks, brands)
	kits := g.kits(numKits, 2, 5, books)
	suppliers := g.suppliers(numSuppliers)
	costs := g.costs(books, suppliers)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "books.json"), books); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "kits.json"), kits); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "suppliers.json"), suppliers); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, "config.json"), model.DefaultConfig()); err != nil {
		return err
	}
	return writeCostsCSV(filepath.Join(outDir, "costs.csv"), costs)
}

func writeJSON(file string, value any) error {
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, append(content, '\n'), 0o644)
}

func writeCostsCSV(file string, costs []model.Cost) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	writer := csv.NewWriter(handle)
	rows := [][]string{{"book_id", "supplier_id", "printing_method", "unit_cost"}}
	for _, cost := range costs {
		rows = append(rows, []string{
			cost.BookID, cost.SupplierID, cost.PrintingMethod,
			fmt.Sprintf("%.2f", cost.UnitCost),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func main() {
	var (
		outDir       string
		seed         int64
		numBooks     int
		numSuppliers int
		numBrands    int
		numKits      int
	)

	cmd := &cobra.Command{
		Use:   "datagen",
		Short: "Generate a reproducible random allocation problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(outDir, seed, numBooks, numSuppliers, numBrands, numKits)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "data/generated", "output directory")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&numBooks, "books", 1500, "number of books")
	cmd.Flags().IntVar(&numSuppliers, "suppliers", 20, "number of suppliers")
	cmd.Flags().IntVar(&numBrands, "brands", 15, "number of brands")
	cmd.Flags().IntVar(&numKits, "kits", 225, "number of kits")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
