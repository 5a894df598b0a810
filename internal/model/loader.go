package model

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// LoadProblemData assembles a ProblemData from its input files. The kits and
// config paths may be empty: no kits and the default configuration then
// apply. The returned data is validated.
func LoadProblemData(booksPath, kitsPath, suppliersPath, costsPath, configPath string) (ProblemData, error) {
	books, err := LoadBooks(booksPath)
	if err != nil {
		return ProblemData{}, err
	}

	var kits []Kit
	if kitsPath != "" {
		if kits, err = LoadKits(kitsPath); err != nil {
			return ProblemData{}, err
		}
	}

	suppliers, err := LoadSuppliers(suppliersPath)
	if err != nil {
		return ProblemData{}, err
	}

	costs, err := LoadCosts(costsPath, books)
	if err != nil {
		return ProblemData{}, err
	}

	config := DefaultConfig()
	if configPath != "" {
		if config, err = LoadConfig(configPath); err != nil {
			return ProblemData{}, err
		}
	}

	data := ProblemData{
		Books:     books,
		Kits:      kits,
		Suppliers: suppliers,
		Costs:     costs,
		Config:    config,
	}
	if err := data.Validate(); err != nil {
		return ProblemData{}, err
	}
	return data, nil
}

// LoadBooks reads a JSON array of books.
func LoadBooks(file string) ([]Book, error) {
	var books []Book
	if err := decodeJSONFile(file, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// LoadKits reads a JSON array of kits.
func LoadKits(file string) ([]Kit, error) {
	var kits []Kit
	if err := decodeJSONFile(file, &kits); err != nil {
		return nil, err
	}
	return kits, nil
}

// LoadSuppliers reads a JSON array of suppliers.
func LoadSuppliers(file string) ([]Supplier, error) {
	var suppliers []Supplier
	if err := decodeJSONFile(file, &suppliers); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// LoadConfig reads a JSON configuration object. Absent keys keep their
// default values.
func LoadConfig(file string) (Config, error) {
	config := DefaultConfig()
	if err := decodeJSONFile(file, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadCosts reads cost entries from a JSON array or, when the file has a
// .csv extension, from a cost matrix CSV. The CSV variant needs the books to
// resolve its three-column form.
func LoadCosts(file string, books []Book) ([]Cost, error) {
	if strings.EqualFold(filepath.Ext(file), ".csv") {
		return loadCostsCSV(file, books)
	}
	var costs []Cost
	if err := decodeJSONFile(file, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// loadCostsCSV parses a headed CSV with columns book_id, supplier_id,
// printing_method, unit_cost. The printing_method column may be omitted when
// every referenced book offers exactly one method, which then applies.
func loadCostsCSV(file string, books []Book) ([]Cost, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	records, err := csv.NewReader(handle).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", file, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%v: missing header row", file)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[NormalizeMethod(name)] = i
	}
	for _, required := range []string{"book_id", "supplier_id", "unit_cost"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%v: missing column %q", file, required)
		}
	}
	methodColumn, hasMethodColumn := columns["printing_method"]

	methodOf := lo.SliceToMap(books, func(book Book) (string, []string) {
		return book.ID, book.AvailablePrintingMethods
	})

	costs := make([]Cost, 0, len(records)-1)
	for line, record := range records[1:] {
		cost := Cost{
			BookID:     strings.TrimSpace(record[columns["book_id"]]),
			SupplierID: strings.TrimSpace(record[columns["supplier_id"]]),
		}
		cost.UnitCost, err = strconv.ParseFloat(strings.TrimSpace(record[columns["unit_cost"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%v line %v: bad unit cost: %w", file, line+2, err)
		}

		if hasMethodColumn {
			cost.PrintingMethod = NormalizeMethod(record[methodColumn])
		} else {
			methods, known := methodOf[cost.BookID]
			if !known {
				return nil, fmt.Errorf("%v line %v: unknown book %v", file, line+2, cost.BookID)
			}
			if len(methods) != 1 {
				return nil, fmt.Errorf("%v line %v: book %v offers %v methods, cost rows must name one", file, line+2, cost.BookID, len(methods))
			}
			cost.PrintingMethod = methods[0]
		}
		costs = append(costs, cost)
	}
	return costs, nil
}

func decodeJSONFile(file string, out any) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var raw any
	if err := json.Unmarshal(content, &raw); err != nil {
		return fmt.Errorf("%v: %w", file, err)
	}
	if err := mapstructure.Decode(raw, out); err != nil {
		return fmt.Errorf("%v: %w", file, err)
	}
	return nil
}
