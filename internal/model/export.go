package model

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// ExportReport writes the three report CSVs for a solved result into dir,
// creating it if needed: assignments.csv (one row per book),
// supplier_summary.csv (per supplier and method) and brand_distribution.csv
// (per brand and supplier). Rows are sorted so reruns diff cleanly.
func ExportReport(dir string, data ProblemData, result OptimizationResult) error {
	if !result.Solved() {
		return fmt.Errorf("cannot export a %v result", result.Status)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := exportAssignments(filepath.Join(dir, "assignments.csv"), data, result); err != nil {
		return err
	}
	if err := exportSupplierSummary(filepath.Join(dir, "supplier_summary.csv"), data, result); err != nil {
		return err
	}
	return exportBrandDistribution(filepath.Join(dir, "brand_distribution.csv"), data, result)
}

func exportAssignments(file string, data ProblemData, result OptimizationResult) error {
	books := lo.SliceToMap(data.Books, func(book Book) (string, Book) {
		return book.ID, book
	})

	assignments := make([]Assignment, len(result.Assignments))
	copy(assignments, result.Assignments)
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].BookID < assignments[j].BookID
	})

	rows := [][]string{{
		"book_id", "title", "brand", "kit_id",
		"supplier_id", "printing_method", "production_volume", "unit_cost", "total_cost",
	}}
	for _, assignment := range assignments {
		book := books[assignment.BookID]
		rows = append(rows, []string{
			assignment.BookID,
			book.Title,
			book.Brand,
			book.KitID,
			assignment.SupplierID,
			assignment.PrintingMethod,
			fmt.Sprintf("%d", assignment.ProductionVolume),
			fmt.Sprintf("%.4f", assignment.UnitCost),
			fmt.Sprintf("%.2f", assignment.TotalCost),
		})
	}
	return writeCSV(file, rows)
}

func exportSupplierSummary(file string, data ProblemData, result OptimizationResult) error {
	type supplierMethod struct{ SupplierID, Method string }
	volume := make(map[supplierMethod]int)
	bookCount := make(map[supplierMethod]int)
	for _, assignment := range result.Assignments {
		key := supplierMethod{assignment.SupplierID, assignment.PrintingMethod}
		volume[key] += assignment.ProductionVolume
		bookCount[key]++
	}

	rows := [][]string{{
		"supplier_id", "printing_method", "capacity", "assigned_volume", "assigned_books", "utilization_pct",
	}}
	for _, supplier := range data.Suppliers {
		methods := lo.Keys(supplier.Capacities)
		sort.Strings(methods)
		for _, method := range methods {
			key := supplierMethod{supplier.ID, method}
			rows = append(rows, []string{
				supplier.ID,
				method,
				fmt.Sprintf("%d", supplier.Capacities[method]),
				fmt.Sprintf("%d", volume[key]),
				fmt.Sprintf("%d", bookCount[key]),
				fmt.Sprintf("%.2f", result.SupplierUtilization[supplier.ID][method]),
			})
		}
	}
	sortRows(rows)
	return writeCSV(file, rows)
}

func exportBrandDistribution(file string, data ProblemData, result OptimizationResult) error {
	books := lo.SliceToMap(data.Books, func(book Book) (string, Book) {
		return book.ID, book
	})

	type brandSupplier struct{ Brand, SupplierID string }
	bookCount := make(map[brandSupplier]int)
	volume := make(map[brandSupplier]int)
	for _, assignment := range result.Assignments {
		key := brandSupplier{books[assignment.BookID].Brand, assignment.SupplierID}
		bookCount[key]++
		volume[key] += assignment.ProductionVolume
	}

	rows := [][]string{{"brand", "supplier_id", "books", "total_volume"}}
	for key, count := range bookCount {
		rows = append(rows, []string{
			key.Brand,
			key.SupplierID,
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%d", volume[key]),
		})
	}
	sortRows(rows)
	return writeCSV(file, rows)
}

// sortRows orders the data rows lexicographically, leaving the header first.
func sortRows(rows [][]string) {
	sort.Slice(rows[1:], func(i, j int) bool {
		left, right := rows[i+1], rows[j+1]
		for k := range left {
			if left[k] != right[k] {
				return left[k] < right[k]
			}
		}
		return false
	})
}

func writeCSV(file string, rows [][]string) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	writer := csv.NewWriter(handle)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
