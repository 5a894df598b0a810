package model

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"printalloc/internal/cpsat"

	"github.com/stretchr/testify/assert"
)

func readCSV(t *testing.T, file string) [][]string {
	t.Helper()
	handle, err := os.Open(file)
	assert.NoError(t, err)
	defer handle.Close()

	rows, err := csv.NewReader(handle).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestExportReport(t *testing.T) {
	data := validProblem()
	result, err := NewAllocator(cpsat.NewGophersatSolver()).Solve(data)
	assert.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "report")
	assert.NoError(t, ExportReport(dir, data, result))

	t.Run("assignments are one row per book, sorted", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "assignments.csv"))

		assert.Len(t, rows, 4)
		assert.Equal(t, []string{
			"book_id", "title", "brand", "kit_id",
			"supplier_id", "printing_method", "production_volume", "unit_cost", "total_cost",
		}, rows[0])
		assert.Equal(t, "b1", rows[1][0])
		assert.Equal(t, "b2", rows[2][0])
		assert.Equal(t, "b3", rows[3][0])
		assert.Equal(t, "k1", rows[2][3])
	})

	t.Run("supplier summary covers every declared method", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "supplier_summary.csv"))

		// s1 declares two methods, s2 one, plus the header.
		assert.Len(t, rows, 4)
		assert.Equal(t, "supplier_id", rows[0][0])
	})

	t.Run("brand distribution groups by brand and supplier", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "brand_distribution.csv"))

		// acme at s1 and s2, other at s2, plus the header.
		assert.Len(t, rows, 4)
		assert.Equal(t, []string{"brand", "supplier_id", "books", "total_volume"}, rows[0])
	})

	t.Run("refuses unsolved results", func(t *testing.T) {
		err := ExportReport(t.TempDir(), data, OptimizationResult{Status: "INFEASIBLE"})

		assert.ErrorContains(t, err, "INFEASIBLE")
	})
}
