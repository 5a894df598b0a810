package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"printalloc/internal/model"

	"github.com/stretchr/testify/assert"
)

func writeFixtures(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"books": `[
			{"id": "b1", "title": "First", "brand": "acme", "production_volume": 100,
			 "available_printing_methods": ["offset"]},
			{"id": "b2", "title": "Second", "brand": "acme", "production_volume": 50,
			 "available_printing_methods": ["digital"]}
		]`,
		"suppliers": `[
			{"id": "s1", "name": "North", "capacities": {"offset": 500, "digital": 300}},
			{"id": "s2", "name": "South", "capacities": {"digital": 400}}
		]`,
		"costs": `[
			{"book_id": "b1", "supplier_id": "s1", "printing_method": "offset", "unit_cost": 2.5},
			{"book_id": "b2", "supplier_id": "s1", "printing_method": "digital", "unit_cost": 2.9},
			{"book_id": "b2", "supplier_id": "s2", "printing_method": "digital", "unit_cost": 2.8}
		]`,
	}

	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name+".json")
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths[name] = path
	}
	return paths
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	paths := writeFixtures(t)

	t.Run("accepts consistent files", func(t *testing.T) {
		out, err := execute(t, "validate",
			"--books", paths["books"],
			"--suppliers", paths["suppliers"],
			"--costs", paths["costs"])

		assert.NoError(t, err)
		assert.Contains(t, out, "ok: 2 books")
	})

	t.Run("fails on inconsistent files", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "costs.json")
		assert.NoError(t, os.WriteFile(broken, []byte(`[
			{"book_id": "b2", "supplier_id": "s1", "printing_method": "digital", "unit_cost": 2.9}
		]`), 0o644))

		_, err := execute(t, "validate",
			"--books", paths["books"],
			"--suppliers", paths["suppliers"],
			"--costs", broken)

		assert.ErrorContains(t, err, "b1")
	})
}

func TestSolveCommand(t *testing.T) {
	paths := writeFixtures(t)
	outputFile := filepath.Join(t.TempDir(), "result.json")
	reportDir := filepath.Join(t.TempDir(), "report")
	modelFile := filepath.Join(t.TempDir(), "model.opb")

	out, err := execute(t, "solve",
		"--books", paths["books"],
		"--suppliers", paths["suppliers"],
		"--costs", paths["costs"],
		"--solver", "gophersat",
		"--output", outputFile,
		"--report-dir", reportDir,
		"--dump-model", modelFile)

	assert.NoError(t, err)
	assert.Contains(t, out, "status: OPTIMAL")

	content, err := os.ReadFile(outputFile)
	assert.NoError(t, err)
	var result model.OptimizationResult
	assert.NoError(t, json.Unmarshal(content, &result))
	assert.Equal(t, "OPTIMAL", result.Status)
	assert.Len(t, result.Assignments, 2)
	assert.InDelta(t, 100*2.5+50*2.8, *result.ObjectiveValue, 0.001)

	assert.FileExists(t, filepath.Join(reportDir, "assignments.csv"))
	assert.FileExists(t, filepath.Join(reportDir, "supplier_summary.csv"))
	assert.FileExists(t, filepath.Join(reportDir, "brand_distribution.csv"))

	opb, err := os.ReadFile(modelFile)
	assert.NoError(t, err)
	assert.Contains(t, string(opb), "min:")
}

func TestSolveRejectsUnknownSolver(t *testing.T) {
	paths := writeFixtures(t)

	_, err := execute(t, "solve",
		"--books", paths["books"],
		"--suppliers", paths["suppliers"],
		"--costs", paths["costs"],
		"--solver", "brute-force")

	assert.ErrorContains(t, err, "unknown solver")
}

func TestDiagnoseCommand(t *testing.T) {
	paths := writeFixtures(t)

	t.Run("reports a clean problem", func(t *testing.T) {
		out, err := execute(t, "diagnose",
			"--books", paths["books"],
			"--suppliers", paths["suppliers"],
			"--costs", paths["costs"])

		assert.NoError(t, err)
		assert.Contains(t, out, "no structural infeasibility causes")
	})

	t.Run("names the obstruction", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "costs.json")
		assert.NoError(t, os.WriteFile(broken, []byte(`[
			{"book_id": "b2", "supplier_id": "s1", "printing_method": "digital", "unit_cost": 2.9}
		]`), 0o644))

		out, err := execute(t, "diagnose",
			"--books", paths["books"],
			"--suppliers", paths["suppliers"],
			"--costs", broken)

		assert.NoError(t, err)
		assert.Contains(t, out, model.FindingMissingCosts)
		assert.Contains(t, out, "b1")
	})
}
