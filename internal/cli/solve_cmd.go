package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"printalloc/internal/model"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newSolveCmd() *cobra.Command {
	var (
		inputs    inputFlags
		solver    string
		output    string
		reportDir string
		dumpModel string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build and solve the allocation model",
		Long: "Solve loads the problem files, builds the constraint model, runs the " +
			"selected backend within the configured budget and reports the resulting " +
			"allocation. An INFEASIBLE or UNKNOWN outcome is a regular result, not an error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := model.LoadProblemData(inputs.Books, inputs.Kits, inputs.Suppliers, inputs.Costs, inputs.Config)
			if err != nil {
				return err
			}

			if dumpModel != "" {
				built, err := model.BuildModel(data)
				if err != nil {
					return err
				}
				if err := os.WriteFile(dumpModel, []byte(built.ToOPB()), 0o644); err != nil {
					return err
				}
			}

			backend, err := newSolver(solver)
			if err != nil {
				return err
			}

			allocator := model.NewAllocator(backend)
			result, err := allocator.Solve(data)
			if err != nil {
				return err
			}

			printSummary(cmd, data, result, verbose)

			if result.Solved() && !allocator.Verify(data, result) {
				return fmt.Errorf("solution audit failed, refusing to report an invalid allocation")
			}

			if output != "" {
				if err := writeResultJSON(output, result); err != nil {
					return err
				}
			}
			if reportDir != "" && result.Solved() {
				if err := model.ExportReport(reportDir, data, result); err != nil {
					return err
				}
			}
			return nil
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringVar(&solver, "solver", "gophersat", "solving backend ("+solverNames()+")")
	cmd.Flags().StringVar(&output, "output", "", "write the full result as JSON to this file")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "write the CSV report files into this directory")
	cmd.Flags().StringVar(&dumpModel, "dump-model", "", "write the built model in OPB format to this file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every assignment and utilization")
	return cmd
}

func printSummary(cmd *cobra.Command, data model.ProblemData, result model.OptimizationResult, verbose bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %v\n", result.Status)
	fmt.Fprintf(out, "books: %v, total volume: %v\n", result.TotalBooks, result.TotalVolume)
	fmt.Fprintf(out, "solve time: %.2fs\n", result.SolveTimeSeconds)
	if !result.Solved() {
		return
	}
	if result.ObjectiveValue != nil {
		fmt.Fprintf(out, "total cost: %.2f\n", *result.ObjectiveValue)
	}
	if !verbose {
		return
	}

	for _, assignment := range result.Assignments {
		fmt.Fprintf(out, "  %v -> %v (%v), volume %v, cost %.2f\n",
			assignment.BookID, assignment.SupplierID, assignment.PrintingMethod,
			assignment.ProductionVolume, assignment.TotalCost)
	}
	for _, supplier := range data.Suppliers {
		methods := lo.Keys(supplier.Capacities)
		sort.Strings(methods)
		for _, method := range methods {
			fmt.Fprintf(out, "  %v/%v utilization: %.1f%%\n",
				supplier.ID, method, result.SupplierUtilization[supplier.ID][method])
		}
	}
}

func writeResultJSON(file string, result model.OptimizationResult) error {
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, append(content, '\n'), 0o644)
}
