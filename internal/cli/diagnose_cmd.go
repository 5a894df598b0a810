package cli

import (
	"fmt"

	"printalloc/internal/model"

	"github.com/spf13/cobra"
)

func newDiagnoseCmd() *cobra.Command {
	var inputs inputFlags

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Explain why a problem has no solution",
		Long: "Diagnose inspects the problem files for structural infeasibility causes " +
			"without running a solver: unassignable books, overloaded printing methods " +
			"and brands that cannot fit under the fairness cap.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadUnvalidated(inputs)
			if err != nil {
				return err
			}

			findings, err := model.Diagnose(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintln(out, "no structural infeasibility causes found")
				return nil
			}
			for _, finding := range findings {
				fmt.Fprintf(out, "[%v] %v\n", finding.Kind, finding.Detail)
			}
			return nil
		},
	}

	inputs.register(cmd)
	return cmd
}

// loadUnvalidated reads the problem files but skips the cross checks, since
// diagnose exists precisely for data that would not validate.
func loadUnvalidated(inputs inputFlags) (model.ProblemData, error) {
	books, err := model.LoadBooks(inputs.Books)
	if err != nil {
		return model.ProblemData{}, err
	}

	var kits []model.Kit
	if inputs.Kits != "" {
		if kits, err = model.LoadKits(inputs.Kits); err != nil {
			return model.ProblemData{}, err
		}
	}

	suppliers, err := model.LoadSuppliers(inputs.Suppliers)
	if err != nil {
		return model.ProblemData{}, err
	}

	costs, err := model.LoadCosts(inputs.Costs, books)
	if err != nil {
		return model.ProblemData{}, err
	}

	config := model.DefaultConfig()
	if inputs.Config != "" {
		if config, err = model.LoadConfig(inputs.Config); err != nil {
			return model.ProblemData{}, err
		}
	}

	return model.ProblemData{
		Books:     books,
		Kits:      kits,
		Suppliers: suppliers,
		Costs:     costs,
		Config:    config,
	}, nil
}
