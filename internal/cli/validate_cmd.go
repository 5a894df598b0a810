package cli

import (
	"fmt"

	"printalloc/internal/model"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var inputs inputFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the problem files without solving",
		Long: "Validate loads the problem files and runs the full consistency checks: " +
			"referential integrity, kit membership and per-book assignability. " +
			"The exit code is non-zero when the data is rejected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := model.LoadProblemData(inputs.Books, inputs.Kits, inputs.Suppliers, inputs.Costs, inputs.Config)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %v books, %v kits, %v suppliers, %v cost entries\n",
				len(data.Books), len(data.Kits), len(data.Suppliers), len(data.Costs))
			return nil
		},
	}

	inputs.register(cmd)
	return cmd
}
