package cli

import (
	"fmt"
	"sort"
	"strings"

	"printalloc/internal/cpsat"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// solverBackends maps --solver flag values to backend constructors.
var solverBackends = map[string]func() cpsat.Solver{
	"gophersat": cpsat.NewGophersatSolver,
	"ortools":   cpsat.NewOrtoolsSolver,
}

// inputFlags is the set of data-file flags shared by every subcommand.
type inputFlags struct {
	Books     string
	Kits      string
	Suppliers string
	Costs     string
	Config    string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Books, "books", "", "path to the books JSON file")
	cmd.Flags().StringVar(&f.Kits, "kits", "", "path to the kits JSON file (optional)")
	cmd.Flags().StringVar(&f.Suppliers, "suppliers", "", "path to the suppliers JSON file")
	cmd.Flags().StringVar(&f.Costs, "costs", "", "path to the costs JSON or CSV file")
	cmd.Flags().StringVar(&f.Config, "config", "", "path to the config JSON file (optional)")
	cmd.MarkFlagRequired("books")
	cmd.MarkFlagRequired("suppliers")
	cmd.MarkFlagRequired("costs")
}

func solverNames() string {
	names := lo.Keys(solverBackends)
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newSolver(name string) (cpsat.Solver, error) {
	constructor, ok := solverBackends[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver %q, available: %v", name, solverNames())
	}
	return constructor(), nil
}

// NewRootCmd creates the top-level "printalloc" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "printalloc",
		Short:         "Cost-optimal allocation of print jobs to suppliers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSolveCmd(),
		newValidateCmd(),
		newDiagnoseCmd(),
	)

	return root
}
