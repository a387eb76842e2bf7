package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kplc/internal/diag"
	"kplc/internal/diagfmt"
	"kplc/internal/script"
	"kplc/internal/source"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes <script>",
	Short: "Replay one script and print the resulting scope tree",
	Long: `Replay a single script and dump every scope it created with the symbols
declared in it. Builtins installed by the prelude are listed under "globals".
The table is verified after the dump; inconsistencies are reported as errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runScopes,
}

func init() {
	scopesCmd.Flags().Bool("diagnostics", false, "also print diagnostics raised by the replay")
}

func runScopes(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer cleanup()

	showDiags, err := cmd.Flags().GetBool("diagnostics")
	if err != nil {
		return err
	}

	fileSet := source.NewFileSet()
	s, err := script.Load(fileSet, args[0])
	if err != nil {
		return err
	}
	res, err := script.Run(cmd.Context(), fileSet, s, script.Options{
		Policy:          diag.PolicyCollect,
		CaseInsensitive: cfg.Check.CaseInsensitive,
		MaxDiagnostics:  cfg.Check.MaxDiagnostics,
		Dedup:           cfg.Check.Dedup,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := res.Table.Dump(out); err != nil {
		return err
	}
	if showDiags && res.Bag.Len() > 0 {
		fmt.Fprintln(out)
		diagfmt.Pretty(out, res.Bag.Items(), fileSet, diagfmt.PrettyOpts{
			Color:     useColor(cfg.Output.Color, isTerminal(os.Stdout)),
			ShowNotes: true,
		})
	}
	if err := res.Table.Validate(); err != nil {
		return fmt.Errorf("symbol table is inconsistent:\n%w", err)
	}
	return nil
}
