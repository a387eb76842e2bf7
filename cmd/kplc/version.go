package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kplc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show kplc version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		info := version.Current()
		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case "pretty", "":
			color, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, info.Pretty(useColor(color, isTerminal(os.Stdout))))
			return nil
		default:
			return fmt.Errorf("invalid --format value %q (expected pretty|json)", format)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
