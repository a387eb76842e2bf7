package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kplc/internal/diag"
	"kplc/internal/diagfmt"
	"kplc/internal/driver"
	"kplc/internal/observ"
	"kplc/internal/script"
)

// errCheckFailed is returned after diagnostics have been printed; main only
// sets the exit status for it.
var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [flags] <path>...",
	Short: "Replay scripts through the scope resolver and report diagnostics",
	Long: `Replay every *.kpls.toml script found under the given paths. Each script
declares identifiers, opens and closes scopes and runs identifier checks
against a KPL source file; kplc reports the resulting diagnostics and
compares them with the expectations recorded in the script.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Bool("fail-fast", false, "stop a script at its first unexpected error")
	checkCmd.Flags().Bool("dedup", true, "drop repeated diagnostics at the same position")
	checkCmd.Flags().Int("jobs", 0, "parallel workers (0 = GOMAXPROCS)")
	checkCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	checkCmd.Flags().Bool("clear-cache", false, "drop cached results before checking")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().String("path-mode", "auto", "path display (auto|absolute|relative|basename)")
	checkCmd.Flags().Bool("timings", false, "print phase timings to stderr")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer cleanup()

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	pathModeValue, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return err
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeValue)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeValue)
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return err
	}
	opts := driver.Options{
		Script: script.Options{
			Policy:          cfg.Policy(),
			CaseInsensitive: cfg.Check.CaseInsensitive,
			MaxDiagnostics:  cfg.Check.MaxDiagnostics,
			Dedup:           cfg.Check.Dedup,
		},
		Jobs:    cfg.Check.Jobs,
		BaseDir: baseDir,
	}
	if !noCache {
		cache, err := driver.OpenDiskCache("kplc")
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: result cache disabled: %v\n", err)
		} else {
			if clearCache {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
			}
			opts.Cache = cache
		}
	}

	files, err := driver.ListScripts(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s scripts found", script.Ext)
	}

	var res *driver.Result
	if cfg.Output.Format == "pretty" && shouldUseTUI(mode) {
		res, err = runCheckWithUI(cmd.Context(), "kplc check", files, opts)
	} else {
		res, err = driver.CheckFiles(cmd.Context(), files, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorOut := useColor(cfg.Output.Color, isTerminal(os.Stdout))
	switch cfg.Output.Format {
	case "json":
		if err := writeJSON(out, res, pathMode); err != nil {
			return err
		}
	default:
		writePretty(out, res, pathMode, colorOut)
	}

	if timings {
		reports := make([]observ.Report, 0, len(res.Files)+1)
		reports = append(reports, res.Timing)
		for i := range res.Files {
			reports = append(reports, res.Files[i].Timing)
		}
		fmt.Fprint(cmd.ErrOrStderr(), observ.Merge(reports...).Summary("timings"))
	}

	if res.Failed() {
		return errCheckFailed
	}
	return nil
}

func writePretty(w io.Writer, res *driver.Result, pathMode diagfmt.PathMode, colorOut bool) {
	opts := diagfmt.PrettyOpts{
		Color:       colorOut,
		PathMode:    pathMode,
		ShowNotes:   true,
		ShowPreview: true,
	}
	warnings := 0
	for i := range res.Files {
		fr := &res.Files[i]
		if fr.Err != nil {
			fmt.Fprintf(w, "%s: error: %v\n", fr.Path, fr.Err)
			continue
		}
		diagfmt.Pretty(w, fr.Diagnostics, fr.FileSet, opts)
		for _, d := range fr.Diagnostics {
			if d.Severity == diag.SevWarning {
				warnings++
			}
		}
		if fr.Halted {
			fmt.Fprintf(w, "%s: stopped after step %d (fail-fast)\n", fr.Path, fr.Steps)
		}
	}
	diagfmt.Summary(w, len(res.Files), res.ErrorCount(), warnings, colorOut)
}

func writeJSON(w io.Writer, res *driver.Result, pathMode diagfmt.PathMode) error {
	opts := diagfmt.JSONOpts{PathMode: pathMode, IncludeNotes: true}
	var out diagfmt.DiagnosticsOutput
	for i := range res.Files {
		fr := &res.Files[i]
		if fr.Err != nil {
			continue
		}
		out.Append(diagfmt.BuildDiagnosticsOutput(fr.Diagnostics, fr.FileSet, opts))
	}
	return diagfmt.WriteJSON(w, out)
}
