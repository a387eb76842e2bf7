package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kplc/internal/project"
)

// flagKeys maps configuration keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"check.case_insensitive": "case-insensitive",
	"check.fail_fast":        "fail-fast",
	"check.max_diagnostics":  "max-diagnostics",
	"check.dedup":            "dedup",
	"check.jobs":             "jobs",
	"output.format":          "format",
	"output.color":           "color",
	"trace.level":            "trace-level",
	"trace.output":           "trace",
}

// loadSettings resolves the effective configuration: kplc.toml (or the
// built-in defaults) overridden by KPLC_* environment variables, overridden by
// flags the user actually set.
func loadSettings(cmd *cobra.Command) (project.Config, string, error) {
	cfg := project.DefaultConfig()
	source := "defaults"

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, "", err
	}
	if configPath != "" {
		cfg, err = project.LoadConfig(configPath)
		if err != nil {
			return cfg, "", err
		}
		source = configPath
	} else {
		manifest, ok, err := project.LoadManifest(".")
		if err != nil {
			return cfg, "", err
		}
		if ok {
			cfg = manifest.Config
			source = manifest.Path
		}
	}

	v := viper.New()
	v.SetEnvPrefix("KPLC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("check.case_insensitive", cfg.Check.CaseInsensitive)
	v.SetDefault("check.fail_fast", cfg.Check.FailFast)
	v.SetDefault("check.max_diagnostics", cfg.Check.MaxDiagnostics)
	v.SetDefault("check.dedup", cfg.Check.Dedup)
	v.SetDefault("check.jobs", cfg.Check.Jobs)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.color", cfg.Output.Color)
	v.SetDefault("trace.level", cfg.Trace.Level)
	v.SetDefault("trace.output", cfg.Trace.Output)

	for key, name := range flagKeys {
		if f := lookupFlag(cmd, name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, "", fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}

	cfg.Check.CaseInsensitive = v.GetBool("check.case_insensitive")
	cfg.Check.FailFast = v.GetBool("check.fail_fast")
	cfg.Check.MaxDiagnostics = v.GetInt("check.max_diagnostics")
	cfg.Check.Dedup = v.GetBool("check.dedup")
	cfg.Check.Jobs = v.GetInt("check.jobs")
	cfg.Output.Format = strings.ToLower(v.GetString("output.format"))
	cfg.Output.Color = strings.ToLower(v.GetString("output.color"))
	cfg.Trace.Level = v.GetString("trace.level")
	cfg.Trace.Output = v.GetString("trace.output")

	if err := cfg.Validate(); err != nil {
		return cfg, "", fmt.Errorf("%s: %w", source, err)
	}
	return cfg, source, nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.InheritedFlags().Lookup(name)
}

// useColor applies the auto|on|off colour setting to a stream.
func useColor(setting string, tty bool) bool {
	switch setting {
	case "on":
		return true
	case "off":
		return false
	}
	return tty
}
