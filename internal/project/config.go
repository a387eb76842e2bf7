package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"kplc/internal/diag"
	"kplc/internal/trace"
)

// Config mirrors kplc.toml.
type Config struct {
	Check  CheckConfig  `toml:"check"`
	Output OutputConfig `toml:"output"`
	Trace  TraceConfig  `toml:"trace"`
}

type CheckConfig struct {
	CaseInsensitive bool `toml:"case_insensitive"`
	FailFast        bool `toml:"fail_fast"`
	MaxDiagnostics  int  `toml:"max_diagnostics"`
	Dedup           bool `toml:"dedup"`
	Jobs            int  `toml:"jobs"`
}

type OutputConfig struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Manifest is a loaded kplc.toml with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// ErrUnknownKeys is wrapped when kplc.toml contains keys kplc does not know.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// DefaultConfig returns the settings used when no kplc.toml exists.
func DefaultConfig() Config {
	return Config{
		Check: CheckConfig{
			MaxDiagnostics: 100,
			Dedup:          true,
		},
		Output: OutputConfig{Format: "pretty", Color: "auto"},
		Trace:  TraceConfig{Level: "off", Output: "-"},
	}
}

// Policy converts the fail_fast switch into a diagnostics policy.
func (c Config) Policy() diag.Policy {
	if c.Check.FailFast {
		return diag.PolicyFailFast
	}
	return diag.PolicyCollect
}

// Validate rejects values the CLI cannot act on.
func (c Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case "pretty", "json":
	default:
		errs = append(errs, fmt.Errorf("[output].format: unsupported value %q (expected pretty|json)", c.Output.Format))
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("[output].color: unsupported value %q (expected auto|on|off)", c.Output.Color))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if c.Check.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("[check].max_diagnostics must be >= 0"))
	}
	if c.Check.Jobs < 0 {
		errs = append(errs, fmt.Errorf("[check].jobs must be >= 0"))
	}
	return errors.Join(errs...)
}

// LoadConfig decodes path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Color = strings.ToLower(strings.TrimSpace(cfg.Output.Color))
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadManifest finds kplc.toml above startDir and loads it. ok is false when
// no file exists; the caller then falls back to DefaultConfig.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}
