package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the kplc CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the machine-readable build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Current snapshots the build variables.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
}

// Colored renders the version with each numeric component highlighted.
// Versions that are not major.minor.patch[-suffix] are returned unchanged.
func Colored(v string, enabled bool) string {
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	colors := []*color.Color{versionMajorColor, versionMinorColor, versionPatchColor}
	out := make([]string, 3)
	for i, part := range parts {
		c := *colors[i]
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		out[i] = c.Sprint(part)
	}
	s := strings.Join(out, ".")
	if suffix != "" {
		s += "-" + suffix
	}
	return s
}

// String renders Info for humans.
func (i Info) String() string {
	return i.Pretty(false)
}

// Pretty renders Info on one or more lines, optionally in colour.
func (i Info) Pretty(useColor bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kplc %s", Colored(i.Version, useColor))
	if i.GitCommit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", i.GitCommit)
	}
	if i.BuildDate != "" {
		fmt.Fprintf(&b, "\nbuilt:  %s", i.BuildDate)
	}
	return b.String()
}
