package diag

import (
	"fmt"
	"strings"
)

// Policy tells a driver what to do after a failed check.
type Policy uint8

const (
	// PolicyCollect keeps going and accumulates diagnostics.
	PolicyCollect Policy = iota
	// PolicyFailFast stops at the first error-severity diagnostic.
	PolicyFailFast
)

func (p Policy) String() string {
	if p == PolicyFailFast {
		return "fail-fast"
	}
	return "collect"
}

// ParsePolicy converts "collect" or "fail-fast" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "collect":
		return PolicyCollect, nil
	case "fail-fast", "failfast", "halt":
		return PolicyFailFast, nil
	}
	return PolicyCollect, fmt.Errorf("invalid diagnostics policy %q (expected collect|fail-fast)", s)
}

// ShouldHalt reports whether processing must stop given the error just produced.
func (p Policy) ShouldHalt(err error) bool {
	return p == PolicyFailFast && err != nil
}
