package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"kplc/internal/diag"
	"kplc/internal/source"
	"kplc/internal/symbols"
	"kplc/internal/token"
)

// Ext is the file suffix of replay scripts.
const Ext = ".kpls.toml"

// Op names a step.
type Op string

const (
	OpDeclare Op = "declare"
	OpEnter   Op = "enter"
	OpLeave   Op = "leave"
	OpCheck   Op = "check"
	OpToken   Op = "token"
)

// CheckAs selects which check a "check" step runs.
type CheckAs string

const (
	AsIdent     CheckAs = "ident"
	AsConstant  CheckAs = "constant"
	AsType      CheckAs = "type"
	AsVariable  CheckAs = "variable"
	AsFunction  CheckAs = "function"
	AsProcedure CheckAs = "procedure"
	AsLValue    CheckAs = "lvalue"
	AsFresh     CheckAs = "fresh"
)

// Step is one recorded event.
type Step struct {
	Op     Op      `toml:"op"`
	Name   string  `toml:"name"`
	Kind   string  `toml:"kind"`
	Owner  string  `toml:"owner"`
	As     CheckAs `toml:"as"`
	Line   uint32  `toml:"line"`
	Col    uint32  `toml:"col"`
	Type   string  `toml:"type"`
	ByRef  bool    `toml:"byref"`
	Value  *int64  `toml:"value"`
	Expect string  `toml:"expect"`

	symKind   symbols.SymbolKind
	scopeKind symbols.ScopeKind
	expect    expectation
}

type expectation struct {
	asserted bool
	code     diag.Code // UnknownCode with asserted means "must pass"
}

// Script is a parsed replay file.
type Script struct {
	Path   string        `toml:"-"`
	File   source.FileID `toml:"-"`
	Source string        `toml:"source"`
	Steps  []Step        `toml:"step"`
}

// Pos returns the step position, or an invalid LineCol when the step leaves
// the cursor where it is.
func (s *Step) Pos() source.LineCol {
	return source.LineCol{Line: s.Line, Col: s.Col}
}

// Load reads path into fs and parses it.
func Load(fs *source.FileSet, path string) (*Script, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(path, fs.Get(id).Content)
	if err != nil {
		return nil, err
	}
	s.File = id
	return s, nil
}

// Parse decodes and validates a script. All malformed steps are reported
// together.
func Parse(path string, data []byte) (*Script, error) {
	s := &Script{Path: path}
	meta, err := toml.Decode(string(data), s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	var errs []error
	for i := range s.Steps {
		if err := s.Steps[i].prepare(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SourcePath resolves the optional source reference against the script's
// directory.
func (s *Script) SourcePath() string {
	if s.Source == "" {
		return ""
	}
	if filepath.IsAbs(s.Source) {
		return s.Source
	}
	return filepath.Join(filepath.Dir(s.Path), filepath.FromSlash(s.Source))
}

func (s *Step) prepare() error {
	s.Op = Op(strings.ToLower(strings.TrimSpace(string(s.Op))))
	s.As = CheckAs(strings.ToLower(strings.TrimSpace(string(s.As))))
	if s.Col > 0 && s.Line == 0 {
		return fmt.Errorf("col without line")
	}
	if err := s.parseExpect(); err != nil {
		return err
	}
	switch s.Op {
	case OpDeclare:
		if err := checkName(s.Name); err != nil {
			return err
		}
		kind, err := symbols.ParseSymbolKind(s.Kind)
		if err != nil {
			return err
		}
		s.symKind = kind
	case OpEnter:
		s.scopeKind = symbols.ScopeBlock
		if s.Owner != "" {
			s.scopeKind = symbols.ScopeRoutine
		}
	case OpLeave:
	case OpCheck:
		switch s.As {
		case AsIdent, AsConstant, AsType, AsVariable, AsFunction, AsProcedure, AsLValue, AsFresh:
		case "":
			return fmt.Errorf("check step needs 'as'")
		default:
			return fmt.Errorf("unknown check %q", s.As)
		}
		if err := checkName(s.Name); err != nil {
			return err
		}
	case OpToken:
		if s.Line == 0 {
			return fmt.Errorf("token step needs a line")
		}
	case "":
		return fmt.Errorf("missing op")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func (s *Step) parseExpect() error {
	raw := strings.TrimSpace(s.Expect)
	switch strings.ToLower(raw) {
	case "":
		return nil
	case "ok":
		s.expect = expectation{asserted: true}
		return nil
	}
	code, ok := diag.ParseCode(raw)
	if !ok {
		return fmt.Errorf("unknown expected diagnostic %q", raw)
	}
	s.expect = expectation{asserted: true, code: code}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("missing name")
	}
	if kw, ok := token.LookupKeyword(name); ok {
		return fmt.Errorf("%q is the reserved word %s", name, kw)
	}
	return nil
}
