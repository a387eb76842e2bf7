package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kplc/internal/diag"
	"kplc/internal/source"
	"kplc/internal/symbols"
	"kplc/internal/testkit"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case"+Ext)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runFile(t *testing.T, path string, opts Options) *Result {
	t.Helper()
	fs := source.NewFileSet()
	s, err := Load(fs, path)
	require.NoError(t, err)
	res, err := Run(context.Background(), fs, s, opts)
	require.NoError(t, err)
	return res
}

func codes(b *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, b.Len())
	for _, d := range b.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestScenarios(t *testing.T) {
	res := runFile(t, filepath.Join("testdata", "scenarios"+Ext), Options{})

	require.Empty(t, res.Mismatches)
	require.Zero(t, res.Unexpected)
	require.False(t, res.Failed())
	require.False(t, res.Halted)
	require.Equal(t, []diag.Code{
		diag.SemaDuplicateIdent,
		diag.SemaInvalidType,
		diag.SemaInvalidLValue,
		diag.SemaInvalidLValue,
		diag.SemaUndeclaredIdent,
	}, codes(res.Bag))
	require.NoError(t, res.Table.Validate())
	require.NoError(t, testkit.CheckDiagnosticSpans(res.Bag.Items(), res.FileSet))
	require.Equal(t, 1, res.Resolver.Depth())

	got := diag.FormatShort(res.Bag.Items(), res.FileSet, "", false)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "scenarios.kpl:4:5 duplicate identifier 'x'")
	require.Contains(t, lines[4], "scenarios.kpl:17:8 undeclared identifier 'q'")
}

func TestScenarioSpansPointAtSource(t *testing.T) {
	res := runFile(t, filepath.Join("testdata", "scenarios"+Ext), Options{})
	var undeclared diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code == diag.SemaUndeclaredIdent {
			undeclared = d
		}
	}
	f := res.FileSet.Get(undeclared.Primary.File)
	require.NotNil(t, f)
	require.Equal(t, "q", string(f.Content[undeclared.Primary.Start:undeclared.Primary.End]))
}

func TestUnassertedErrorsFailTheRun(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "check"
as = "constant"
name = "k"
line = 1
col = 1

[[step]]
op = "declare"
name = "k"
kind = "const"
line = 2
col = 1
`)
	res := runFile(t, path, Options{})
	require.True(t, res.Failed())
	require.Equal(t, 1, res.Unexpected)
	require.Equal(t, []diag.Code{diag.SemaUndeclaredConstant}, codes(res.Bag))
	require.Equal(t, 2, res.Steps)
}

func TestFailFastStopsAtFirstUnexpectedError(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "check"
as = "ident"
name = "a"
line = 1
col = 1
expect = "UndeclaredIdentifier"

[[step]]
op = "check"
as = "ident"
name = "b"
line = 2
col = 1

[[step]]
op = "check"
as = "ident"
name = "c"
line = 3
col = 1
`)
	res := runFile(t, path, Options{Policy: diag.PolicyFailFast})
	require.True(t, res.Halted)
	require.Equal(t, 2, res.Steps)
	require.Equal(t, 2, res.Bag.Len())

	collected := runFile(t, path, Options{})
	require.False(t, collected.Halted)
	require.Equal(t, 3, collected.Steps)
	require.Equal(t, 3, collected.Bag.Len())
}

func TestExpectationMismatch(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "declare"
name = "v"
kind = "variable"
line = 1
col = 5

[[step]]
op = "check"
as = "variable"
name = "v"
line = 2
col = 3
expect = "SEM3008"
`)
	res := runFile(t, path, Options{})
	require.Len(t, res.Mismatches, 1)
	m := res.Mismatches[0]
	require.Equal(t, 2, m.Step)
	require.Equal(t, diag.SemaInvalidVariable, m.Want)
	require.Equal(t, diag.UnknownCode, m.Got)
	require.Equal(t, "step 2: expected InvalidVariable, got no diagnostic", m.String())
	require.Equal(t, []diag.Code{diag.ScrExpectMismatch}, codes(res.Bag))
}

func TestDeferredCheckUsesCurrentToken(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "token"
name = "y"
line = 3
col = 9

[[step]]
op = "token"
name = ";"
line = 3
col = 10

[[step]]
op = "check"
as = "ident"
name = "y"
expect = "UndeclaredIdentifier"
`)
	res := runFile(t, path, Options{})
	require.Empty(t, res.Mismatches)
	require.Equal(t, source.LineCol{Line: 3, Col: 10}, res.Bag.Items()[0].Pos)
}

func TestCaseInsensitiveOption(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "declare"
name = "Total"
kind = "variable"
line = 1
col = 5

[[step]]
op = "check"
as = "variable"
name = "TOTAL"
line = 2
col = 1
`)
	require.True(t, runFile(t, path, Options{}).Failed())
	require.False(t, runFile(t, path, Options{CaseInsensitive: true}).Failed())
}

func TestScopeBookkeeping(t *testing.T) {
	path := writeScript(t, `
[[step]]
op = "declare"
name = "v"
kind = "variable"
line = 1
col = 1

[[step]]
op = "enter"
owner = "v"
line = 2
col = 1
expect = "InvalidOwner"

[[step]]
op = "leave"

[[step]]
op = "leave"
line = 4
col = 1
expect = "UnbalancedScope"

[[step]]
op = "enter"
owner = "missing"
expect = "InvalidOwner"

[[step]]
op = "enter"
`)
	res := runFile(t, path, Options{})
	require.Empty(t, res.Mismatches)
	require.Equal(t, 3, res.Resolver.Depth())

	last := res.Bag.Items()[res.Bag.Len()-1]
	require.Equal(t, diag.ScrUnbalancedScope, last.Code)
	require.Equal(t, diag.SevWarning, last.Severity)
	require.NoError(t, res.Table.Validate())
}

func TestMaxDiagnosticsAndDedup(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteString("[[step]]\nop = \"check\"\nas = \"ident\"\nname = \"z\"\nline = 1\ncol = 1\n\n")
	}
	path := writeScript(t, b.String())

	res := runFile(t, path, Options{MaxDiagnostics: 2})
	require.Equal(t, 2, res.Bag.Len())
	require.Equal(t, 2, res.Bag.Dropped())

	deduped := runFile(t, path, Options{Dedup: true})
	require.Equal(t, 1, deduped.Bag.Len())
	require.Equal(t, 4, deduped.Unexpected)
}

func TestForwardsToReporter(t *testing.T) {
	path := writeScript(t, "[[step]]\nop = \"check\"\nas = \"type\"\nname = \"T\"\nline = 1\ncol = 1\n")
	extra := diag.NewBag(0)
	runFile(t, path, Options{Reporter: diag.BagReporter{Bag: extra}})
	require.Equal(t, []diag.Code{diag.SemaUndeclaredType}, codes(extra))
}

func TestCustomPrelude(t *testing.T) {
	path := writeScript(t, "[[step]]\nop = \"check\"\nas = \"type\"\nname = \"BOOL\"\nline = 1\ncol = 1\nexpect = \"ok\"\n")
	res := runFile(t, path, Options{Prelude: []symbols.PreludeEntry{{Name: "BOOL", Kind: symbols.SymbolType}}})
	require.False(t, res.Failed())
}

func TestParseRejectsMalformedSteps(t *testing.T) {
	_, err := Parse("bad"+Ext, []byte(`
[[step]]
op = "declare"
name = "begin"
kind = "variable"

[[step]]
op = "check"
name = "x"

[[step]]
op = "jump"

[[step]]
op = "check"
as = "lvalue"
name = "x"
expect = "NoSuchCode"

[[step]]
op = "declare"
name = "y"
kind = "record"
`))
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "step 1:")
	require.Contains(t, msg, "reserved word")
	require.Contains(t, msg, "step 2: check step needs 'as'")
	require.Contains(t, msg, `step 3: unknown op "jump"`)
	require.Contains(t, msg, `step 4: unknown expected diagnostic "NoSuchCode"`)
	require.Contains(t, msg, `step 5: unknown symbol kind "record"`)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse("bad"+Ext, []byte("[[step]]\nop = \"leave\"\nscope = 3\n"))
	require.ErrorContains(t, err, "step.scope")
}

func TestRunHonoursCancellation(t *testing.T) {
	path := writeScript(t, "[[step]]\nop = \"enter\"\n")
	fs := source.NewFileSet()
	s, err := Load(fs, path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, fs, s, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMissingSourceFile(t *testing.T) {
	path := writeScript(t, "source = \"nope.kpl\"\n")
	fs := source.NewFileSet()
	s, err := Load(fs, path)
	require.NoError(t, err)
	_, err = Run(context.Background(), fs, s, Options{})
	require.ErrorContains(t, err, "nope.kpl")
}
