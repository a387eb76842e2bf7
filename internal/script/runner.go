package script

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"kplc/internal/diag"
	"kplc/internal/source"
	"kplc/internal/symbols"
	"kplc/internal/token"
	"kplc/internal/trace"
)

// Options configures a replay.
type Options struct {
	Policy          diag.Policy
	CaseInsensitive bool
	// MaxDiagnostics caps the result bag; <= 0 means unbounded.
	MaxDiagnostics int
	Dedup          bool
	// Reporter, if set, also receives every diagnostic.
	Reporter diag.Reporter
	Tracer   trace.Tracer
	// Prelude overrides the built-in declarations; nil installs symbols.BuiltinPrelude.
	Prelude []symbols.PreludeEntry
}

// Mismatch records a step whose outcome differs from its expectation.
type Mismatch struct {
	Step int // 1-based
	Pos  source.LineCol
	Want diag.Code // UnknownCode: no diagnostic expected
	Got  diag.Code // UnknownCode: nothing reported
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %d: expected %s, got %s", m.Step, outcome(m.Want), outcome(m.Got))
}

func outcome(c diag.Code) string {
	if c == diag.UnknownCode {
		return "no diagnostic"
	}
	return c.Name()
}

// Result is the outcome of one replay.
type Result struct {
	Path       string
	Bag        *diag.Bag
	Mismatches []Mismatch
	// Unexpected counts error diagnostics raised by steps without an expectation.
	Unexpected int
	Halted     bool
	Steps      int // steps executed
	FileSet    *source.FileSet
	Table      *symbols.Table
	Resolver   *symbols.Resolver
}

// Failed reports whether the replay should make the run fail.
func (r *Result) Failed() bool {
	return r.Unexpected > 0 || len(r.Mismatches) > 0
}

// stepRecorder remembers the codes reported while a step runs.
type stepRecorder struct {
	next  diag.Reporter
	codes []diag.Code
	errs  int
}

func (s *stepRecorder) Report(d diag.Diagnostic) {
	s.codes = append(s.codes, d.Code)
	if d.Severity >= diag.SevError {
		s.errs++
	}
	s.next.Report(d)
}

func (s *stepRecorder) reset() {
	s.codes = s.codes[:0]
	s.errs = 0
}

type runner struct {
	script   *Script
	opts     Options
	fs       *source.FileSet
	srcFile  source.FileID
	cursor   *token.Tracker
	res      *symbols.Resolver
	rec      *stepRecorder
	result   *Result
	openedAt []int // step index that opened each nested scope
}

// Run replays s. fs must hold the script (see Load); the optional source file
// is loaded into it for span resolution. The returned error covers setup
// failures and cancellation only: check failures end up in Result.Bag.
func Run(ctx context.Context, fs *source.FileSet, s *Script, opts Options) (*Result, error) {
	if fs == nil {
		fs = source.NewFileSet()
	}
	r := &runner{script: s, opts: opts, fs: fs, cursor: &token.Tracker{}}
	if err := r.setup(); err != nil {
		return nil, err
	}
	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		step := &s.Steps[i]
		r.rec.reset()
		stepErr := r.exec(i, step)
		r.result.Steps++
		if err := r.settle(i, step, stepErr); opts.Policy.ShouldHalt(err) {
			r.result.Halted = true
			break
		}
	}
	if !r.result.Halted && r.res.Depth() > 1 {
		r.rec.reset()
		last := s.Steps[r.openedAt[len(r.openedAt)-1]]
		r.report(diag.SevWarning, diag.ScrUnbalancedScope, last.Pos(),
			fmt.Sprintf("%d scope(s) still open at end of script", r.res.Depth()-1))
	}
	if opts.Dedup {
		r.result.Bag.Dedup()
	}
	r.result.Bag.Sort()
	return r.result, nil
}

func (r *runner) setup() error {
	strings := source.NewInterner()
	if r.opts.CaseInsensitive {
		strings = source.NewFoldingInterner()
	}
	table := symbols.NewTable(symbols.Hints{Symbols: uint(len(r.script.Steps))}, strings)
	prelude := r.opts.Prelude
	if prelude == nil {
		prelude = symbols.BuiltinPrelude()
	}
	if err := table.InstallPrelude(prelude); err != nil {
		return fmt.Errorf("%s: prelude: %w", r.script.Path, err)
	}

	rootSpan := source.Span{File: r.script.File}
	if path := r.script.SourcePath(); path != "" {
		id, err := r.fs.Load(path)
		if err != nil {
			return fmt.Errorf("%s: source %q: %w", r.script.Path, r.script.Source, err)
		}
		r.srcFile = id
		rootSpan = source.Span{File: id, End: uint32(len(r.fs.Get(id).Content))} // #nosec G115 -- checked by FileSet.Add
	}

	bag := diag.NewBag(r.opts.MaxDiagnostics)
	var sink diag.Reporter = diag.BagReporter{Bag: bag}
	if r.opts.Dedup {
		sink = diag.NewDedupReporter(sink)
	}
	if r.opts.Reporter != nil {
		sink = diag.MultiReporter{sink, r.opts.Reporter}
	}
	r.rec = &stepRecorder{next: sink}

	root := table.ProgramRoot(rootSpan)
	r.res = symbols.NewResolver(table, root, symbols.ResolverOptions{
		Reporter: r.rec,
		Cursor:   r.cursor,
		Tracer:   r.opts.Tracer,
	})
	r.result = &Result{
		Path:     r.script.Path,
		Bag:      bag,
		FileSet:  r.fs,
		Table:    table,
		Resolver: r.res,
	}
	return nil
}

// exec runs one step and returns the error the checker produced, if any.
func (r *runner) exec(i int, step *Step) error {
	if pos := step.Pos(); pos.IsValid() {
		r.advance(pos, step.Name)
	}
	switch step.Op {
	case OpDeclare:
		_, err := r.res.Declare(step.Name, step.symKind, r.attrs(step))
		if err != nil && !isSemantic(err) {
			return r.report(diag.SevError, diag.ScrInvalidStep, step.Pos(), err.Error())
		}
		return err
	case OpEnter:
		return r.enter(i, step)
	case OpLeave:
		if r.res.Depth() <= 1 {
			return r.report(diag.SevError, diag.ScrUnbalancedScope, step.Pos(), "leave without a matching enter")
		}
		r.res.Leave(r.res.CurrentScope())
		r.openedAt = r.openedAt[:len(r.openedAt)-1]
		return nil
	case OpCheck:
		return r.check(step)
	case OpToken:
		return nil
	}
	return r.report(diag.SevError, diag.ScrInvalidStep, step.Pos(), fmt.Sprintf("unknown op %q", step.Op))
}

func (r *runner) enter(i int, step *Step) error {
	owner := symbols.NoSymbolID
	var ownerErr error
	if step.Owner != "" {
		id, ok := r.res.Table().LookupLocal(r.res.CurrentScope(), step.Owner)
		if !ok {
			ownerErr = fmt.Errorf("scope owner %q is not declared in the enclosing scope", step.Owner)
		} else {
			owner = id
		}
	}
	if ownerErr == nil {
		if _, err := r.res.Enter(step.scopeKind, owner, r.cursor.Current().Span); err != nil {
			ownerErr = err
		} else {
			r.openedAt = append(r.openedAt, i)
			return nil
		}
	}
	r.report(diag.SevError, diag.SemaInvalidOwner, step.Pos(), ownerErr.Error())
	// keep enter/leave pairing intact for the rest of the script
	if _, err := r.res.Enter(symbols.ScopeBlock, symbols.NoSymbolID, r.cursor.Current().Span); err != nil {
		return err
	}
	r.openedAt = append(r.openedAt, i)
	return ownerErr
}

func (r *runner) check(step *Step) error {
	var err error
	switch step.As {
	case AsIdent:
		_, err = r.res.CheckDeclared(step.Name)
	case AsConstant:
		_, err = r.res.CheckConstant(step.Name)
	case AsType:
		_, err = r.res.CheckType(step.Name)
	case AsVariable:
		_, err = r.res.CheckVariable(step.Name)
	case AsFunction:
		_, err = r.res.CheckFunction(step.Name)
	case AsProcedure:
		_, err = r.res.CheckProcedure(step.Name)
	case AsLValue:
		_, err = r.res.CheckLValue(step.Name)
	case AsFresh:
		err = r.res.CheckFresh(step.Name)
	}
	return err
}

// settle compares what the step reported against its expectation. It returns
// nil when the outcome was expected.
func (r *runner) settle(i int, step *Step, stepErr error) error {
	got := diag.UnknownCode
	if len(r.rec.codes) > 0 {
		got = r.rec.codes[0]
	}
	if !step.expect.asserted {
		if r.rec.errs == 0 {
			return nil
		}
		r.result.Unexpected += r.rec.errs
		if stepErr == nil {
			stepErr = fmt.Errorf("step %d reported %s", i+1, got.Name())
		}
		return stepErr
	}
	if got == step.expect.code {
		return nil
	}
	m := Mismatch{Step: i + 1, Pos: step.Pos(), Want: step.expect.code, Got: got}
	r.result.Mismatches = append(r.result.Mismatches, m)
	return r.report(diag.SevError, diag.ScrExpectMismatch, step.Pos(), m.String())
}

func (r *runner) attrs(step *Step) symbols.SymbolAttrs {
	attrs := symbols.SymbolAttrs{TypeName: step.Type}
	if step.ByRef {
		attrs.Flags |= symbols.SymbolFlagByRef
	}
	if step.Value != nil {
		attrs.Value = &symbols.ConstValue{Int: *step.Value}
	}
	if step.symKind.IsCallable() {
		attrs.Signature = &symbols.Signature{Result: step.Type}
	}
	return attrs
}

// advance makes the identifier at pos the current token.
func (r *runner) advance(pos source.LineCol, text string) {
	kind := token.Ident
	if kw, ok := token.LookupKeyword(text); ok {
		kind = kw
	}
	r.cursor.Advance(token.Token{
		Kind: kind,
		Span: r.spanAt(pos, text),
		Pos:  pos,
		Text: text,
	})
	trace.Point(r.opts.Tracer, trace.ScopeNode, "token", text, map[string]string{
		"line": strconv.FormatUint(uint64(pos.Line), 10),
		"col":  strconv.FormatUint(uint64(pos.Col), 10),
	})
}

func (r *runner) spanAt(pos source.LineCol, text string) source.Span {
	f := r.fs.Get(r.srcFile)
	if f == nil {
		return source.Span{File: r.script.File}
	}
	start, ok := f.Offset(pos)
	if !ok {
		return source.Span{File: f.ID}
	}
	end := start + uint32(len(text)) // #nosec G115 -- identifier length
	if limit := uint32(len(f.Content)); end > limit { // #nosec G115
		end = limit
	}
	return source.Span{File: f.ID, Start: start, End: end}
}

// report emits a replay-level diagnostic at pos (or the current token).
func (r *runner) report(sev diag.Severity, code diag.Code, pos source.LineCol, msg string) error {
	tok := r.cursor.Current()
	span := tok.Span
	if !pos.IsValid() {
		pos = tok.Pos
	}
	if span.File == source.NoFileID {
		span.File = r.script.File
	}
	diag.NewReportBuilder(r.rec, sev, code, span, pos, msg).Emit()
	return fmt.Errorf("%s: %s", code.Name(), msg)
}

func isSemantic(err error) bool {
	var se *symbols.SemanticError
	return errors.As(err, &se)
}
