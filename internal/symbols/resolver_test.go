package symbols

import (
	"errors"
	"testing"

	"kplc/internal/diag"
	"kplc/internal/source"
	"kplc/internal/token"
)

type fixture struct {
	table  *Table
	res    *Resolver
	bag    *diag.Bag
	cursor *token.Tracker
}

func newFixture(t *testing.T, strings *source.Interner) *fixture {
	t.Helper()
	table := NewTable(Hints{}, strings)
	if err := table.InstallPrelude(BuiltinPrelude()); err != nil {
		t.Fatalf("install prelude: %v", err)
	}
	root := table.ProgramRoot(source.Span{File: 1})
	bag := diag.NewBag(0)
	cursor := &token.Tracker{}
	res := NewResolver(table, root, ResolverOptions{
		Reporter: diag.BagReporter{Bag: bag},
		Cursor:   cursor,
	})
	return &fixture{table: table, res: res, bag: bag, cursor: cursor}
}

// at moves the cursor onto an identifier at line:col.
func (f *fixture) at(line, col uint32, text string) {
	f.cursor.Advance(token.Token{
		Kind: token.Ident,
		Span: source.Span{File: 1, Start: line*100 + col, End: line*100 + col + uint32(len(text))},
		Pos:  source.LineCol{Line: line, Col: col},
		Text: text,
	})
}

func (f *fixture) declare(t *testing.T, name string, kind SymbolKind) SymbolID {
	t.Helper()
	id, err := f.res.Declare(name, kind, SymbolAttrs{})
	if err != nil {
		t.Fatalf("declare %s: %v", name, err)
	}
	return id
}

func (f *fixture) enter(t *testing.T, owner SymbolID) ScopeID {
	t.Helper()
	kind := ScopeBlock
	if owner.IsValid() {
		kind = ScopeRoutine
	}
	scope, err := f.res.Enter(kind, owner, source.Span{File: 1})
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	return scope
}

func (f *fixture) wantCodes(t *testing.T, codes ...diag.Code) {
	t.Helper()
	items := f.bag.Items()
	if len(items) != len(codes) {
		t.Fatalf("expected %d diagnostics, got %d: %+v", len(codes), len(items), items)
	}
	for i, code := range codes {
		if items[i].Code != code {
			t.Fatalf("diagnostic %d: expected %s, got %s", i, code.Name(), items[i].Code.Name())
		}
	}
}

func TestResolverLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	fn := f.declare(t, "F", SymbolFunction)
	body := f.enter(t, fn)
	f.declare(t, "n", SymbolParameter)
	f.declare(t, "tmp", SymbolVariable)

	if got := f.res.CurrentScope(); got != body {
		t.Fatalf("expected current scope %d, got %d", body, got)
	}
	if f.res.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", f.res.Depth())
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	f.res.Leave(body)
	if f.res.CurrentScope() != f.table.Root() {
		t.Fatalf("expected program scope after leave")
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate after leave: %v", err)
	}
	f.wantCodes(t)
}

func TestProcedureIsNotAnLValueInsideItsBody(t *testing.T) {
	f := newFixture(t, nil)
	proc := f.declare(t, "P", SymbolProcedure)
	f.enter(t, proc)

	f.at(4, 3, "P")
	id, err := f.res.CheckLValue("P")
	if !IsCode(err, diag.SemaInvalidLValue) {
		t.Fatalf("expected InvalidLValue, got %v", err)
	}
	if id != proc {
		t.Fatalf("expected found procedure to be returned, got %d", id)
	}
	f.wantCodes(t, diag.SemaInvalidLValue)
}

func TestFunctionResultAssignment(t *testing.T) {
	f := newFixture(t, nil)
	fn := f.declare(t, "F", SymbolFunction)
	f.enter(t, fn)

	id, err := f.res.CheckLValue("F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != fn {
		t.Fatalf("expected %d, got %d", fn, id)
	}
	f.wantCodes(t)
}

func TestFunctionResultAssignmentInNestedBlock(t *testing.T) {
	f := newFixture(t, nil)
	fn := f.declare(t, "F", SymbolFunction)
	f.enter(t, fn)
	f.enter(t, NoSymbolID)

	// only the routine's own body scope carries the owner
	if _, err := f.res.CheckLValue("F"); !IsCode(err, diag.SemaInvalidLValue) {
		t.Fatalf("expected InvalidLValue from nested block, got %v", err)
	}
}

func TestOuterVariableVisibleFromBlock(t *testing.T) {
	f := newFixture(t, nil)
	x := f.declare(t, "x", SymbolVariable)
	f.enter(t, NoSymbolID)

	id, err := f.res.CheckVariable("x")
	if err != nil || id != x {
		t.Fatalf("expected x=%d, got %d (%v)", x, id, err)
	}
	f.wantCodes(t)
}

func TestKindMismatch(t *testing.T) {
	f := newFixture(t, nil)
	c := f.declare(t, "c", SymbolConstant)

	f.at(7, 12, "c")
	id, err := f.res.CheckType("c")
	if id != c {
		t.Fatalf("expected found constant %d, got %d", c, id)
	}
	var se *SemanticError
	if !errors.As(err, &se) {
		t.Fatalf("expected SemanticError, got %v", err)
	}
	if se.Code != diag.SemaInvalidType || se.Found != SymbolConstant {
		t.Fatalf("unexpected error %+v", se)
	}
	if se.Pos != (source.LineCol{Line: 7, Col: 12}) {
		t.Fatalf("unexpected position %+v", se.Pos)
	}
	if se.Error() != "7:12: InvalidType: c" {
		t.Fatalf("unexpected message %q", se.Error())
	}
	f.wantCodes(t, diag.SemaInvalidType)
	if d := f.bag.Items()[0]; d.Pos.Line != 7 || d.Pos.Col != 12 {
		t.Fatalf("diagnostic at %+v", d.Pos)
	}
}

func TestUndeclaredIdentifier(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.res.CheckDeclared("q")
	if id != NoSymbolID {
		t.Fatalf("expected no symbol, got %d", id)
	}
	if CodeOf(err) != diag.SemaUndeclaredIdent {
		t.Fatalf("expected UndeclaredIdentifier, got %v", err)
	}
	f.wantCodes(t, diag.SemaUndeclaredIdent)
}

func TestDuplicateInSameScope(t *testing.T) {
	f := newFixture(t, nil)
	f.at(2, 5, "x")
	first := f.declare(t, "x", SymbolVariable)

	f.at(3, 5, "x")
	id, err := f.res.Declare("x", SymbolVariable, SymbolAttrs{})
	if !IsCode(err, diag.SemaDuplicateIdent) {
		t.Fatalf("expected DuplicateIdentifier, got %v", err)
	}
	if id != NoSymbolID {
		t.Fatalf("failed declaration must not allocate, got %d", id)
	}
	f.wantCodes(t, diag.SemaDuplicateIdent)
	d := f.bag.Items()[0]
	if d.Pos.Line != 3 || len(d.Notes) != 1 || d.Notes[0].Pos.Line != 2 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if got, _ := f.res.Lookup("x"); got != first {
		t.Fatalf("lookup must still see the first declaration")
	}
	if len(f.table.Scopes.Get(f.table.Root()).Symbols) != 1 {
		t.Fatalf("duplicate leaked into scope")
	}
}

func TestFunctionIsNotAnLValueInOtherBody(t *testing.T) {
	f := newFixture(t, nil)
	fn := f.declare(t, "F", SymbolFunction)
	g := f.declare(t, "G", SymbolFunction)
	f.enter(t, g)

	id, err := f.res.CheckLValue("F")
	if id != fn {
		t.Fatalf("expected F=%d, got %d", fn, id)
	}
	if !IsCode(err, diag.SemaInvalidLValue) {
		t.Fatalf("expected InvalidLValue, got %v", err)
	}
	if _, err := f.res.CheckLValue("G"); err != nil {
		t.Fatalf("G is assignable inside G: %v", err)
	}
	f.wantCodes(t, diag.SemaInvalidLValue)
}

func TestShadowing(t *testing.T) {
	f := newFixture(t, nil)
	outer := f.declare(t, "x", SymbolVariable)
	f.enter(t, NoSymbolID)

	if err := f.res.CheckFresh("x"); err != nil {
		t.Fatalf("outer declaration must not block shadowing: %v", err)
	}
	inner := f.declare(t, "x", SymbolConstant)
	if got, _ := f.res.Lookup("x"); got != inner {
		t.Fatalf("expected inner %d, got %d", inner, got)
	}
	if _, err := f.res.CheckVariable("x"); !IsCode(err, diag.SemaInvalidVariable) {
		t.Fatalf("inner constant must hide outer variable, got %v", err)
	}
	scope := f.res.CurrentScope()
	f.res.Leave(scope)
	if got, _ := f.res.Lookup("x"); got != outer {
		t.Fatalf("expected outer %d after leave, got %d", outer, got)
	}
}

func TestExistenceCheckedBeforeKind(t *testing.T) {
	f := newFixture(t, nil)
	f.enter(t, NoSymbolID)
	f.declare(t, "hidden", SymbolType)
	f.res.Leave(f.res.CurrentScope())
	f.enter(t, NoSymbolID)

	for _, kind := range []SymbolKind{SymbolConstant, SymbolType, SymbolVariable, SymbolFunction, SymbolProcedure} {
		id, err := f.res.CheckKind("hidden", kind)
		want, _ := UndeclaredCode(kind)
		if id != NoSymbolID || !IsCode(err, want) {
			t.Fatalf("%s: expected %s, got %d %v", kind, want.Name(), id, err)
		}
	}
	if f.bag.Len() != 5 {
		t.Fatalf("expected one diagnostic per check, got %d", f.bag.Len())
	}
}

func TestGlobalFallbackAndShadowing(t *testing.T) {
	f := newFixture(t, nil)
	global, ok := f.res.Lookup("READI")
	if !ok {
		t.Fatalf("expected READI in the global namespace")
	}
	if sym := f.table.Symbols.Get(global); sym.Scope != NoScopeID || sym.Flags&SymbolFlagBuiltin == 0 {
		t.Fatalf("unexpected global %+v", sym)
	}
	if _, err := f.res.CheckFunction("READI"); err != nil {
		t.Fatalf("check READI: %v", err)
	}
	if _, err := f.res.CheckProcedure("WRITELN"); err != nil {
		t.Fatalf("check WRITELN: %v", err)
	}
	if err := f.res.CheckFresh("READI"); err != nil {
		t.Fatalf("built-ins must not block declarations: %v", err)
	}
	local := f.declare(t, "READI", SymbolVariable)
	if got, _ := f.res.Lookup("READI"); got != local {
		t.Fatalf("program declaration must shadow built-in")
	}
	if _, err := f.res.CheckLValue("WRITEI"); !IsCode(err, diag.SemaInvalidLValue) {
		t.Fatalf("expected InvalidLValue for built-in procedure, got %v", err)
	}
}

func TestCaseSensitivity(t *testing.T) {
	f := newFixture(t, nil)
	f.declare(t, "Count", SymbolVariable)
	if _, ok := f.res.Lookup("count"); ok {
		t.Fatalf("default lookup is case-sensitive")
	}

	folded := newFixture(t, source.NewFoldingInterner())
	id := folded.declare(t, "Count", SymbolVariable)
	if got, ok := folded.res.Lookup("COUNT"); !ok || got != id {
		t.Fatalf("folding lookup failed: %d %v", got, ok)
	}
	if err := folded.res.CheckFresh("count"); !IsCode(err, diag.SemaDuplicateIdent) {
		t.Fatalf("expected folded duplicate, got %v", err)
	}
	if _, ok := folded.res.Lookup("writeln"); !ok {
		t.Fatalf("built-ins resolve under folding")
	}
}

func TestLookupDoesNotIntern(t *testing.T) {
	f := newFixture(t, nil)
	before := f.table.Strings.Len()
	f.res.Lookup("neverSeen")
	_, _ = f.res.CheckDeclared("neverSeen")
	if f.table.Strings.Len() != before {
		t.Fatalf("lookup interned unknown name")
	}
}

func TestEnterRejectsBadOwner(t *testing.T) {
	f := newFixture(t, nil)
	v := f.declare(t, "v", SymbolVariable)
	fn := f.declare(t, "F", SymbolFunction)

	if _, err := f.res.Enter(ScopeRoutine, v, source.Span{}); err == nil {
		t.Fatalf("variable owner accepted")
	}
	if _, err := f.res.Enter(ScopeRoutine, SymbolID(999), source.Span{}); err == nil {
		t.Fatalf("missing owner accepted")
	}
	if _, err := f.res.Enter(ScopeProgram, NoSymbolID, source.Span{}); err == nil {
		t.Fatalf("second program scope accepted")
	}
	f.enter(t, NoSymbolID)
	if _, err := f.res.Enter(ScopeRoutine, fn, source.Span{}); err == nil {
		t.Fatalf("owner from outer scope accepted")
	}
	if f.res.Depth() != 2 {
		t.Fatalf("rejected enters must not push, depth %d", f.res.Depth())
	}
}

func TestLeaveMismatchWarns(t *testing.T) {
	f := newFixture(t, nil)
	a := f.enter(t, NoSymbolID)
	f.enter(t, NoSymbolID)

	f.res.Leave(a)
	f.wantCodes(t, diag.SemaScopeMismatch)
	if f.bag.HasErrors() {
		t.Fatalf("scope mismatch is a warning")
	}
	if f.res.CurrentScope() != a {
		t.Fatalf("leave must pop exactly one scope")
	}
}

func TestDeclareWithoutScope(t *testing.T) {
	table := NewTable(Hints{}, nil)
	res := NewResolver(table, NoScopeID, ResolverOptions{})
	if _, err := res.Declare("x", SymbolVariable, SymbolAttrs{}); !errors.Is(err, ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
	if _, ok := res.Lookup("x"); ok {
		t.Fatalf("nothing declared")
	}
}

func declareEveryKind(t *testing.T, f *fixture) map[SymbolKind]SymbolID {
	t.Helper()
	return map[SymbolKind]SymbolID{
		SymbolConstant:  f.declare(t, "c", SymbolConstant),
		SymbolType:      f.declare(t, "t", SymbolType),
		SymbolVariable:  f.declare(t, "v", SymbolVariable),
		SymbolParameter: f.declare(t, "a", SymbolParameter),
		SymbolFunction:  f.declare(t, "fn", SymbolFunction),
		SymbolProcedure: f.declare(t, "pr", SymbolProcedure),
	}
}

func TestWrongKindForEveryCheck(t *testing.T) {
	tests := []struct {
		expected SymbolKind
		name     string
		actual   SymbolKind
	}{
		{SymbolConstant, "v", SymbolVariable},
		{SymbolType, "c", SymbolConstant},
		{SymbolVariable, "t", SymbolType},
		{SymbolFunction, "pr", SymbolProcedure},
		{SymbolProcedure, "fn", SymbolFunction},
	}
	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			f := newFixture(t, nil)
			ids := declareEveryKind(t, f)
			f.at(9, 4, tt.name)

			id, err := f.res.CheckKind(tt.name, tt.expected)
			want, _ := InvalidCode(tt.expected)
			if !IsCode(err, want) {
				t.Fatalf("expected %s, got %v", want.Name(), err)
			}
			if id != ids[tt.actual] {
				t.Fatalf("expected found id %d, got %d", ids[tt.actual], id)
			}
			f.wantCodes(t, want)
			if pos := f.bag.Items()[0].Pos; pos != (source.LineCol{Line: 9, Col: 4}) {
				t.Fatalf("unexpected position %v", pos)
			}
		})
	}
}

func TestLValueDecisionTable(t *testing.T) {
	tests := []struct {
		name string
		kind SymbolKind
		want diag.Code // UnknownCode: assignable
	}{
		{"v", SymbolVariable, diag.UnknownCode},
		{"a", SymbolParameter, diag.UnknownCode},
		{"c", SymbolConstant, diag.SemaInvalidLValue},
		{"t", SymbolType, diag.SemaInvalidLValue},
		{"fn", SymbolFunction, diag.SemaInvalidLValue},
		{"pr", SymbolProcedure, diag.SemaInvalidLValue},
		{"missing", SymbolInvalid, diag.SemaUndeclaredIdent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ids := declareEveryKind(t, f)
			f.at(12, 3, tt.name)

			id, err := f.res.CheckLValue(tt.name)
			if tt.want == diag.UnknownCode {
				if err != nil {
					t.Fatalf("expected %s to be assignable, got %v", tt.name, err)
				}
				f.wantCodes(t)
			} else {
				if !IsCode(err, tt.want) {
					t.Fatalf("expected %s, got %v", tt.want.Name(), err)
				}
				f.wantCodes(t, tt.want)
			}
			if id != ids[tt.kind] {
				t.Fatalf("expected id %d, got %d", ids[tt.kind], id)
			}
		})
	}
}

func TestCheckKindRejectsUncheckableKind(t *testing.T) {
	f := newFixture(t, nil)
	f.declare(t, "a", SymbolParameter)

	id, err := f.res.CheckKind("a", SymbolParameter)
	if !errors.Is(err, ErrNoKindCheck) {
		t.Fatalf("expected ErrNoKindCheck, got %v", err)
	}
	if id != NoSymbolID {
		t.Fatalf("expected no symbol, got %d", id)
	}
	f.wantCodes(t)
}
