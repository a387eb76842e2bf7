package symbols

import (
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	f := newFixture(t, nil)
	f.at(2, 5, "x")
	if _, err := f.res.Declare("x", SymbolVariable, SymbolAttrs{TypeName: "INTEGER"}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	f.at(3, 7, "c")
	if _, err := f.res.Declare("c", SymbolConstant, SymbolAttrs{Value: &ConstValue{IsChar: true, Char: 'a'}}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	f.at(5, 10, "F")
	fn := f.declare(t, "F", SymbolFunction)
	body := f.enter(t, fn)
	f.at(5, 12, "n")
	if _, err := f.res.Declare("n", SymbolParameter, SymbolAttrs{Flags: SymbolFlagByRef}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	f.res.Leave(body)
	f.at(9, 5, "y")
	f.declare(t, "y", SymbolVariable)

	var b strings.Builder
	if err := f.table.Dump(&b); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := strings.Join([]string{
		"program #1",
		"  variable x : INTEGER @2:5",
		"  constant c = 'a' @3:7",
		"  function F @5:10",
		"  routine #2 owner=F",
		"    parameter n @5:12 [byref]",
		"  variable y @9:5",
		"globals",
		"  function READC : CHAR [builtin]",
		"  function READI : INTEGER [builtin]",
		"  procedure WRITEI [builtin]",
		"  procedure WRITEC [builtin]",
		"  procedure WRITELN [builtin]",
		"",
	}, "\n")
	if b.String() != want {
		t.Fatalf("dump mismatch:\n%s\nwant:\n%s", b.String(), want)
	}
}
