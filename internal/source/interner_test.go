package source

import "testing"

func TestInternerBasic(t *testing.T) {
	in := NewInterner()

	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID should map to empty string, got %q %v", s, ok)
	}
	a := in.Intern("count")
	if a == NoStringID {
		t.Fatalf("expected real ID")
	}
	if b := in.Intern("count"); b != a {
		t.Fatalf("re-intern gave %d, want %d", b, a)
	}
	if c := in.Intern("Count"); c == a {
		t.Fatalf("default interner must be case-sensitive")
	}
	if in.Len() != 3 {
		t.Fatalf("Len = %d, want 3", in.Len())
	}
}

func TestInternerFindDoesNotAllocate(t *testing.T) {
	in := NewInterner()
	in.Intern("x")
	before := in.Len()

	if _, ok := in.Find("y"); ok {
		t.Fatalf("unexpected hit for y")
	}
	if _, ok := in.Find(""); ok {
		t.Fatalf("empty name must not be found")
	}
	if in.Len() != before {
		t.Fatalf("Find grew the interner: %d -> %d", before, in.Len())
	}
	if id, ok := in.Find("x"); !ok || in.MustLookup(id) != "x" {
		t.Fatalf("Find(x) = %d, %v", id, ok)
	}
}

func TestFoldingInterner(t *testing.T) {
	in := NewFoldingInterner()
	if !in.Folding() {
		t.Fatalf("expected folding interner")
	}
	a := in.Intern("WriteLn")
	if b := in.Intern("WRITELN"); b != a {
		t.Fatalf("folded names should share an ID")
	}
	if id, ok := in.Find("writeln"); !ok || id != a {
		t.Fatalf("Find with different case failed")
	}
}
