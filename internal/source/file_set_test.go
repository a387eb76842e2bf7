package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("prog.kpl", []byte("program a;"), 0)
	if id1 == NoFileID {
		t.Fatalf("expected a real file ID")
	}
	id2 := fs.Add("prog.kpl", []byte("program b;"), 0)
	if id2 == id1 {
		t.Fatalf("expected re-add to create a new version")
	}
	latest, ok := fs.GetLatest("prog.kpl")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "program a;" {
		t.Fatalf("old version lost: %q", got)
	}
	if fs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", fs.Len())
	}
	if fs.Get(NoFileID) != nil {
		t.Fatalf("NoFileID must not resolve")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem", []byte("ab\ncde\n\nf"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // the newline itself belongs to line 1
		{3, LineCol{2, 1}},
		{5, LineCol{2, 3}},
		{7, LineCol{3, 1}},
		{8, LineCol{4, 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem", []byte("var x;\n  x := 1;\n"))
	f := fs.Get(id)

	off, ok := f.Offset(LineCol{Line: 2, Col: 3})
	if !ok || off != 9 {
		t.Fatalf("Offset = %d, %v; want 9", off, ok)
	}
	start, _ := fs.Resolve(Span{File: id, Start: off, End: off + 1})
	if start != (LineCol{Line: 2, Col: 3}) {
		t.Fatalf("round trip gave %+v", start)
	}
	if _, ok := f.Offset(LineCol{Line: 9, Col: 1}); ok {
		t.Fatalf("expected out-of-range line to fail")
	}
	if off, _ := f.Offset(LineCol{Line: 1, Col: 99}); off != 6 {
		t.Fatalf("column should clamp to line end, got %d", off)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("mem", []byte("first\nsecond\nthird")))

	for n, want := range map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: ""} {
		if got := f.GetLine(n); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.kpl")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\rc"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\rc" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}
