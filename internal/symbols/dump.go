package symbols

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the scope tree below the program root followed by the global
// namespace, one symbol per line:
//
//	program #1
//	  variable x @2:5
//	  function F @9:10
//	  routine #2 owner=F
//	    parameter n @9:12
//	globals
//	  function READC [builtin]
func (t *Table) Dump(w io.Writer) error {
	d := dumper{t: t, w: w}
	if t.root.IsValid() {
		d.scope(t.root, 0)
	}
	d.line(0, "globals")
	for _, id := range t.Globals {
		d.symbol(id, 1)
	}
	return d.err
}

type dumper struct {
	t   *Table
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) scope(id ScopeID, depth int) {
	s := d.t.Scopes.Get(id)
	if s == nil {
		return
	}
	header := fmt.Sprintf("%s #%d", s.Kind, id)
	if s.Owner.IsValid() {
		header += " owner=" + d.t.Name(s.Owner)
	}
	d.line(depth, "%s", header)

	// symbols and child scopes interleave in declaration order
	children := s.Children
	for _, symID := range s.Symbols {
		d.symbol(symID, depth+1)
		for len(children) > 0 && d.ownedBy(children[0], symID) {
			d.scope(children[0], depth+1)
			children = children[1:]
		}
	}
	for _, child := range children {
		d.scope(child, depth+1)
	}
}

func (d *dumper) ownedBy(scope ScopeID, owner SymbolID) bool {
	s := d.t.Scopes.Get(scope)
	return s != nil && s.Owner == owner
}

func (d *dumper) symbol(id SymbolID, depth int) {
	sym := d.t.Symbols.Get(id)
	if sym == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", sym.Kind, d.t.Name(id))
	if sym.TypeName != "" && sym.Kind != SymbolType {
		fmt.Fprintf(&b, " : %s", sym.TypeName)
	}
	if sym.Value != nil {
		fmt.Fprintf(&b, " = %s", sym.Value)
	}
	if sym.Pos.IsValid() {
		fmt.Fprintf(&b, " @%d:%d", sym.Pos.Line, sym.Pos.Col)
	}
	if flags := sym.Flags.Strings(); len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ","))
	}
	d.line(depth, "%s", b.String())
}
