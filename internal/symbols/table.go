package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"kplc/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table owns every scope and symbol of one compilation unit plus the flat
// global namespace of built-ins.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	// Globals lists built-in symbols in installation order.
	Globals []SymbolID

	globalIndex map[source.StringID]SymbolID
	root        ScopeID
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a case-sensitive interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:      NewScopes(scopeCap),
		Symbols:     NewSymbols(symCap),
		Strings:     strings,
		globalIndex: make(map[source.StringID]SymbolID),
	}
}

// Root returns the program scope, or NoScopeID before ProgramRoot is called.
func (t *Table) Root() ScopeID { return t.root }

// ProgramRoot returns (and creates if needed) the outermost scope. There is
// exactly one per table.
func (t *Table) ProgramRoot(span source.Span) ScopeID {
	if t.root.IsValid() {
		return t.root
	}
	t.root = t.Scopes.New(ScopeProgram, NoScopeID, NoSymbolID, span)
	return t.root
}

// DeclareGlobal adds a built-in to the global namespace.
func (t *Table) DeclareGlobal(entry PreludeEntry) (SymbolID, error) {
	if entry.Kind == SymbolInvalid {
		return NoSymbolID, fmt.Errorf("global %q: invalid kind", entry.Name)
	}
	name := t.Strings.Intern(entry.Name)
	if name == source.NoStringID {
		return NoSymbolID, fmt.Errorf("global with empty name")
	}
	if _, exists := t.globalIndex[name]; exists {
		return NoSymbolID, fmt.Errorf("global %q declared twice", entry.Name)
	}
	id := t.Symbols.New(&Symbol{
		Name:      name,
		Kind:      entry.Kind,
		Scope:     NoScopeID,
		Flags:     entry.Flags | SymbolFlagBuiltin,
		TypeName:  entry.TypeName,
		Signature: entry.Signature,
	})
	t.Globals = append(t.Globals, id)
	t.globalIndex[name] = id
	return id, nil
}

// Global returns the built-in bound to name.
func (t *Table) Global(name source.StringID) (SymbolID, bool) {
	id, ok := t.globalIndex[name]
	return id, ok
}

// Name returns the declared spelling (canonical form when folding) of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}
