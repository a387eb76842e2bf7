package symbols

import (
	"kplc/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeProgram           // outermost block of the compilation unit
	ScopeRoutine           // function or procedure body
	ScopeBlock             // nested block without an owner
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeProgram:
		return "program"
	case ScopeRoutine:
		return "routine"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical block. Parent and Owner are plain IDs: a scope
// neither owns its enclosing scope nor the routine symbol whose body it is.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     SymbolID // set only on the top-level body scope of a routine
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID // insertion order
	Children  []ScopeID
}
