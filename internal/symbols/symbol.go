package symbols

import (
	"fmt"
	"strings"

	"kplc/internal/source"
)

// SymbolKind classifies what a declared name denotes.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolConstant
	SymbolType
	SymbolVariable
	SymbolParameter
	SymbolFunction
	SymbolProcedure
)

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	// SymbolFlagBuiltin marks entries of the global namespace.
	SymbolFlagBuiltin SymbolFlags = 1 << iota
	// SymbolFlagByRef marks VAR (by-reference) parameters.
	SymbolFlagByRef
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolConstant:
		return "constant"
	case SymbolType:
		return "type"
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolProcedure:
		return "procedure"
	default:
		return "invalid"
	}
}

// IsCallable reports whether the kind has a body that may own a scope.
func (k SymbolKind) IsCallable() bool {
	return k == SymbolFunction || k == SymbolProcedure
}

// ParseSymbolKind converts the lower-case kind name back to a SymbolKind.
func ParseSymbolKind(s string) (SymbolKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant", "const":
		return SymbolConstant, nil
	case "type":
		return SymbolType, nil
	case "variable", "var":
		return SymbolVariable, nil
	case "parameter", "param":
		return SymbolParameter, nil
	case "function":
		return SymbolFunction, nil
	case "procedure":
		return SymbolProcedure, nil
	}
	return SymbolInvalid, fmt.Errorf("unknown symbol kind %q", s)
}

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	if f&SymbolFlagByRef != 0 {
		labels = append(labels, "byref")
	}
	return labels
}

// ConstValue is the payload of a constant. The checks never look at it.
type ConstValue struct {
	IsChar bool
	Int    int64
	Char   rune
}

func (v ConstValue) String() string {
	if v.IsChar {
		return fmt.Sprintf("'%c'", v.Char)
	}
	return fmt.Sprintf("%d", v.Int)
}

// Signature describes a function or procedure. Result is empty for procedures.
type Signature struct {
	Params []SymbolID
	Result string
}

// Symbol describes a declared entity. Symbols are created once by Declare
// or by the prelude and never change afterwards.
type Symbol struct {
	Name      source.StringID
	Kind      SymbolKind
	Scope     ScopeID // NoScopeID for the global namespace
	Span      source.Span
	Pos       source.LineCol
	Flags     SymbolFlags
	TypeName  string
	Value     *ConstValue
	Signature *Signature
}

// SymbolAttrs carries the kind-specific payload supplied by the declarer.
type SymbolAttrs struct {
	Flags     SymbolFlags
	TypeName  string
	Value     *ConstValue
	Signature *Signature
}
