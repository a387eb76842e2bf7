package symbols

import (
	"fmt"

	"kplc/internal/diag"
)

// CheckFresh is the gate run before inserting name into the current scope.
// Only the current scope's own declarations are consulted, so shadowing an
// outer or built-in name is allowed.
func (r *Resolver) CheckFresh(name string) error {
	prev, ok := r.table.LookupLocal(r.CurrentScope(), name)
	if !ok {
		return nil
	}
	sym := r.table.Symbols.Get(prev)
	return r.fail(diag.SemaDuplicateIdent, name, sym.Kind,
		fmt.Sprintf("duplicate identifier '%s'", name),
		diag.Note{Span: sym.Span, Pos: sym.Pos, Msg: "previous declaration here"})
}

// CheckDeclared resolves name over the full chain and the global namespace.
func (r *Resolver) CheckDeclared(name string) (SymbolID, error) {
	id, ok := r.Lookup(name)
	if !ok {
		return NoSymbolID, r.fail(diag.SemaUndeclaredIdent, name, SymbolInvalid,
			fmt.Sprintf("undeclared identifier '%s'", name))
	}
	return id, nil
}

// CheckKind resolves name and requires it to denote expected. Existence is
// checked before kind: a miss always yields the Undeclared* code for
// expected. On a kind mismatch the resolved ID is returned with the error.
// Any other expected kind is rejected with ErrNoKindCheck and no diagnostic.
func (r *Resolver) CheckKind(name string, expected SymbolKind) (SymbolID, error) {
	codes, ok := checkCodes[expected]
	if !ok {
		return NoSymbolID, fmt.Errorf("check %q as %s: %w", name, expected, ErrNoKindCheck)
	}
	id, found := r.Lookup(name)
	if !found {
		return NoSymbolID, r.fail(codes.undeclared, name, SymbolInvalid,
			fmt.Sprintf("undeclared %s '%s'", expected, name))
	}
	sym := r.table.Symbols.Get(id)
	if sym.Kind != expected {
		return id, r.fail(codes.invalid, name, sym.Kind,
			fmt.Sprintf("'%s' is a %s, not a %s", name, sym.Kind, expected))
	}
	return id, nil
}

func (r *Resolver) CheckConstant(name string) (SymbolID, error) {
	return r.CheckKind(name, SymbolConstant)
}

func (r *Resolver) CheckType(name string) (SymbolID, error) {
	return r.CheckKind(name, SymbolType)
}

func (r *Resolver) CheckVariable(name string) (SymbolID, error) {
	return r.CheckKind(name, SymbolVariable)
}

func (r *Resolver) CheckFunction(name string) (SymbolID, error) {
	return r.CheckKind(name, SymbolFunction)
}

func (r *Resolver) CheckProcedure(name string) (SymbolID, error) {
	return r.CheckKind(name, SymbolProcedure)
}

// CheckLValue decides whether name may be assigned to. Variables and
// parameters always may; a function only inside its own body, where the
// assignment sets its result. Everything else is InvalidLValue.
func (r *Resolver) CheckLValue(name string) (SymbolID, error) {
	id, ok := r.Lookup(name)
	if !ok {
		return NoSymbolID, r.fail(diag.SemaUndeclaredIdent, name, SymbolInvalid,
			fmt.Sprintf("undeclared identifier '%s'", name))
	}
	sym := r.table.Symbols.Get(id)
	switch sym.Kind {
	case SymbolVariable, SymbolParameter:
		return id, nil
	case SymbolFunction:
		if r.currentOwner() == id {
			return id, nil
		}
		return id, r.fail(diag.SemaInvalidLValue, name, sym.Kind,
			fmt.Sprintf("cannot assign to function '%s' outside its own body", name))
	default:
		return id, r.fail(diag.SemaInvalidLValue, name, sym.Kind,
			fmt.Sprintf("cannot assign to %s '%s'", sym.Kind, name))
	}
}

func (r *Resolver) currentOwner() SymbolID {
	if scope := r.table.Scopes.Get(r.CurrentScope()); scope != nil {
		return scope.Owner
	}
	return NoSymbolID
}

// fail reports exactly one diagnostic at the cursor and returns the matching
// error.
func (r *Resolver) fail(code diag.Code, name string, found SymbolKind, msg string, notes ...diag.Note) error {
	span, pos := r.position()
	b := diag.ReportError(r.reporter, code, span, pos, msg)
	for _, n := range notes {
		b.WithNote(n.Span, n.Pos, n.Msg)
	}
	b.Emit()
	r.traceNode(code.Name(), name, map[string]string{
		"line": fmt.Sprint(pos.Line),
		"col":  fmt.Sprint(pos.Col),
	})
	return &SemanticError{Code: code, Name: name, Span: span, Pos: pos, Found: found}
}
