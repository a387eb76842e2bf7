package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// Validate walks internal arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	roots := 0
	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := &t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if !scope.Parent.IsValid() {
			roots++
			if scope.Kind != ScopeProgram {
				errs = append(errs, fmt.Errorf("scope %d has no parent but is a %s scope", scopeID, scope.Kind))
			}
		} else {
			// parents are always allocated first, which also rules out cycles
			if scope.Parent >= scopeID {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
				continue
			}
			if !containsScope(t.Scopes.data[scope.Parent].Children, scopeID) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
			}
		}
		for _, child := range scope.Children {
			if int(child) >= len(t.Scopes.data) || t.Scopes.data[child].Parent != scopeID {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", scopeID, child))
			}
		}
		errs = append(errs, t.validateOwner(scopeID, scope)...)
		errs = append(errs, t.validateIndex(scopeID, scope)...)
	}
	if len(t.Scopes.data) > 1 && roots != 1 {
		errs = append(errs, fmt.Errorf("expected exactly one outermost scope, found %d", roots))
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symbolID, err := toSymbolID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		symbol := &t.Symbols.data[idx]
		if symbol.Kind == SymbolInvalid {
			errs = append(errs, fmt.Errorf("symbol %d has invalid kind", symbolID))
		}
		if !symbol.Scope.IsValid() {
			if id, ok := t.globalIndex[symbol.Name]; !ok || id != symbolID {
				errs = append(errs, fmt.Errorf("symbol %d has no scope and is not a global", symbolID))
			}
			continue
		}
		scope := t.Scopes.Get(symbol.Scope)
		if scope == nil {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", symbolID, symbol.Scope))
			continue
		}
		if !containsSymbol(scope.Symbols, symbolID) {
			errs = append(errs, fmt.Errorf("symbol %d is missing from scope %d list", symbolID, symbol.Scope))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) validateOwner(scopeID ScopeID, scope *Scope) []error {
	if !scope.Owner.IsValid() {
		return nil
	}
	owner := t.Symbols.Get(scope.Owner)
	switch {
	case owner == nil:
		return []error{fmt.Errorf("scope %d owner %d does not exist", scopeID, scope.Owner)}
	case !owner.Kind.IsCallable():
		return []error{fmt.Errorf("scope %d owner %d is a %s", scopeID, scope.Owner, owner.Kind)}
	case owner.Scope != scope.Parent:
		return []error{fmt.Errorf("scope %d owner %d is declared in scope %d, not in parent %d", scopeID, scope.Owner, owner.Scope, scope.Parent)}
	}
	return nil
}

func (t *Table) validateIndex(scopeID ScopeID, scope *Scope) []error {
	var errs []error
	if len(scope.NameIndex) != len(scope.Symbols) {
		errs = append(errs, fmt.Errorf("scope %d: %d names indexed for %d symbols", scopeID, len(scope.NameIndex), len(scope.Symbols)))
	}
	for name, id := range scope.NameIndex {
		sym := t.Symbols.Get(id)
		if sym == nil {
			errs = append(errs, fmt.Errorf("scope %d name index %d references missing symbol %d", scopeID, name, id))
			continue
		}
		if sym.Name != name || sym.Scope != scopeID {
			errs = append(errs, fmt.Errorf("scope %d name index %d points at symbol %d of scope %d", scopeID, name, id, sym.Scope))
		}
	}
	return errs
}

func containsScope(list []ScopeID, id ScopeID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func containsSymbol(list []SymbolID, id SymbolID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toSymbolID(idx int) (SymbolID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoSymbolID, fmt.Errorf("symbol index %d overflow: %w", idx, err)
	}
	return SymbolID(value), nil
}
