package symbols

// Lookup resolves name from the current scope: every scope of the chain from
// innermost to outermost, then the global namespace. It never reports.
func (r *Resolver) Lookup(name string) (SymbolID, bool) {
	return r.table.LookupFrom(r.CurrentScope(), name)
}

// LookupFrom performs the Lookup walk starting at scope.
func (t *Table) LookupFrom(scope ScopeID, name string) (SymbolID, bool) {
	nameID, ok := t.Strings.Find(name)
	if !ok {
		// never interned, so never declared anywhere
		return NoSymbolID, false
	}
	for scopeID := scope; scopeID.IsValid(); {
		s := t.Scopes.Get(scopeID)
		if s == nil {
			break
		}
		if id, ok := s.NameIndex[nameID]; ok {
			return id, true
		}
		scopeID = s.Parent
	}
	return t.Global(nameID)
}

// LookupLocal searches only scope's own declarations.
func (t *Table) LookupLocal(scope ScopeID, name string) (SymbolID, bool) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return NoSymbolID, false
	}
	nameID, ok := t.Strings.Find(name)
	if !ok {
		return NoSymbolID, false
	}
	id, ok := s.NameIndex[nameID]
	return id, ok
}
