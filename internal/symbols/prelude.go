package symbols

// PreludeEntry describes a built-in installed into the global namespace.
type PreludeEntry struct {
	Name      string
	Kind      SymbolKind
	Flags     SymbolFlags
	TypeName  string
	Signature *Signature
}

// BuiltinPrelude returns the KPL run-time routines.
func BuiltinPrelude() []PreludeEntry {
	return []PreludeEntry{
		{Name: "READC", Kind: SymbolFunction, TypeName: "CHAR", Signature: &Signature{Result: "CHAR"}},
		{Name: "READI", Kind: SymbolFunction, TypeName: "INTEGER", Signature: &Signature{Result: "INTEGER"}},
		{Name: "WRITEI", Kind: SymbolProcedure, Signature: &Signature{}},
		{Name: "WRITEC", Kind: SymbolProcedure, Signature: &Signature{}},
		{Name: "WRITELN", Kind: SymbolProcedure, Signature: &Signature{}},
	}
}

// InstallPrelude declares entries as globals, stopping at the first conflict.
func (t *Table) InstallPrelude(entries []PreludeEntry) error {
	for _, entry := range entries {
		if _, err := t.DeclareGlobal(entry); err != nil {
			return err
		}
	}
	return nil
}
