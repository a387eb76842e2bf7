package source

import (
	"slices"

	"golang.org/x/text/cases"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier text to compact IDs. When folding is enabled the
// stored form is the Unicode case fold of the input, so "Foo" and "FOO"
// share an ID.
type Interner struct {
	byID  []string            // byID[0] = "" для NoStringID
	index map[string]StringID // canonical string -> ID
	fold  *cases.Caser
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// NewFoldingInterner returns an interner that treats names case-insensitively.
func NewFoldingInterner() *Interner {
	in := NewInterner()
	caser := cases.Fold()
	in.fold = &caser
	return in
}

// Folding reports whether the interner folds case.
func (i *Interner) Folding() bool { return i.fold != nil }

func (i *Interner) canonical(s string) string {
	if i.fold == nil {
		return s
	}
	return i.fold.String(s)
}

// Intern returns the ID for s, allocating one if needed.
func (i *Interner) Intern(s string) StringID {
	key := i.canonical(s)
	if id, ok := i.index[key]; ok {
		return id
	}
	cpy := string([]byte(key))
	id := StringID(len(i.byID)) // #nosec G115 -- identifier counts stay far below 2^32
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Find returns the ID for s without allocating. Lookups of names that were
// never declared must not grow the table.
func (i *Interner) Find(s string) (StringID, bool) {
	id, ok := i.index[i.canonical(s)]
	if !ok || id == NoStringID {
		return NoStringID, false
	}
	return id, true
}

// Lookup returns the stored string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup возвращает строку по ID и паникует на невалидном ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has проверяет, валиден ли ID.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts stored strings including NoStringID.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of all strings in ID order.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
