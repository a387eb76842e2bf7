package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Семантические: разрешение имён
	SemaDuplicateIdent      Code = 3001
	SemaUndeclaredIdent     Code = 3002
	SemaUndeclaredConstant  Code = 3003
	SemaInvalidConstant     Code = 3004
	SemaUndeclaredType      Code = 3005
	SemaInvalidType         Code = 3006
	SemaUndeclaredVariable  Code = 3007
	SemaInvalidVariable     Code = 3008
	SemaUndeclaredFunction  Code = 3009
	SemaInvalidFunction     Code = 3010
	SemaUndeclaredProcedure Code = 3011
	SemaInvalidProcedure    Code = 3012
	SemaInvalidLValue       Code = 3013
	SemaScopeMismatch       Code = 3014
	SemaInvalidOwner        Code = 3015

	// Replay scripts
	ScrInvalidStep     Code = 4001
	ScrExpectMismatch  Code = 4002
	ScrUnbalancedScope Code = 4003
)

type codeInfo struct {
	name  string
	title string
}

var codeTable = map[Code]codeInfo{
	UnknownCode:             {"Unknown", "Unknown error"},
	SemaDuplicateIdent:      {"DuplicateIdentifier", "Duplicate identifier"},
	SemaUndeclaredIdent:     {"UndeclaredIdentifier", "Undeclared identifier"},
	SemaUndeclaredConstant:  {"UndeclaredConstant", "Undeclared constant"},
	SemaInvalidConstant:     {"InvalidConstant", "Identifier is not a constant"},
	SemaUndeclaredType:      {"UndeclaredType", "Undeclared type"},
	SemaInvalidType:         {"InvalidType", "Identifier is not a type"},
	SemaUndeclaredVariable:  {"UndeclaredVariable", "Undeclared variable"},
	SemaInvalidVariable:     {"InvalidVariable", "Identifier is not a variable"},
	SemaUndeclaredFunction:  {"UndeclaredFunction", "Undeclared function"},
	SemaInvalidFunction:     {"InvalidFunction", "Identifier is not a function"},
	SemaUndeclaredProcedure: {"UndeclaredProcedure", "Undeclared procedure"},
	SemaInvalidProcedure:    {"InvalidProcedure", "Identifier is not a procedure"},
	SemaInvalidLValue:       {"InvalidLValue", "Invalid assignment target"},
	SemaScopeMismatch:       {"ScopeMismatch", "Scope stack mismatch"},
	SemaInvalidOwner:        {"InvalidOwner", "Scope owner is not a callable"},
	ScrInvalidStep:          {"InvalidStep", "Malformed replay step"},
	ScrExpectMismatch:       {"ExpectMismatch", "Replay expectation not met"},
	ScrUnbalancedScope:      {"UnbalancedScope", "Unbalanced scope in replay"},
}

var codeByName = func() map[string]Code {
	m := make(map[string]Code, len(codeTable))
	for c, info := range codeTable {
		m[strings.ToLower(info.name)] = c
	}
	return m
}()

// ID returns the stable short identifier, e.g. "SEM3002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SCR%04d", ic)
	}
	return "E0000"
}

// Name returns the taxonomy name, e.g. "UndeclaredIdentifier".
func (c Code) Name() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return codeTable[UnknownCode].name
}

func (c Code) Title() string {
	if info, ok := codeTable[c]; ok {
		return info.title
	}
	return codeTable[UnknownCode].title
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts a taxonomy name (case-insensitive) or a short ID.
func ParseCode(s string) (Code, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := codeByName[key]; ok && c != UnknownCode {
		return c, true
	}
	for c := range codeTable {
		if c != UnknownCode && strings.EqualFold(c.ID(), key) {
			return c, true
		}
	}
	return UnknownCode, false
}
