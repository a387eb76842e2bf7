package token

import "strings"

var keywords = func() map[string]Kind {
	m := make(map[string]Kind, int(KwTo-KwProgram)+1)
	for k := KwProgram; k <= KwTo; k++ {
		m[k.String()] = k
	}
	return m
}()

// LookupKeyword reports whether ident is a reserved word. Reserved words are
// matched case-insensitively; identifiers are not folded here.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[strings.ToUpper(ident)]
	return k, ok
}
