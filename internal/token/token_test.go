package token

import (
	"testing"

	"kplc/internal/source"
)

func posAt(line, col uint32) source.LineCol { return source.LineCol{Line: line, Col: col} }

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Ident, Text: "count", Pos: posAt(2, 5)}
	if got := tok.String(); got != `Ident "count" @2:5` {
		t.Fatalf("String() = %s", got)
	}
	if !tok.IsIdent() {
		t.Fatalf("expected identifier")
	}
}
