package symbols

import (
	"errors"
	"fmt"

	"kplc/internal/diag"
	"kplc/internal/source"
)

// SemanticError is returned by every failed check. The same information has
// already been sent to the reporter when the error is returned.
type SemanticError struct {
	Code diag.Code
	Name string
	Span source.Span
	Pos  source.LineCol
	// Found is the kind of the resolved symbol for Invalid* codes.
	Found SymbolKind
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Col, e.Code.Name(), e.Name)
}

// IsCode reports whether err is a SemanticError carrying code.
func IsCode(err error, code diag.Code) bool {
	var se *SemanticError
	return errors.As(err, &se) && se.Code == code
}

// CodeOf extracts the diagnostic code from err, or UnknownCode.
func CodeOf(err error) diag.Code {
	var se *SemanticError
	if errors.As(err, &se) {
		return se.Code
	}
	return diag.UnknownCode
}

// ErrNoScope is returned by Declare when no scope is active.
var ErrNoScope = errors.New("no active scope")

// ErrNoKindCheck is returned by CheckKind for kinds it has no codes for.
var ErrNoKindCheck = errors.New("no declared-kind check")

type kindCodes struct {
	undeclared diag.Code
	invalid    diag.Code
}

var checkCodes = map[SymbolKind]kindCodes{
	SymbolConstant:  {diag.SemaUndeclaredConstant, diag.SemaInvalidConstant},
	SymbolType:      {diag.SemaUndeclaredType, diag.SemaInvalidType},
	SymbolVariable:  {diag.SemaUndeclaredVariable, diag.SemaInvalidVariable},
	SymbolFunction:  {diag.SemaUndeclaredFunction, diag.SemaInvalidFunction},
	SymbolProcedure: {diag.SemaUndeclaredProcedure, diag.SemaInvalidProcedure},
}

// UndeclaredCode returns the "not found" code used when checking for kind.
func UndeclaredCode(kind SymbolKind) (diag.Code, bool) {
	c, ok := checkCodes[kind]
	return c.undeclared, ok
}

// InvalidCode returns the "wrong kind" code used when checking for kind.
func InvalidCode(kind SymbolKind) (diag.Code, bool) {
	c, ok := checkCodes[kind]
	return c.invalid, ok
}
