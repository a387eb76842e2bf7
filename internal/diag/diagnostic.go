package diag

import (
	"kplc/internal/source"
)

type Note struct {
	Span source.Span
	Pos  source.LineCol
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Pos      source.LineCol
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, pos source.LineCol, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Pos:      pos,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, pos source.LineCol, msg string) Diagnostic {
	return New(SevError, code, primary, pos, msg)
}

func (d Diagnostic) WithNote(sp source.Span, pos source.LineCol, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Pos: pos, Msg: msg})
	return d
}
