package diag

import (
	"fmt"
	"sort"
	"strings"

	"kplc/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Name     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics one per line in a stable order:
//
//	error SEM3002 UndeclaredIdentifier prog.kpl:4:9 undeclared identifier 'q'
//
// Paths come from fs when the primary span is backed by a file; otherwise the
// fallback path is used. Notes are rendered as "note" lines when includeNotes is set.
func FormatShort(diags []Diagnostic, fs *source.FileSet, fallback string, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, shortDiagnostic{
			Severity: strings.ToLower(d.Severity.String()),
			Code:     d.Code.ID(),
			Name:     d.Code.Name(),
			Path:     pathOf(fs, d.Primary.File, fallback),
			Line:     d.Pos.Line,
			Column:   d.Pos.Col,
			Message:  sanitizeMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			rendered = append(rendered, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Name:     d.Code.Name(),
				Path:     pathOf(fs, note.Span.File, fallback),
				Line:     note.Pos.Line,
				Column:   note.Pos.Col,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s:%d:%d %s", d.Severity, d.Code, d.Name, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func pathOf(fs *source.FileSet, id source.FileID, fallback string) string {
	if fs == nil {
		return fallback
	}
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return fallback
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
