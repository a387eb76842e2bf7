package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kplc/internal/diag"
	"kplc/internal/source"
)

type palette struct {
	err, warn, info, note *color.Color
	code, path, gutter    *color.Color
	caret                 *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		path:   color.New(color.FgWhite, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.path, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for humans, in the order given:
//
//	<path>:<line>:<col>: <SEV> <ID> <Name>: <message>
//	  <line> | <source line>
//	         | ^~~~
//	  note: <path>:<line>:<col>: <message>
//
// Source previews are printed only for diagnostics whose span covers text.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i := range items {
		d := &items[i]
		header := fmt.Sprintf("%s: %s %s: %s",
			p.path.Sprint(location(fs, d.Primary.File, d.Pos, opts.PathMode)),
			p.severity(d.Severity).Sprint(strings.ToUpper(d.Severity.String())),
			p.code.Sprintf("%s %s", d.Code.ID(), d.Code.Name()),
			d.Message,
		)
		fmt.Fprintln(w, clip(header, opts.Width))
		if opts.ShowPreview {
			writePreview(w, fs, d.Primary, d.Pos, opts, p)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"),
				location(fs, n.Span.File, n.Pos, opts.PathMode), n.Msg)
			if opts.ShowPreview {
				writePreview(w, fs, n.Span, n.Pos, opts, p)
			}
		}
	}
}

func location(fs *source.FileSet, id source.FileID, pos source.LineCol, mode PathMode) string {
	path := formatPath(fs, id, mode)
	if !pos.IsValid() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
}

func writePreview(w io.Writer, fs *source.FileSet, span source.Span, pos source.LineCol, opts PrettyOpts, p palette) {
	if fs == nil || span.Empty() || !pos.IsValid() {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	first := pos.Line
	if opts.Context > 0 {
		back := uint32(opts.Context)
		if back >= first {
			first = 1
		} else {
			first -= back
		}
	}
	gutterWidth := len(strconv.FormatUint(uint64(pos.Line), 10))
	for line := first; line <= pos.Line; line++ {
		text := strings.TrimRight(f.GetLine(line), "\r")
		fmt.Fprintf(w, "  %s %s\n", p.gutter.Sprintf("%*d |", gutterWidth, line), clip(text, opts.Width))
	}

	text := f.GetLine(pos.Line)
	col := int(pos.Col) - 1
	if col > len(text) {
		col = len(text)
	}
	width := 1
	if _, end := fs.Resolve(span); end.Line == pos.Line && span.Len() > 0 {
		stop := min(col+int(span.Len()), len(text))
		if cw := runewidth.StringWidth(text[col:stop]); cw > 0 {
			width = cw
		}
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s %s%s\n", p.gutter.Sprintf("%*s |", gutterWidth, ""), padFor(text[:col]), p.caret.Sprint(marker))
}

// padFor returns whitespace occupying the same display width as prefix,
// keeping tabs so the caret lines up with the source line.
func padFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func clip(s string, width uint16) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, int(width), "")
	}
	return runewidth.Truncate(s, int(width), "...")
}

// Summary prints the closing "N errors, M warnings" line.
func Summary(w io.Writer, files, errors, warnings int, useColor bool) {
	p := newPalette(useColor)
	status := p.info
	if errors > 0 {
		status = p.err
	} else if warnings > 0 {
		status = p.warn
	}
	fmt.Fprintf(w, "%s in %d %s\n",
		status.Sprintf("%d %s, %d %s", errors, plural(errors, "error"), warnings, plural(warnings, "warning")),
		files, plural(files, "script"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
