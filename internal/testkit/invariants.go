// Package testkit holds assertions shared by package tests.
package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"kplc/internal/diag"
	"kplc/internal/source"
)

// CheckDiagnosticSpans verifies that every diagnostic and note points at
// real text:
//  1. the span's file is loaded and the span lies within its content
//  2. a non-empty span starts exactly at the reported line and column
//  3. diagnostics are sorted by file, then position
func CheckDiagnosticSpans(items []diag.Diagnostic, fs *source.FileSet) error {
	var errs []error
	for i := range items {
		d := &items[i]
		if err := checkSpan(fs, d.Primary, d.Pos); err != nil {
			errs = append(errs, fmt.Errorf("diagnostic %d (%s): %w", i, d.Code.Name(), err))
		}
		for j, n := range d.Notes {
			if err := checkSpan(fs, n.Span, n.Pos); err != nil {
				errs = append(errs, fmt.Errorf("diagnostic %d (%s) note %d: %w", i, d.Code.Name(), j, err))
			}
		}
		if i > 0 && less(d, &items[i-1]) {
			errs = append(errs, fmt.Errorf("diagnostic %d is out of order", i))
		}
	}
	return errors.Join(errs...)
}

func checkSpan(fs *source.FileSet, sp source.Span, pos source.LineCol) error {
	if sp.File == source.NoFileID {
		return fmt.Errorf("span has no file")
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span file %d is not loaded", sp.File)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("content length overflow: %w", err)
	}
	if sp.End < sp.Start || sp.End > size {
		return fmt.Errorf("span %v outside content [0,%d)", sp, size)
	}
	if sp.Empty() || !pos.IsValid() {
		return nil
	}
	if start, _ := fs.Resolve(sp); start != pos {
		return fmt.Errorf("span %v starts at %d:%d, reported %d:%d", sp, start.Line, start.Col, pos.Line, pos.Col)
	}
	return nil
}

func less(a, b *diag.Diagnostic) bool {
	if a.Primary.File != b.Primary.File {
		return a.Primary.File < b.Primary.File
	}
	return a.Pos.Before(b.Pos)
}
