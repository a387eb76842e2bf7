// Package diag defines the diagnostic model shared by the semantic checks,
// the replay driver and the renderers.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – compact numeric identifier with a stable ID ("SEM3002") and a
//     taxonomy name ("UndeclaredIdentifier"), see codes.go.
//   - Primary – the source.Span of the current token when the check ran.
//   - Pos – the 1-based line/column of that token. It is always set, even when
//     the span is not backed by a loaded file.
//   - Notes – optional secondary locations ("previous declaration here").
//
// # Emitting diagnostics
//
// Producers talk to a Reporter and never to storage directly. ReportError and
// friends return a ReportBuilder; chain WithNote and call Emit. BagReporter
// collects into a Bag, DedupReporter filters repeats.
//
// # Continuation policy
//
// Reporters never stop the caller. Whether processing continues after an
// error is decided by whoever drives the checks, using Policy.
package diag
