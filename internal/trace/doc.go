// Package trace is the structured event log of kplc.
//
// The checker has no separate logging library: everything worth recording
// (driver phases, per-file replays, scope enter/leave, failed checks) is an
// Event sent to a Tracer.
//
// # Usage
//
//	kplc check --trace=- --trace-level=detail scripts/
//
// # Implementations
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes text or NDJSON lines to a writer as events arrive
//
// # Levels and scopes
//
// Level decides which Scope is emitted: phase shows driver and pass
// boundaries, detail adds per-file spans, debug adds node events produced by
// the resolver.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, path, 0)
//	defer span.End("")
package trace
