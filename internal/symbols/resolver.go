package symbols

import (
	"fmt"
	"strconv"

	"kplc/internal/diag"
	"kplc/internal/source"
	"kplc/internal/token"
	"kplc/internal/trace"
)

// ResolverOptions configures resolver construction.
type ResolverOptions struct {
	Reporter diag.Reporter
	// Cursor supplies the current token; diagnostics are positioned on it.
	Cursor token.Cursor
	Tracer trace.Tracer
}

// Resolver is the compilation context threaded through every check: the
// table, the scope stack, the current-token cursor and the diagnostic sink.
// A Resolver is not safe for concurrent use; independent compilation units
// use independent resolvers.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	cursor   token.Cursor
	tracer   trace.Tracer
	stack    []ScopeID
}

// NewResolver wires a resolver to table. If root is valid it becomes the
// current scope.
func NewResolver(table *Table, root ScopeID, opts ResolverOptions) *Resolver {
	r := &Resolver{
		table:    table,
		reporter: opts.Reporter,
		cursor:   opts.Cursor,
		tracer:   opts.Tracer,
		stack:    make([]ScopeID, 0, 8),
	}
	if r.reporter == nil {
		r.reporter = diag.NopReporter{}
	}
	if r.cursor == nil {
		r.cursor = &token.Tracker{}
	}
	if r.tracer == nil {
		r.tracer = trace.Nop
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// Table returns the underlying symbol table.
func (r *Resolver) Table() *Table { return r.table }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Depth reports how many scopes are open.
func (r *Resolver) Depth() int { return len(r.stack) }

// Enter creates a child of the current scope and makes it current. owner must
// be NoSymbolID or a function/procedure declared in the current scope; only
// a routine's own body scope records it.
func (r *Resolver) Enter(kind ScopeKind, owner SymbolID, span source.Span) (ScopeID, error) {
	parent := r.CurrentScope()
	if owner.IsValid() {
		sym := r.table.Symbols.Get(owner)
		switch {
		case sym == nil:
			return NoScopeID, fmt.Errorf("scope owner %d does not exist", owner)
		case !sym.Kind.IsCallable():
			return NoScopeID, fmt.Errorf("scope owner %q is a %s, not a function or procedure", r.table.Name(owner), sym.Kind)
		case sym.Scope != parent:
			return NoScopeID, fmt.Errorf("scope owner %q is not declared in the enclosing scope", r.table.Name(owner))
		}
	}
	if kind == ScopeInvalid || kind == ScopeProgram {
		return NoScopeID, fmt.Errorf("cannot enter a %s scope", kind)
	}
	scope := r.table.Scopes.New(kind, parent, owner, span)
	r.stack = append(r.stack, scope)
	r.traceNode("enter", kind.String(), map[string]string{
		"scope": strconv.FormatUint(uint64(scope), 10),
		"owner": r.table.Name(owner),
	})
	return scope, nil
}

// Leave pops the current scope. If expected is valid and differs from the
// top, a SemaScopeMismatch warning is reported and the top is popped anyway.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	if expected.IsValid() && top != expected {
		span, pos := r.position()
		diag.ReportWarning(r.reporter, diag.SemaScopeMismatch, span, pos,
			fmt.Sprintf("scope stack mismatch: closing scope #%d while expecting #%d", top, expected)).Emit()
	}
	r.traceNode("leave", "", map[string]string{"scope": strconv.FormatUint(uint64(top), 10)})
}

// Declare runs the freshness gate for name and, if it passes, inserts a new
// symbol into the current scope at the cursor position.
func (r *Resolver) Declare(name string, kind SymbolKind, attrs SymbolAttrs) (SymbolID, error) {
	scope := r.table.Scopes.Get(r.CurrentScope())
	if scope == nil {
		return NoSymbolID, ErrNoScope
	}
	if kind == SymbolInvalid {
		return NoSymbolID, fmt.Errorf("declare %q: invalid kind", name)
	}
	if name == "" {
		return NoSymbolID, fmt.Errorf("declare: empty name")
	}
	if err := r.CheckFresh(name); err != nil {
		return NoSymbolID, err
	}
	span, pos := r.position()
	nameID := r.table.Strings.Intern(name)
	id := r.table.Symbols.New(&Symbol{
		Name:      nameID,
		Kind:      kind,
		Scope:     r.CurrentScope(),
		Span:      span,
		Pos:       pos,
		Flags:     attrs.Flags &^ SymbolFlagBuiltin,
		TypeName:  attrs.TypeName,
		Value:     attrs.Value,
		Signature: attrs.Signature,
	})
	scope.Symbols = append(scope.Symbols, id)
	scope.NameIndex[nameID] = id
	return id, nil
}

func (r *Resolver) position() (source.Span, source.LineCol) {
	tok := r.cursor.Current()
	return tok.Span, tok.Pos
}

func (r *Resolver) traceNode(name, detail string, extra map[string]string) {
	trace.Point(r.tracer, trace.ScopeNode, name, detail, extra)
}
