// Package parse drives a compiled grammar against an input source,
// dispatching per-rule hooks and actions supplied by the grammar
// author.
package parse

import (
	"fmt"

	"github.com/dhamidi/peg/grammar"
	"github.com/dhamidi/peg/input"
)

// State is whatever the grammar author threads through a parse. The
// engine never inspects it; actions and scopes cast it back to their
// own types.
type State any

// Error is a fatal parse error. Its string form,
// "source:line:column: message", is a stable contract consumed by
// editors and CI logs.
type Error struct {
	Source  string
	Line    int
	Column  int
	Message string

	err error // underlying cause, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// ErrorAt builds an Error at the given position.
func ErrorAt(pos input.Position, message string) *Error {
	return &Error{Source: pos.Source, Line: pos.Line, Column: pos.Column, Message: message}
}

// Action is the semantic action attached to one rule. Apply receives
// the matched text; Apply0 only the state. When both are set, Apply
// wins. An action error aborts the parse as a fatal Error.
type Action struct {
	Apply  func(text string, st State) error
	Apply0 func(st State) error
}

// Actions maps rule names to their actions. A table is consulted for
// the rules of the subtree it is in effect for; rules without an entry
// do nothing.
type Actions map[string]Action

// Hooks customize the driver's callbacks for one rule. All fields are
// optional; a nil hook is a no-op.
type Hooks struct {
	// Start runs when the rule is entered.
	Start func(pos input.Position, st State)
	// Success runs after the rule matched and its action (and state
	// merge, if scoped) ran. The span covers the matched text.
	Success func(span input.Span, st State)
	// Failure runs when the rule did not match, before the cursor is
	// rewound. A failure is recoverable; this hook must not assume
	// the parse is over.
	Failure func(pos input.Position, st State)
	// Raise builds the fatal error when a failure of this rule is
	// promoted by an enclosing Must. When nil, the Must's own
	// message is used.
	Raise func(pos input.Position, st State) error
}

// Scope gives a rule's subtree its own state. Enter builds the fresh
// state on rule entry, seeded from the enclosing one; Merge folds it
// back into the enclosing state when the subtree matched. On failure
// the fresh state is discarded without merging.
type Scope struct {
	Enter func(parent State) State
	Merge func(child, parent State)
}

// Control is the per-rule customization table a grammar author passes
// to New. The zero value is a valid no-op control. Keys are rule
// names; naming a rule the grammar does not define is an error
// reported by New.
type Control struct {
	// Actions is the action table in effect at the root.
	Actions Actions
	// Hooks attaches driver callbacks to rules.
	Hooks map[string]Hooks
	// States declares which rules scope a fresh state around their
	// subtree.
	States map[string]Scope
	// Tables swaps the action table for a rule's subtree (the rule
	// itself included). Independent of States; a rule may appear in
	// both.
	Tables map[string]Actions
}

// Runner is a grammar compiled together with a control, ready to
// parse. It is immutable and safe for concurrent use; each Parse call
// owns its own cursor and states.
type Runner struct {
	g      *grammar.Grammar
	rootID int
	root   grammar.Expr

	actions []Action   // root table, indexed by rule id
	hooks   []Hooks    // indexed by rule id
	scopes  []*Scope   // indexed by rule id, nil when unscoped
	tables  [][]Action // indexed by rule id, nil when no swap
}

// New compiles ctl against g. The grammar is compiled first if it has
// not been. A nil ctl behaves like the zero Control.
func New(g *grammar.Grammar, ctl *Control) (*Runner, error) {
	if err := g.Compile(); err != nil {
		return nil, err
	}
	if ctl == nil {
		ctl = &Control{}
	}
	rootID, _ := g.RuleID(g.Root())
	r := &Runner{
		g:      g,
		rootID: rootID,
		root:   g.Rule(rootID),
		hooks:  make([]Hooks, g.NumRules()),
		scopes: make([]*Scope, g.NumRules()),
		tables: make([][]Action, g.NumRules()),
	}
	var err error
	if r.actions, err = r.compileTable(ctl.Actions); err != nil {
		return nil, err
	}
	for name, h := range ctl.Hooks {
		id, ok := g.RuleID(name)
		if !ok {
			return nil, fmt.Errorf("parse: hooks for unknown rule %q", name)
		}
		r.hooks[id] = h
	}
	for name, s := range ctl.States {
		id, ok := g.RuleID(name)
		if !ok {
			return nil, fmt.Errorf("parse: state scope for unknown rule %q", name)
		}
		scope := s
		r.scopes[id] = &scope
	}
	for name, t := range ctl.Tables {
		id, ok := g.RuleID(name)
		if !ok {
			return nil, fmt.Errorf("parse: action table for unknown rule %q", name)
		}
		if r.tables[id], err = r.compileTable(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) compileTable(t Actions) ([]Action, error) {
	compiled := make([]Action, r.g.NumRules())
	for name, a := range t {
		id, ok := r.g.RuleID(name)
		if !ok {
			return nil, fmt.Errorf("parse: action for unknown rule %q", name)
		}
		compiled[id] = a
	}
	return compiled, nil
}

// Parse runs the grammar's root rule against src, threading st through
// actions and scopes. It returns nil when the root rule matched, a
// *Error when the parse failed or a fatal condition (Must, I/O,
// window bound) occurred. Whatever the actions accumulated is left in
// st.
func (r *Runner) Parse(src input.Source, st State) error {
	d := &driver{run: r, src: src, furthest: src.Pos()}
	ok, err := d.rule(r.rootID, r.root, st, r.actions)
	if err != nil {
		return err
	}
	if !ok {
		return ErrorAt(d.furthest, "no match")
	}
	return nil
}

// Parse compiles ctl against g and runs it once. Callers parsing more
// than once should build a Runner with New and reuse it.
func Parse(g *grammar.Grammar, ctl *Control, src input.Source, st State) error {
	r, err := New(g, ctl)
	if err != nil {
		return err
	}
	return r.Parse(src, st)
}
