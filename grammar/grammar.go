package grammar

import (
	"errors"
	"fmt"
	"sort"
)

// Expr is one node of a parsing expression. The set of implementations
// is closed: matching code switches over the concrete types below.
//
// Expressions are immutable after Grammar.Compile and may be shared
// freely across concurrent parses.
type Expr interface {
	expr()
}

// Lit matches an exact byte string.
type Lit string

// Any matches any single byte.
type Any struct{}

// EOF matches only at end of input and consumes nothing.
type EOF struct{}

// Range matches one byte in [Lo, Hi].
type Range struct {
	Lo, Hi byte
}

// Class matches one byte accepted by Match. Name is used in
// diagnostics only; Match must be pure and is shared across parses.
type Class struct {
	Name  string
	Match func(byte) bool
}

// Seq matches each element in order. It fails, restoring the entry
// position, when any element fails.
type Seq []Expr

// Choice tries each alternative in order and commits to the first that
// matches. Order is a semantic commitment: no longest-match policy.
type Choice []Expr

// Rep matches X at least Min times and, when Max >= 0, at most Max
// times. Consumption from completed iterations is kept even when a
// later iteration fails.
type Rep struct {
	Min, Max int
	X        Expr
}

// And is positive lookahead: it succeeds when X matches, consuming
// nothing either way.
type And struct {
	X Expr
}

// Not is negative lookahead: it succeeds when X does not match,
// consuming nothing either way.
type Not struct {
	X Expr
}

// Must converts a failure of X into a fatal parse error carrying
// Message at the position of the failure. It is the only way an
// ordinary non-match becomes unrecoverable.
type Must struct {
	Message string
	X       Expr
}

// Discard matches the empty string and lets a streaming source drop
// the bytes buffered behind the cursor. Place one only where the parse
// can no longer backtrack before it, typically right after a separator
// or delimiter every remaining alternative has committed to.
type Discard struct{}

// Reference names another rule of the grammar, enabling recursion.
// The target is resolved once, by Grammar.Compile.
type Reference struct {
	Name string

	id     int
	target Expr
}

// Ref returns a reference to the named rule.
func Ref(name string) *Reference { return &Reference{Name: name} }

func (Lit) expr() {}
func (Any) expr() {}
func (EOF) expr() {}
func (Range) expr() {}
func (Class) expr() {}
func (Seq) expr() {}
func (Choice) expr() {}
func (Rep) expr() {}
func (And) expr() {}
func (Not) expr() {}
func (Must) expr() {}
func (Discard) expr() {}
func (*Reference) expr() {}

// Target returns the referenced rule's id and expression. It is only
// valid after the grammar containing the reference has been compiled.
func (r *Reference) Target() (int, Expr) { return r.id, r.target }

// Star matches x zero or more times.
func Star(x Expr) Expr { return Rep{Min: 0, Max: -1, X: x} }

// Plus matches x one or more times.
func Plus(x Expr) Expr { return Rep{Min: 1, Max: -1, X: x} }

// Opt matches x at most once and always succeeds.
func Opt(x Expr) Expr { return Rep{Min: 0, Max: 1, X: x} }

// OneOf matches any single byte contained in set.
func OneOf(set string) Expr {
	return Class{
		Name: fmt.Sprintf("one of %q", set),
		Match: func(b byte) bool {
			for i := 0; i < len(set); i++ {
				if set[i] == b {
					return true
				}
			}
			return false
		},
	}
}

// Grammar is a named collection of rule definitions. Rules are added
// with Define, then Compile resolves references and assigns each rule
// a stable id. A compiled grammar is immutable.
type Grammar struct {
	name     string
	root     string
	rules    map[string]Expr
	order    []string
	refs     map[string][]*Reference
	ids      map[string]int
	byID     []Expr
	errs     []error
	compiled bool
}

// New returns an empty grammar. root names the rule a parse starts at.
func New(name, root string) *Grammar {
	return &Grammar{
		name:  name,
		root:  root,
		rules: make(map[string]Expr),
		refs:  make(map[string][]*Reference),
	}
}

// Name returns the grammar's name.
func (g *Grammar) Name() string { return g.name }

// Root returns the name of the start rule.
func (g *Grammar) Root() string { return g.root }

// Define adds the named rule. Multiple expressions form a sequence.
// Errors (such as redefining a rule) are collected and reported by
// Compile.
func (g *Grammar) Define(name string, xs ...Expr) {
	if g.compiled {
		g.errs = append(g.errs, fmt.Errorf("grammar %s: define %q after compile", g.name, name))
		return
	}
	if _, ok := g.rules[name]; ok {
		g.errs = append(g.errs, fmt.Errorf("grammar %s: rule %q already defined", g.name, name))
		return
	}
	var x Expr
	switch len(xs) {
	case 0:
		g.errs = append(g.errs, fmt.Errorf("grammar %s: rule %q has no expression", g.name, name))
		return
	case 1:
		x = xs[0]
	default:
		x = Seq(xs)
	}
	g.rules[name] = x
	g.order = append(g.order, name)
	g.collectRefs(x)
}

func (g *Grammar) collectRefs(x Expr) {
	switch x := x.(type) {
	case *Reference:
		g.refs[x.Name] = append(g.refs[x.Name], x)
	case Seq:
		for _, k := range x {
			g.collectRefs(k)
		}
	case Choice:
		for _, k := range x {
			g.collectRefs(k)
		}
	case Rep:
		g.collectRefs(x.X)
	case And:
		g.collectRefs(x.X)
	case Not:
		g.collectRefs(x.X)
	case Must:
		g.collectRefs(x.X)
	}
}

// Compile checks the grammar and resolves every reference to its
// target rule. It reports missing rules, rules never referenced from
// the root, and a missing root, all at once.
func (g *Grammar) Compile() error {
	if g.compiled {
		return nil
	}
	errs := g.errs
	if _, ok := g.rules[g.root]; !ok {
		errs = append(errs, fmt.Errorf("grammar %s: root rule %q is not defined", g.name, g.root))
	}
	var missing []string
	for name := range g.refs {
		if _, ok := g.rules[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		errs = append(errs, fmt.Errorf("grammar %s: rule %q is referenced but not defined", g.name, name))
	}
	for _, name := range g.order {
		if name != g.root && len(g.refs[name]) == 0 {
			errs = append(errs, fmt.Errorf("grammar %s: rule %q is defined but never referenced", g.name, name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	g.ids = make(map[string]int, len(g.order))
	g.byID = make([]Expr, len(g.order))
	for i, name := range g.order {
		g.ids[name] = i
		g.byID[i] = g.rules[name]
	}
	for name, refs := range g.refs {
		for _, r := range refs {
			r.id = g.ids[name]
			r.target = g.rules[name]
		}
	}
	g.compiled = true
	return nil
}

// Compiled reports whether Compile has run successfully.
func (g *Grammar) Compiled() bool { return g.compiled }

// NumRules returns the number of defined rules.
func (g *Grammar) NumRules() int { return len(g.order) }

// RuleID returns the id assigned to the named rule at compile time.
func (g *Grammar) RuleID(name string) (int, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// RuleName returns the name of the rule with the given id.
func (g *Grammar) RuleName(id int) string { return g.order[id] }

// Rule returns the expression the rule with the given id matches.
func (g *Grammar) Rule(id int) Expr { return g.byID[id] }
