// Package grammar defines parsing expressions and the grammars built
// from them.
//
// # Overview
//
// A grammar is a set of named rules, each bound to one parsing
// expression. Expressions are ordinary Go values assembled with
// composite literals and the helper constructors; there is no grammar
// file format and no code generation step. Compile checks the rule set
// and resolves every Reference, after which the grammar is immutable
// and can back any number of concurrent parses.
//
//	┌─────────────┐   Define    ┌─────────────┐   Compile   ┌─────────────┐
//	│ Expressions │────────────▶│   Grammar   │────────────▶│  Compiled   │
//	│ (Lit, Seq,  │             │ (named rule │             │ (refs bound,│
//	│  Choice, …) │             │    set)     │             │  rule ids)  │
//	└─────────────┘             └─────────────┘             └─────────────┘
//
// # Expressions
//
// The expression set is the usual PEG algebra:
//
//	Lit("if")                     exact bytes
//	Any{}, EOF{}                  any one byte, end of input
//	Range{Lo: 'a', Hi: 'z'}       one byte in a range
//	Class{Name, Match}            one byte accepted by a predicate
//	Seq{a, b, c}                  a then b then c
//	Choice{a, b}                  a, or b if a fails
//	Star(x), Plus(x), Opt(x)      repetition
//	And{X: x}, Not{X: x}          lookahead, consuming nothing
//	Must{Message, X}              failure of X becomes a fatal error
//	Ref("expr")                   another rule, by name
//
// Choice is ordered: the first alternative that matches wins, even
// when a later one would match more. There is no ambiguity and no
// longest-match tie-breaking anywhere.
//
// # Building a Grammar
//
//	g := grammar.New("ini", "file")
//	g.Define("file", grammar.Star(grammar.Ref("line")), grammar.EOF{})
//	g.Define("line", grammar.Choice{
//		grammar.Ref("section"),
//		grammar.Ref("assignment"),
//		grammar.Ref("blank"),
//	})
//	...
//	if err := g.Compile(); err != nil {
//		// every problem at once: missing rules, unused rules,
//		// redefinitions, a missing root
//	}
//
// Compile assigns each rule a dense integer id in definition order.
// The parse driver uses these ids to index per-rule action and hook
// tables without map lookups on the hot path.
//
// # Streaming
//
// Discard is the one expression that talks to the input rather than
// matching it: it drops everything buffered behind the cursor so a
// streaming source can parse input far larger than its window. Placing
// one is a promise that the parse never backtracks across it.
package grammar
