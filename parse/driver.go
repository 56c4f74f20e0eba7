package parse

import (
	"fmt"

	"github.com/dhamidi/peg/grammar"
	"github.com/dhamidi/peg/input"
)

// driver holds the mutable state of one Parse call. It is never shared
// across goroutines.
type driver struct {
	run      *Runner
	src      input.Source
	furthest input.Position
	// quiet is set inside lookahead predicates: consumption there is
	// always rewound, so actions, scopes, and hooks are suppressed.
	quiet bool
}

// note records a failure position for the root "no match" diagnostic.
func (d *driver) note() {
	if pos := d.src.Pos(); pos.Offset > d.furthest.Offset {
		d.furthest = pos
	}
}

// fatal wraps an input-layer error (I/O failure, window bound) as a
// parse error at the current position.
func (d *driver) fatal(err error) error {
	e := ErrorAt(d.src.Pos(), err.Error())
	e.err = err
	return e
}

// match attempts one expression. Exactly one of three outcomes:
// (true, nil) with the cursor advanced over the match, (false, nil)
// with the cursor exactly where it was, or (false, err) for a fatal
// error with the cursor left at the point of failure.
func (d *driver) match(x grammar.Expr, st State, acts []Action) (bool, error) {
	switch x := x.(type) {
	case grammar.Lit:
		b, err := d.src.Peek(len(x))
		if err != nil {
			return false, d.fatal(err)
		}
		if len(b) < len(x) || string(b) != string(x) {
			d.note()
			return false, nil
		}
		d.src.Advance(len(x))
		return true, nil

	case grammar.Any:
		b, err := d.src.Peek(1)
		if err != nil {
			return false, d.fatal(err)
		}
		if len(b) == 0 {
			d.note()
			return false, nil
		}
		d.src.Advance(1)
		return true, nil

	case grammar.EOF:
		b, err := d.src.Peek(1)
		if err != nil {
			return false, d.fatal(err)
		}
		if len(b) != 0 {
			d.note()
			return false, nil
		}
		return true, nil

	case grammar.Range:
		b, err := d.src.Peek(1)
		if err != nil {
			return false, d.fatal(err)
		}
		if len(b) == 0 || b[0] < x.Lo || b[0] > x.Hi {
			d.note()
			return false, nil
		}
		d.src.Advance(1)
		return true, nil

	case grammar.Class:
		b, err := d.src.Peek(1)
		if err != nil {
			return false, d.fatal(err)
		}
		if len(b) == 0 || !x.Match(b[0]) {
			d.note()
			return false, nil
		}
		d.src.Advance(1)
		return true, nil

	case grammar.Seq:
		cp := d.src.Checkpoint()
		for _, k := range x {
			ok, err := d.match(k, st, acts)
			if err != nil {
				// Fatal errors surface the failure position;
				// no rewind.
				return false, err
			}
			if !ok {
				d.src.Rewind(cp)
				return false, nil
			}
		}
		d.src.Release(cp)
		return true, nil

	case grammar.Choice:
		for _, k := range x {
			cp := d.src.Checkpoint()
			ok, err := d.match(k, st, acts)
			if err != nil {
				return false, err
			}
			if ok {
				d.src.Release(cp)
				return true, nil
			}
			d.src.Rewind(cp)
		}
		return false, nil

	case grammar.Rep:
		var entry input.Checkpoint
		if x.Min > 0 {
			entry = d.src.Checkpoint()
		}
		count := 0
		for x.Max < 0 || count < x.Max {
			cp := d.src.Checkpoint()
			before := d.src.Pos().Offset
			ok, err := d.match(x.X, st, acts)
			if err != nil {
				return false, err
			}
			if !ok {
				d.src.Rewind(cp)
				break
			}
			d.src.Release(cp)
			count++
			if d.src.Pos().Offset == before {
				// A child matching without consuming would
				// repeat forever.
				break
			}
		}
		if count < x.Min {
			d.src.Rewind(entry)
			return false, nil
		}
		if x.Min > 0 {
			d.src.Release(entry)
		}
		return true, nil

	case grammar.And:
		cp := d.src.Checkpoint()
		quiet := d.quiet
		d.quiet = true
		ok, err := d.match(x.X, st, acts)
		d.quiet = quiet
		if err != nil {
			return false, err
		}
		d.src.Rewind(cp)
		return ok, nil

	case grammar.Not:
		cp := d.src.Checkpoint()
		quiet := d.quiet
		d.quiet = true
		ok, err := d.match(x.X, st, acts)
		d.quiet = quiet
		if err != nil {
			return false, err
		}
		d.src.Rewind(cp)
		if ok {
			d.note()
		}
		return !ok, nil

	case grammar.Discard:
		// Inside a lookahead everything is rewound, so discarding
		// would break the predicate's own checkpoint.
		if !d.quiet {
			d.src.Discard()
		}
		return true, nil

	case grammar.Must:
		ok, err := d.match(x.X, st, acts)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, d.raise(x, st)
		}
		return true, nil

	case *grammar.Reference:
		id, target := x.Target()
		return d.rule(id, target, st, acts)

	default:
		panic(fmt.Sprintf("parse: unknown expression type %T", x))
	}
}

// raise promotes a failure under a Must into a fatal error, using the
// failed rule's Raise hook when one is attached.
func (d *driver) raise(m grammar.Must, st State) error {
	pos := d.src.Pos()
	if ref, ok := m.X.(*grammar.Reference); ok {
		id, _ := ref.Target()
		if h := d.run.hooks[id].Raise; h != nil {
			return h(pos, st)
		}
	}
	msg := m.Message
	if msg == "" {
		if ref, ok := m.X.(*grammar.Reference); ok {
			msg = fmt.Sprintf("expected %s", ref.Name)
		} else {
			msg = "parse error"
		}
	}
	return ErrorAt(pos, msg)
}

// rule enters a named rule: dispatch hooks, swap state and action
// table when the control says so, and run the rule's expression.
func (d *driver) rule(id int, x grammar.Expr, st State, acts []Action) (bool, error) {
	if d.quiet {
		return d.match(x, st, acts)
	}

	h := d.run.hooks[id]
	scope := d.run.scopes[id]
	if t := d.run.tables[id]; t != nil {
		acts = t
	}
	act := acts[id]

	// The body restores the cursor on its own failure, so a
	// checkpoint is only needed when matched text must be recovered.
	needText := act.Apply != nil || h.Success != nil
	var cp input.Checkpoint
	if needText {
		cp = d.src.Checkpoint()
	}
	start := d.src.Pos()

	if h.Start != nil {
		h.Start(start, st)
	}
	child := st
	if scope != nil {
		child = scope.Enter(st)
	}

	ok, err := d.match(x, child, acts)
	if err != nil {
		return false, err
	}
	if !ok {
		if h.Failure != nil {
			h.Failure(d.src.Pos(), st)
		}
		if needText {
			d.src.Rewind(cp)
		}
		return false, nil
	}

	if act.Apply != nil {
		if aerr := act.Apply(d.src.Text(cp), child); aerr != nil {
			return false, d.actionError(start, aerr)
		}
	} else if act.Apply0 != nil {
		if aerr := act.Apply0(child); aerr != nil {
			return false, d.actionError(start, aerr)
		}
	}
	if scope != nil {
		scope.Merge(child, st)
	}
	if h.Success != nil {
		h.Success(input.Span{Start: start, End: d.src.Pos()}, child)
	}
	if needText {
		d.src.Release(cp)
	}
	return true, nil
}

// actionError turns an error returned by an action into a fatal parse
// error at the rule's start, unless it already is one.
func (d *driver) actionError(pos input.Position, err error) error {
	if e, ok := err.(*Error); ok {
		return e
	}
	e := ErrorAt(pos, err.Error())
	e.err = err
	return e
}
