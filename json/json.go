// Package json is a complete example grammar for the peg engine: an
// RFC 8259 JSON parser whose semantic actions build a Value tree.
//
// It demonstrates the two scoping mechanisms the engine offers. Each
// array, object, and member key runs its subtree against a fresh
// accumulator state that is merged into the enclosing one on success
// (change-state), and string contents run under a different action
// table that routes escape sequences into the accumulator
// (change-action). Nothing here is global: arbitrarily nested
// documents work because every nesting level owns its own state.
package json

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/peg/input"
	"github.com/dhamidi/peg/parse"
)

var runner *parse.Runner

func init() {
	r, err := parse.New(newGrammar(), newControl())
	if err != nil {
		panic(fmt.Sprintf("json: build grammar: %v", err))
	}
	runner = r
}

// Parse runs the JSON grammar against src and returns the document's
// value. Errors are *parse.Error values positioned in src.
func Parse(src input.Source) (Value, error) {
	st := &resultState{}
	if err := runner.Parse(src, st); err != nil {
		return nil, err
	}
	return st.value, nil
}

// ParseString parses an in-memory JSON document.
func ParseString(name, s string) (Value, error) {
	return Parse(input.NewString(name, s))
}

// ParseReader parses JSON pulled incrementally from r through a
// bounded streaming window.
func ParseReader(name string, r io.Reader, opts ...input.StreamOption) (Value, error) {
	return Parse(input.NewStream(name, r, opts...))
}

// Check parses src and reports only whether it is valid JSON.
func Check(src input.Source) error {
	_, err := Parse(src)
	return err
}

// valueSink is implemented by every state that can receive a completed
// value: the top-level result, an array accumulating elements, an
// object accumulating member values, and a member key in flight.
type valueSink interface {
	setValue(v Value)
}

// resultState holds the single value a parse produces.
type resultState struct {
	value Value
}

func (s *resultState) setValue(v Value) { s.value = v }

// arrayState accumulates one array. The pending slot holds the most
// recently completed element until a separator or the closing bracket
// pushes it.
type arrayState struct {
	elems   []Value
	pending Value
	has     bool
}

func (s *arrayState) setValue(v Value) {
	s.pending = v
	s.has = true
}

func (s *arrayState) push() {
	if s.has {
		s.elems = append(s.elems, s.pending)
		s.pending = nil
		s.has = false
	}
}

// objectState accumulates one object, one member at a time.
type objectState struct {
	obj     Object
	key     string
	pending Value
	has     bool
}

func (s *objectState) setValue(v Value) {
	s.pending = v
	s.has = true
}

func (s *objectState) setKey(k string) { s.key = k }

func (s *objectState) insert() {
	if s.has {
		s.obj[s.key] = s.pending
		s.pending = nil
		s.has = false
	}
}

// keyState captures a member name. It sits between an object and the
// string rules so a key's characters never touch the object's value
// slot.
type keyState struct {
	key string
}

func (s *keyState) setValue(v Value) { s.key = string(v.(String)) }

// stringState unescapes one string's content. Surrogate pairs arrive
// as two consecutive \u escapes; a high half is parked in pending
// until its partner shows up.
type stringState struct {
	sb      strings.Builder
	pending rune
}

func (s *stringState) writeByte(text string) error {
	if s.pending != 0 {
		return errors.New("incomplete surrogate pair in string")
	}
	s.sb.WriteString(text)
	return nil
}

func (s *stringState) writeRune(r rune) error {
	switch {
	case r >= 0xD800 && r <= 0xDBFF:
		if s.pending != 0 {
			return errors.New("invalid surrogate pair in string")
		}
		s.pending = r
	case r >= 0xDC00 && r <= 0xDFFF:
		if s.pending == 0 {
			return errors.New("unexpected low surrogate in string")
		}
		s.sb.WriteRune(0x10000 + (s.pending-0xD800)<<10 + (r - 0xDC00))
		s.pending = 0
	default:
		if s.pending != 0 {
			return errors.New("incomplete surrogate pair in string")
		}
		s.sb.WriteRune(r)
	}
	return nil
}

func (s *stringState) finish() error {
	if s.pending != 0 {
		return errors.New("incomplete surrogate pair in string")
	}
	return nil
}

var escapeRunes = map[byte]rune{
	'"': '"', '\\': '\\', '/': '/',
	'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t',
}

// newControl wires the grammar's rules to the states above.
func newControl() *parse.Control {
	// Literal and number values land in whichever valueSink is the
	// current state. These actions are shared by every table below.
	values := parse.Actions{
		"null": {Apply0: func(st parse.State) error {
			st.(valueSink).setValue(Null{})
			return nil
		}},
		"true": {Apply0: func(st parse.State) error {
			st.(valueSink).setValue(Bool(true))
			return nil
		}},
		"false": {Apply0: func(st parse.State) error {
			st.(valueSink).setValue(Bool(false))
			return nil
		}},
		"number": {Apply: func(text string, st parse.State) error {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q", text)
			}
			st.(valueSink).setValue(Number(f))
			return nil
		}},
	}

	inArray := parse.Actions{
		"value-separator": {Apply0: func(st parse.State) error {
			st.(*arrayState).push()
			return nil
		}},
	}
	inObject := parse.Actions{
		"value-separator": {Apply0: func(st parse.State) error {
			st.(*objectState).insert()
			return nil
		}},
	}
	inString := parse.Actions{
		"unescaped": {Apply: func(text string, st parse.State) error {
			return st.(*stringState).writeByte(text)
		}},
		"escaped-char": {Apply: func(text string, st parse.State) error {
			return st.(*stringState).writeRune(escapeRunes[text[0]])
		}},
		"unicode-escape": {Apply: func(text string, st parse.State) error {
			// text is "uXXXX"
			n, err := strconv.ParseUint(text[1:], 16, 32)
			if err != nil {
				return fmt.Errorf("invalid unicode escape %q", text)
			}
			return st.(*stringState).writeRune(rune(n))
		}},
		"string-content": {Apply0: func(st parse.State) error {
			return st.(*stringState).finish()
		}},
	}
	for name, a := range values {
		inArray[name] = a
		inObject[name] = a
	}

	return &parse.Control{
		Actions: values,
		States: map[string]parse.Scope{
			"string-content": {
				Enter: func(parse.State) parse.State { return &stringState{} },
				Merge: func(child, parent parse.State) {
					parent.(valueSink).setValue(String(child.(*stringState).sb.String()))
				},
			},
			"array-content": {
				Enter: func(parse.State) parse.State { return &arrayState{} },
				Merge: func(child, parent parse.State) {
					a := child.(*arrayState)
					a.push()
					parent.(valueSink).setValue(Array(a.elems))
				},
			},
			"object-content": {
				Enter: func(parse.State) parse.State { return &objectState{obj: Object{}} },
				Merge: func(child, parent parse.State) {
					o := child.(*objectState)
					o.insert()
					parent.(valueSink).setValue(o.obj)
				},
			},
			"member-name": {
				Enter: func(parse.State) parse.State { return &keyState{} },
				Merge: func(child, parent parse.State) {
					parent.(*objectState).setKey(child.(*keyState).key)
				},
			},
		},
		Tables: map[string]parse.Actions{
			"array-content":  inArray,
			"object-content": inObject,
			"string-content": inString,
		},
	}
}
