package json

import "github.com/dhamidi/peg/grammar"

// newGrammar builds the RFC 8259 JSON grammar. Structural characters
// absorb trailing whitespace; the root rule handles the leading run.
// The must wrappers mark the points where no alternative remains, so
// malformed input fails with a position instead of backtracking away.
func newGrammar() *grammar.Grammar {
	g := grammar.New("json", "text")

	ws := grammar.Star(grammar.OneOf(" \t\r\n"))
	digit := grammar.Range{Lo: '0', Hi: '9'}
	hex := grammar.Class{
		Name: "hex digit",
		Match: func(b byte) bool {
			return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
		},
	}

	g.Define("text",
		ws,
		grammar.Must{Message: "expected value", X: grammar.Ref("value")},
		ws,
		grammar.Must{Message: "unexpected character after value", X: grammar.EOF{}},
	)

	g.Define("value", grammar.Choice{
		grammar.Ref("string"),
		grammar.Ref("number"),
		grammar.Ref("object"),
		grammar.Ref("array"),
		grammar.Ref("true"),
		grammar.Ref("false"),
		grammar.Ref("null"),
	})

	g.Define("null", grammar.Lit("null"))
	g.Define("true", grammar.Lit("true"))
	g.Define("false", grammar.Lit("false"))

	g.Define("number",
		grammar.Opt(grammar.Lit("-")),
		grammar.Choice{
			grammar.Lit("0"),
			grammar.Seq{grammar.Range{Lo: '1', Hi: '9'}, grammar.Star(digit)},
		},
		grammar.Opt(grammar.Seq{
			grammar.Lit("."),
			grammar.Must{Message: "expected digits after decimal point", X: grammar.Plus(digit)},
		}),
		grammar.Opt(grammar.Seq{
			grammar.OneOf("eE"),
			grammar.Opt(grammar.OneOf("+-")),
			grammar.Must{Message: "expected digits in exponent", X: grammar.Plus(digit)},
		}),
	)

	g.Define("string",
		grammar.Lit(`"`),
		grammar.Ref("string-content"),
		grammar.Must{Message: "unterminated string", X: grammar.Lit(`"`)},
	)
	g.Define("string-content", grammar.Star(grammar.Ref("char")))
	g.Define("char", grammar.Choice{
		grammar.Ref("unescaped"),
		grammar.Seq{
			grammar.Lit(`\`),
			grammar.Must{Message: "invalid escape sequence", X: grammar.Choice{
				grammar.Ref("unicode-escape"),
				grammar.Ref("escaped-char"),
			}},
		},
	})
	g.Define("unescaped", grammar.Plus(grammar.Class{
		Name: "unescaped character",
		Match: func(b byte) bool {
			return b >= 0x20 && b != '"' && b != '\\'
		},
	}))
	g.Define("escaped-char", grammar.OneOf(`"\/bfnrt`))
	g.Define("unicode-escape",
		grammar.Lit("u"),
		grammar.Must{Message: "expected 4 hex digits", X: grammar.Seq{hex, hex, hex, hex}},
	)

	g.Define("array",
		grammar.Lit("["),
		ws,
		grammar.Ref("array-content"),
		grammar.Must{Message: "expected , or ]", X: grammar.Seq{ws, grammar.Lit("]")}},
	)
	g.Define("array-content", grammar.Opt(grammar.Seq{
		grammar.Ref("value"),
		grammar.Star(grammar.Seq{
			grammar.Ref("value-separator"),
			grammar.Must{Message: "expected value", X: grammar.Ref("value")},
		}),
	}))

	g.Define("object",
		grammar.Lit("{"),
		ws,
		grammar.Ref("object-content"),
		grammar.Must{Message: "expected , or }", X: grammar.Seq{ws, grammar.Lit("}")}},
	)
	g.Define("object-content", grammar.Opt(grammar.Seq{
		grammar.Ref("member"),
		grammar.Star(grammar.Seq{
			grammar.Ref("value-separator"),
			grammar.Must{Message: "expected member", X: grammar.Ref("member")},
		}),
	}))
	g.Define("member",
		grammar.Ref("member-name"),
		ws,
		grammar.Must{Message: "expected :", X: grammar.Lit(":")},
		ws,
		grammar.Must{Message: "expected value", X: grammar.Ref("value")},
	)
	g.Define("member-name", grammar.Ref("string"))

	// After a comma the only way forward is another element or member;
	// every failure past that point is promoted by a must. That makes
	// the separator a safe place to let a stream drop its buffer.
	g.Define("value-separator", ws, grammar.Lit(","), ws, grammar.Discard{})

	return g
}
