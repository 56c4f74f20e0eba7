package grammar

import (
	"strings"
	"testing"
)

func TestCompileResolvesReferences(t *testing.T) {
	g := New("test", "a")
	ref := Ref("b")
	g.Define("a", ref)
	g.Define("b", Lit("x"))
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	id, target := ref.Target()
	wantID, _ := g.RuleID("b")
	if id != wantID {
		t.Errorf("resolved id: got %d, want %d", id, wantID)
	}
	if lit, ok := target.(Lit); !ok || lit != "x" {
		t.Errorf("resolved target: got %#v", target)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Grammar
		want  string
	}{
		{
			"missing root",
			func() *Grammar {
				g := New("test", "nope")
				g.Define("a", Lit("x"))
				return g
			},
			`root rule "nope" is not defined`,
		},
		{
			"missing reference",
			func() *Grammar {
				g := New("test", "a")
				g.Define("a", Ref("ghost"))
				return g
			},
			`rule "ghost" is referenced but not defined`,
		},
		{
			"unused rule",
			func() *Grammar {
				g := New("test", "a")
				g.Define("a", Lit("x"))
				g.Define("b", Lit("y"))
				return g
			},
			`rule "b" is defined but never referenced`,
		},
		{
			"redefined rule",
			func() *Grammar {
				g := New("test", "a")
				g.Define("a", Lit("x"))
				g.Define("a", Lit("y"))
				return g
			},
			`rule "a" already defined`,
		},
		{
			"empty rule",
			func() *Grammar {
				g := New("test", "a")
				g.Define("a")
				return g
			},
			`rule "a" has no expression`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Compile()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCompileReportsAllErrors(t *testing.T) {
	g := New("test", "nope")
	g.Define("a", Ref("ghost"))
	err := g.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{`"nope"`, `"ghost"`, `"a" is defined but never referenced`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestCompileCollectsNestedReferences(t *testing.T) {
	g := New("test", "a")
	g.Define("a", Choice{
		Seq{Lit("x"), Ref("b")},
		Rep{Min: 0, Max: -1, X: Ref("c")},
		And{X: Ref("d")},
		Not{X: Ref("e")},
		Must{Message: "m", X: Ref("f")},
	})
	for _, name := range []string{"b", "c", "d", "e", "f"} {
		g.Define(name, Lit(name))
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if r, ok := Star(Lit("a")).(Rep); !ok || r.Min != 0 || r.Max != -1 {
		t.Errorf("Star: got %#v", Star(Lit("a")))
	}
	if r, ok := Plus(Lit("a")).(Rep); !ok || r.Min != 1 || r.Max != -1 {
		t.Errorf("Plus: got %#v", Plus(Lit("a")))
	}
	if r, ok := Opt(Lit("a")).(Rep); !ok || r.Min != 0 || r.Max != 1 {
		t.Errorf("Opt: got %#v", Opt(Lit("a")))
	}

	c, ok := OneOf("abc").(Class)
	if !ok {
		t.Fatalf("OneOf: got %#v", OneOf("abc"))
	}
	for _, b := range []byte("abc") {
		if !c.Match(b) {
			t.Errorf("OneOf should match %q", b)
		}
	}
	if c.Match('d') {
		t.Error("OneOf should not match 'd'")
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	g := New("test", "a")
	g.Define("a", Lit("x"))
	if err := g.Compile(); err != nil {
		t.Fatalf("first Compile: %v", err)
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("second Compile: %v", err)
	}
	if g.NumRules() != 1 {
		t.Errorf("NumRules: got %d, want 1", g.NumRules())
	}
	if g.RuleName(0) != "a" {
		t.Errorf("RuleName(0): got %q", g.RuleName(0))
	}
}
