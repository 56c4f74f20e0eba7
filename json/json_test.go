package json

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/peg/input"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // compact re-encoding
	}{
		{"null", `null`, `null`},
		{"true", `true`, `true`},
		{"false", `false`, `false`},
		{"zero", `0`, `0`},
		{"integer", `42`, `42`},
		{"negative", `-7`, `-7`},
		{"fraction", `3.25`, `3.25`},
		{"exponent", `1e3`, `1000`},
		{"signed exponent", `-2.5e-3`, `-0.0025`},
		{"empty string", `""`, `""`},
		{"string", `"hello"`, `"hello"`},
		{"escapes", `"a\"b\\c\/d\n"`, `"a\"b\\c/d\n"`},
		{"unicode escape", `"é"`, `"é"`},
		{"empty array", `[]`, `[]`},
		{"array", `[1,2,3]`, `[1,2,3]`},
		{"nested array", `[1,[2,3],4]`, `[1,[2,3],4]`},
		{"empty object", `{}`, `{}`},
		{"object", `{"b":2,"a":1}`, `{"a":1,"b":2}`},
		{"nested object", `{"a":{"b":[true,null]}}`, `{"a":{"b":[true,null]}}`},
		{"whitespace", " [ 1 , 2 ] ", `[1,2]`},
		{"crlf whitespace", "{\r\n  \"a\": 1\r\n}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseString("doc", tt.in)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if got := Encode(v); got != tt.want {
				t.Errorf("parse %q: got %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBuildsTree(t *testing.T) {
	v, err := ParseString("doc", `{"name":"peg","tags":["go","parser"],"stars":12}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Object{
		"name":  String("peg"),
		"tags":  Array{String("go"), String("parser")},
		"stars": Number(12),
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSiblingArraysAreIndependent(t *testing.T) {
	// Each nesting level gets its own accumulator; elements of one
	// sibling must never leak into the other.
	v, err := ParseString("doc", `[[1,2],[3,4]]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Array{
		Array{Number(1), Number(2)},
		Array{Number(3), Number(4)},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSurrogatePairs(t *testing.T) {
	v, err := ParseString("doc", `"😀"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := v.(String), String("\U0001F600"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty input", ``, "doc:1:1: expected value"},
		{"trailing garbage", `true false`, "doc:1:6: unexpected character after value"},
		{"trailing comma in array", `[1,]`, "doc:1:4: expected value"},
		{"trailing comma in object", `{"a":1,}`, "doc:1:8: expected member"},
		{"missing separator", `[1 2]`, "doc:1:3: expected , or ]"},
		{"missing colon", `{"a" 1}`, "doc:1:6: expected :"},
		{"unterminated string", `"abc`, "doc:1:5: unterminated string"},
		{"bad escape", `"\x"`, "doc:1:3: invalid escape sequence"},
		{"truncated fraction", `1.x`, "doc:1:3: expected digits after decimal point"},
		{"truncated exponent", `1e`, "doc:1:3: expected digits in exponent"},
		{"lone high surrogate", `"\uD83D"`, "doc:1:2: incomplete surrogate pair in string"},
		{"error on later line", "[\n1,]", "doc:2:3: expected value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString("doc", tt.in)
			if err == nil {
				t.Fatalf("parse %q: expected error", tt.in)
			}
			if got := err.Error(); got != tt.want {
				t.Errorf("parse %q: got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check(input.NewString("doc", `{"ok":true}`)); err != nil {
		t.Errorf("valid document: %v", err)
	}
	if err := Check(input.NewString("doc", `{"ok":}`)); err == nil {
		t.Error("invalid document: expected error")
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null{}, `null`},
		{"control characters", String("a\"\\\n\x01"), `"a\"\\\n"`},
		{"sorted keys", Object{"b": Number(2), "a": Number(1), "c": Null{}}, `{"a":1,"b":2,"c":null}`},
		{"empty array", Array(nil), `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// chunkReader yields at most one byte per Read, forcing the stream to
// refill constantly.
type chunkReader struct {
	s string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.s) == 0 {
		return 0, io.EOF
	}
	p[0] = r.s[0]
	r.s = r.s[1:]
	return 1, nil
}

func TestStreamingMatchesBuffer(t *testing.T) {
	docs := []string{
		`{"name":"peg","tags":["go","parser"],"stars":12}`,
		`[[1,2],[3,4],"deep éscape"]`,
		`[1,]`,
		`{"a" 1}`,
	}
	for _, doc := range docs {
		bufVal, bufErr := ParseString("doc", doc)
		streamVal, streamErr := ParseReader("doc", &chunkReader{s: doc}, input.WithWindow(32))

		if (bufErr == nil) != (streamErr == nil) {
			t.Fatalf("parse %q: buffer err %v, stream err %v", doc, bufErr, streamErr)
		}
		if bufErr != nil {
			if bufErr.Error() != streamErr.Error() {
				t.Errorf("parse %q: buffer err %q, stream err %q", doc, bufErr, streamErr)
			}
			continue
		}
		if diff := cmp.Diff(bufVal, streamVal); diff != "" {
			t.Errorf("parse %q: stream differs from buffer:\n%s", doc, diff)
		}
	}
}

func TestStreamingLargeDocument(t *testing.T) {
	// Many small elements through a bounded window: total input far
	// exceeds the window, but no single token does.
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < 500; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(`"item"`)
	}
	sb.WriteByte(']')

	v, err := ParseReader("doc", strings.NewReader(sb.String()), input.WithWindow(64))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	arr, ok := v.(Array)
	if !ok {
		t.Fatalf("got %T, want Array", v)
	}
	if len(arr) != 500 {
		t.Errorf("got %d elements, want 500", len(arr))
	}
}
