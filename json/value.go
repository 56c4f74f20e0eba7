package json

import (
	"sort"
	"strconv"
)

// Value is one node of a parsed JSON document. The concrete types are
// Null, Bool, Number, String, Array, and Object.
type Value interface {
	value()
}

type Null struct{}

type Bool bool

// Number holds a JSON number as a float64. Precise decoding (big
// integers, arbitrary precision) is a caller concern; parse the
// matched text yourself with a custom action if float64 is not enough.
type Number float64

type String string

type Array []Value

type Object map[string]Value

func (Null) value() {}
func (Bool) value() {}
func (Number) value() {}
func (String) value() {}
func (Array) value() {}
func (Object) value() {}

// Encode renders v as compact JSON text. Object members are emitted in
// sorted key order so output is deterministic.
func Encode(v Value) string {
	return string(appendValue(nil, v))
}

func appendValue(dst []byte, v Value) []byte {
	switch v := v.(type) {
	case Null:
		return append(dst, "null"...)
	case Bool:
		if v {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case Number:
		return strconv.AppendFloat(dst, float64(v), 'g', -1, 64)
	case String:
		return appendString(dst, string(v))
	case Array:
		dst = append(dst, '[')
		for i, e := range v {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendValue(dst, e)
		}
		return append(dst, ']')
	case Object:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, k)
			dst = append(dst, ':')
			dst = appendValue(dst, v[k])
		}
		return append(dst, '}')
	case nil:
		return append(dst, "null"...)
	default:
		panic("json: unknown value type")
	}
}

const hexDigits = "0123456789abcdef"

func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
