package cache

import (
	"strconv"

	"github.com/jonwraymond/kvops/instrument"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindBytes
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// Value is a scalar that can be stored: text, raw bytes, an integer or a
// floating-point number. The zero Value is invalid.
type Value struct {
	kind Kind
	s    string
	b    []byte
	i    int64
	f    float64
}

// String returns a text Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a raw bytes Value. The slice is copied.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, b: append([]byte(nil), b...)}
}

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Encode returns the bytes written to the store. Integers are base-10 text
// and floats use the shortest representation that parses back exactly.
func (v Value) Encode() []byte {
	switch v.kind {
	case KindString:
		return []byte(v.s)
	case KindBytes:
		return append([]byte(nil), v.b...)
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10)
	case KindFloat:
		return []byte(instrument.FormatFloat(v.f))
	default:
		return nil
	}
}

// Repr renders v as a literal for call history: 'text', b'raw', 42, 2.5.
func (v Value) Repr() string {
	switch v.kind {
	case KindString:
		return instrument.Repr(v.s)
	case KindBytes:
		return instrument.Repr(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return instrument.FormatFloat(v.f)
	default:
		return "None"
	}
}

var _ instrument.Reprer = Value{}
