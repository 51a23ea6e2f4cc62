package instrument

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Reprer is implemented by values that render their own literal form in
// call history.
type Reprer interface {
	Repr() string
}

// FormatArgs renders an argument list as a tuple literal:
// () for no arguments, ('a',) for one, (1, 'b') for several.
func FormatArgs(args []any) string {
	switch len(args) {
	case 0:
		return "()"
	case 1:
		return "(" + Repr(args[0]) + ",)"
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = Repr(arg)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatResult renders a call result for the outputs log. Strings are written
// as-is; a non-nil err is written as "error: <msg>".
func FormatResult(result any, err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	switch v := result.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return Repr(result)
	}
}

// Repr renders v as a literal: quoted strings, b'' bytes, True/False, None.
func Repr(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case Reprer:
		return val.Repr()
	case string:
		return QuoteString(val)
	case []byte:
		return "b" + quoteBytes(val)
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return FormatFloat(float64(val))
	case float64:
		return FormatFloat(val)
	case fmt.Stringer:
		return QuoteString(val.String())
	default:
		return fmt.Sprint(val)
	}
}

// QuoteString quotes s with single quotes, switching to double quotes when s
// contains a single quote but no double quote.
func QuoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func quoteBytes(p []byte) string {
	quote := byte('\'')
	if strings.IndexByte(string(p), '\'') >= 0 && strings.IndexByte(string(p), '"') < 0 {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, c := range p {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == quote:
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// FormatFloat renders f in shortest round-trip form, always with a decimal
// point or exponent: 3.0, 0.1, 1e+16, 1.5e-05.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if f != 0 {
		sci := strconv.FormatFloat(f, 'e', -1, 64)
		exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return sci
		}
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
