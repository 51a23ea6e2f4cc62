package instrument

import (
	"errors"
	"math"
	"testing"
)

type literal string

func (l literal) Repr() string { return "<" + string(l) + ">" }

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want string
	}{
		{"empty", nil, "()"},
		{"single string", []any{"a"}, "('a',)"},
		{"multiple", []any{1, "b", 2.5}, "(1, 'b', 2.5)"},
		{"bytes", []any{[]byte("hi\n")}, `(b'hi\n',)`},
		{"bool and nil", []any{true, nil}, "(True, None)"},
		{"reprer", []any{literal("x")}, "(<x>,)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatArgs(tt.args); got != tt.want {
				t.Errorf("FormatArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "'plain'"},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{`back\slash`, `'back\\slash'`},
		{"tab\there", `'tab\there'`},
		{"\x01", `'\x01'`},
		{"héllo", "'héllo'"},
		{"\xff", `'\xff'`},
		{"a\xc3b", `'a\xc3b'`},
		{"é\x80", `'é\x80'`},
	}
	for _, tt := range tests {
		if got := QuoteString(tt.in); got != tt.want {
			t.Errorf("QuoteString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e16, "1e+16"},
		{1.5e-05, "1.5e-05"},
		{0.0001, "0.0001"},
		{123456789.0, "123456789.0"},
		{0, "0.0"},
		{math.Inf(1), "inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult("k1", nil); got != "k1" {
		t.Errorf("string result = %q", got)
	}
	if got := FormatResult(42, nil); got != "42" {
		t.Errorf("int result = %q", got)
	}
	if got := FormatResult(nil, nil); got != "None" {
		t.Errorf("nil result = %q", got)
	}
	if got := FormatResult("ignored", errors.New("nope")); got != "error: nope" {
		t.Errorf("error result = %q", got)
	}
}
