package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrTypeConversion indicates stored bytes do not match the shape a decoder
// expects, such as non-numeric text decoded as an integer.
var ErrTypeConversion = errors.New("cache: type conversion failed")

// ErrNilDecoder indicates GetAs was called without a decoder.
var ErrNilDecoder = errors.New("cache: decoder is nil")

// Decoder converts raw stored bytes back into a typed value.
type Decoder[T any] func(raw []byte) (T, error)

// DecodeBytes returns the raw bytes unchanged.
func DecodeBytes(raw []byte) ([]byte, error) {
	return raw, nil
}

// DecodeString decodes raw as UTF-8 text.
func DecodeString(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrTypeConversion)
	}
	return string(raw), nil
}

// DecodeInt parses raw as a base-10 integer.
func DecodeInt(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeConversion, raw)
	}
	return n, nil
}

// DecodeFloat parses raw as a floating-point number.
func DecodeFloat(raw []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrTypeConversion, raw)
	}
	return f, nil
}

// GetAs reads key and applies decode to the raw value.
//
// A missing key returns the zero T and found=false without calling decode.
// Decoder failures are wrapped with ErrTypeConversion.
func GetAs[T any](ctx context.Context, c *Cache, key string, decode Decoder[T]) (T, bool, error) {
	var zero T
	if decode == nil {
		return zero, false, ErrNilDecoder
	}

	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	value, err := decode(raw)
	if err != nil {
		if errors.Is(err, ErrTypeConversion) {
			return zero, true, fmt.Errorf("cache: decode %s: %w", key, err)
		}
		return zero, true, fmt.Errorf("%w: decode %s: %w", ErrTypeConversion, key, err)
	}
	return value, true, nil
}

// GetString reads key as UTF-8 text.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	return GetAs(ctx, c, key, DecodeString)
}

// GetInt reads key as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetAs(ctx, c, key, DecodeInt)
}

// GetFloat reads key as a floating-point number.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetAs(ctx, c, key, DecodeFloat)
}
