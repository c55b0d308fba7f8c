// Package payload reshapes raw Twitter API payloads (v1.1 webhook and REST
// dialects, v2 REST) into the canonical field layout the domain decoders read.
//
// Every function returns a new value and leaves its input untouched, so a
// page held in a pagination cache can be normalized again without aliasing.
package payload

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Raw is an untyped JSON object as received from the transport.
// Numbers are expected to be json.Number (decoder.UseNumber).
type Raw = map[string]any

// Unconvertible marks a metric value that could not be coerced to an integer.
// No convertible value maps to it (a real math.MinInt64 is reported one
// above), so callers compare against it rather than treating it as zero.
const Unconvertible int64 = math.MinInt64

// Map returns v as an object, or nil if it is not one.
func Map(v any) Raw {
	m, _ := v.(map[string]any)
	return m
}

// List returns v as an array, or nil if it is not one.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// String renders scalar JSON values as strings. Objects, arrays and nil
// render as "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// Int64 parses integer ids and counters. Numeric strings are accepted since
// the v1.1 API sends ids as both numbers and *_str strings.
func Int64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

// Bool reads a JSON boolean, defaulting to false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Clone returns a shallow copy of raw. A nil input yields an empty object.
func Clone(raw Raw) Raw {
	out := make(Raw, len(raw)+2)
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// Body returns the "data" object of a v2 response, or raw itself when the
// payload is already unwrapped.
func Body(raw Raw) Raw {
	if data := Map(raw["data"]); data != nil {
		return data
	}
	return raw
}

// Decode parses a JSON document into a Raw, keeping numbers exact.
// Top-level arrays are wrapped as {"data": [...]}.
func Decode(body []byte) (Raw, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case []any:
		return Raw{"data": x}, nil
	case nil:
		return nil, nil
	}
	return Raw{"data": v}, nil
}
