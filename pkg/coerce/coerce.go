// Package coerce converts raw input values into the primitive types a schema field declares.
//
// Conversions are deliberately narrow: numbers and numeric strings interconvert,
// booleans accept only literal booleans, and strings accept only strings.
// Formatted strings (email, URL) are checked with go-playground/validator.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Type names used in Expected and Received.
const (
	TypeInt     = "int"
	TypeFloat   = "float"
	TypeString  = "string"
	TypeBool    = "bool"
	TypeEmail   = "email"
	TypeURL     = "url"
	TypeList    = "list"
	TypeMap     = "map"
	TypeNull    = "null"
	TypeMissing = "missing"
)

// Error describes a value that could not be converted.
type Error struct {
	// Expected is the declared type name.
	Expected string

	// Received is the type name of the raw value.
	Received string

	// Reason is set when the value had the right shape but failed a format
	// rule (for example an email without a dotted domain).
	Reason string

	// Key is set when a map had non-string keys.
	Key bool
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Expected, e.Reason)
	}
	return fmt.Sprintf("expected %s, received %s", e.Expected, e.Received)
}

func mismatch(expected string, v any) *Error {
	return &Error{Expected: expected, Received: TypeName(v)}
}

// TypeName returns the name used in diagnostics for the type of a raw value.
func TypeName(v any) string {
	switch x := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt
	case float32, float64:
		return TypeFloat
	case json.Number:
		if strings.ContainsAny(string(x), ".eE") {
			return TypeFloat
		}
		return TypeInt
	case string:
		return TypeString
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeList
	case reflect.Map:
		return TypeMap
	case reflect.Ptr:
		if reflect.ValueOf(v).IsNil() {
			return TypeNull
		}
		return TypeName(reflect.ValueOf(v).Elem().Interface())
	}
	return fmt.Sprintf("%T", v)
}

// Int converts v to an int64.
// Accepts integer kinds, floats without a fractional part, base-10 numeric strings
// and JSON numbers. Booleans are rejected.
func Int(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt(uint64(x), v)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt(x, v)
	case float32:
		return floatToInt(float64(x), v)
	case float64:
		return floatToInt(x, v)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, mismatch(TypeInt, v)
		}
		return floatToInt(f, v)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, mismatch(TypeInt, v)
		}
		return n, nil
	}
	return 0, mismatch(TypeInt, v)
}

func uintToInt(u uint64, raw any) (int64, error) {
	if u > math.MaxInt64 {
		return 0, &Error{Expected: TypeInt, Received: TypeName(raw), Reason: "value out of range"}
	}
	return int64(u), nil
}

func floatToInt(f float64, raw any) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, mismatch(TypeInt, raw)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &Error{Expected: TypeInt, Received: TypeName(raw), Reason: "value out of range"}
	}
	return int64(f), nil
}

// Float converts v to a float64.
// Accepts every numeric kind, numeric strings and JSON numbers. NaN and infinities are rejected.
func Float(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, mismatch(TypeFloat, v)
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, mismatch(TypeFloat, v)
		}
		f = n
	default:
		return 0, mismatch(TypeFloat, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &Error{Expected: TypeFloat, Received: TypeName(v), Reason: "value is not finite"}
	}
	return f, nil
}

// String accepts strings only. Numbers are not formatted into strings.
func String(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(TypeString, v)
	}
	return s, nil
}

// Bool accepts literal booleans only.
func Bool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, mismatch(TypeBool, v)
	}
	return b, nil
}

// List converts any slice or array into a []any.
// Elements are returned unconverted.
func List(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case nil, string:
		return nil, mismatch(TypeList, v)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, mismatch(TypeList, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Map converts any map with string keys into a map[string]any.
// Values are returned unconverted.
func Map(v any) (map[string]any, error) {
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	case nil:
		return nil, mismatch(TypeMap, v)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, mismatch(TypeMap, v)
	}
	if rv.Type().Key().Kind() != reflect.String {
		return nil, &Error{Expected: TypeMap, Received: rv.Type().Key().Kind().String(), Key: true}
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}
