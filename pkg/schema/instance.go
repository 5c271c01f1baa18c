package schema

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/gofhir/modelvalidator/pkg/issue"
)

// Instance is an immutable, fully validated model value.
// Field values are stored in declaration order; absent optional fields are
// kept distinct from zero values.
type Instance struct {
	schema  *Schema
	values  []any
	present []bool
}

// Schema returns the schema the instance was validated against.
func (i *Instance) Schema() *Schema { return i.schema }

// Get returns the value of a field and whether it is present.
// Lists and maps are returned as copies.
func (i *Instance) Get(name string) (any, bool) {
	idx, ok := i.schema.index[name]
	if !ok || !i.present[idx] {
		return nil, false
	}
	return deepCopy(i.values[idx]), true
}

// Has reports whether a field is present.
func (i *Instance) Has(name string) bool {
	idx, ok := i.schema.index[name]
	return ok && i.present[idx]
}

// Range calls fn for each declared field in order. Absent fields are passed with
// present set to false. Iteration stops when fn returns false.
func (i *Instance) Range(fn func(name string, value any, present bool) bool) {
	for idx, f := range i.schema.fields {
		if !fn(f.Name, deepCopy(i.values[idx]), i.present[idx]) {
			return
		}
	}
}

// GetString returns a string field, or "" when absent.
func (i *Instance) GetString(name string) string {
	v, _ := i.Get(name)
	s, _ := v.(string)
	return s
}

// GetInt returns an int field, or 0 when absent.
func (i *Instance) GetInt(name string) int64 {
	v, _ := i.Get(name)
	n, _ := v.(int64)
	return n
}

// GetFloat returns a float field, or 0 when absent.
func (i *Instance) GetFloat(name string) float64 {
	v, _ := i.Get(name)
	f, _ := v.(float64)
	return f
}

// GetBool returns a bool field, or false when absent.
func (i *Instance) GetBool(name string) bool {
	v, _ := i.Get(name)
	b, _ := v.(bool)
	return b
}

// GetList returns a copy of a list field, or nil when absent.
func (i *Instance) GetList(name string) []any {
	v, _ := i.Get(name)
	l, _ := v.([]any)
	return l
}

// GetMap returns a copy of a map field, or nil when absent.
func (i *Instance) GetMap(name string) map[string]any {
	v, _ := i.Get(name)
	m, _ := v.(map[string]any)
	return m
}

// GetModel returns a nested instance, or nil when absent.
func (i *Instance) GetModel(name string) *Instance {
	v, _ := i.Get(name)
	m, _ := v.(*Instance)
	return m
}

// Equal reports whether both instances have the same schema and field values.
// Computed fields are not compared.
func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.schema != o.schema {
		return false
	}
	for idx := range i.values {
		if i.present[idx] != o.present[idx] {
			return false
		}
		if !valuesEqual(i.values[idx], o.values[idx]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k := range x {
			if !valuesEqual(x[k], y[k]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, found := y[k]
			if !found || !valuesEqual(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// AsMap returns the present fields as a plain map, expanding nested instances.
// Computed fields are not included.
func (i *Instance) AsMap() map[string]any {
	out := make(map[string]any, len(i.values))
	for idx, f := range i.schema.fields {
		if i.present[idx] {
			out[f.Name] = plain(i.values[idx])
		}
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case *Instance:
		return x.AsMap()
	case []any:
		out := make([]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	}
	return v
}

// Decode copies the instance's fields into out, which must be a pointer to a struct
// or map. Struct fields are matched by their `field` tag, falling back to the
// case-insensitive field name.
func (i *Instance) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "field",
		Result:           out,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return fmt.Errorf("schema: decode %s: %w", i.schema.name, err)
	}
	if err := dec.Decode(i.AsMap()); err != nil {
		return fmt.Errorf("schema: decode %s: %w", i.schema.name, err)
	}
	return nil
}

// clone returns a deep copy of the instance.
func (i *Instance) clone() *Instance {
	c := &Instance{
		schema:  i.schema,
		values:  make([]any, len(i.values)),
		present: append([]bool(nil), i.present...),
	}
	for idx, v := range i.values {
		c.values[idx] = deepCopy(v)
	}
	return c
}

// deepCopy copies lists and maps recursively. Instances are immutable and shared.
func deepCopy(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	}
	return v
}

// ComputationError reports a computed field that could not be evaluated.
type ComputationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: computed field '%s': %s", issue.KindComputation, e.Field, e.Reason)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Issue converts the error into a report entry.
func (e *ComputationError) Issue() issue.Issue {
	return issue.New(issue.DiagComputation, e.Field, map[string]any{
		"field":  e.Field,
		"reason": e.Reason,
	})
}

// Computed evaluates the named computed field. The function runs on every
// call; results are not cached.
func (i *Instance) Computed(name string) (v any, err error) {
	idx, ok := i.schema.computedIdx[name]
	if !ok {
		return nil, &ComputationError{Field: name, Reason: "no such computed field"}
	}
	c := i.schema.computed[idx]

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &ComputationError{Field: name, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	out, ferr := c.Fn(i)
	if ferr != nil {
		return nil, &ComputationError{Field: name, Reason: ferr.Error(), Err: ferr}
	}
	if f, ok := out.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil, &ComputationError{Field: name, Reason: "result is not a finite number"}
	}

	scratch := issue.NewReport()
	res, ok := coerceValue(c.Type, out, name, scratch)
	if !ok {
		return nil, &ComputationError{Field: name, Reason: scratch.Issues[0].Diagnostics}
	}
	return res, nil
}

// Round rounds x to the given number of decimal places, half away from zero.
func Round(x float64, places int) float64 {
	return decimal.NewFromFloat(x).Round(int32(places)).InexactFloat64()
}
