package schema

import (
	"strconv"

	"github.com/gofhir/modelvalidator/pkg/constraint"
)

// HookMode tells whether a field hook runs before or after coercion.
type HookMode int

const (
	// ModeBefore hooks receive the raw input value.
	ModeBefore HookMode = iota
	// ModeAfter hooks receive the coerced value once every constraint passed.
	ModeAfter
)

func (m HookMode) String() string {
	if m == ModeBefore {
		return "before"
	}
	return "after"
}

// HookFunc is a field validator. It returns the (possibly transformed) value
// or an error whose message becomes a CustomValidationError.
type HookFunc func(value any) (any, error)

// Hook is a named field validator bound to a mode.
type Hook struct {
	Name string
	Mode HookMode
	Fn   HookFunc
}

// FieldDescriptor declares one input field of a schema.
type FieldDescriptor struct {
	Name        string
	Type        Type
	Optional    bool
	Constraints []constraint.Constraint
	Hooks       []Hook

	Title       string
	Description string
	Examples    []any

	defaultValue any
	hasDefault   bool
}

// Default returns a copy of the field's default value.
func (f FieldDescriptor) Default() (any, bool) {
	if !f.hasDefault {
		return nil, false
	}
	return deepCopy(f.defaultValue), true
}

// clone returns a copy that shares no slices with f.
func (f FieldDescriptor) clone() FieldDescriptor {
	f.Constraints = append([]constraint.Constraint(nil), f.Constraints...)
	f.Hooks = append([]Hook(nil), f.Hooks...)
	if f.Examples != nil {
		examples := make([]any, len(f.Examples))
		for i, ex := range f.Examples {
			examples[i] = deepCopy(ex)
		}
		f.Examples = examples
	}
	return f
}

// hooks returns the hooks of the given mode in declaration order.
func (f FieldDescriptor) hooks(mode HookMode) []Hook {
	var out []Hook
	for _, h := range f.Hooks {
		if h.Mode == mode {
			out = append(out, h)
		}
	}
	return out
}

// FieldOption configures a FieldDescriptor.
type FieldOption func(*FieldDescriptor)

// Field declares a field.
//
//	schema.Field("weight", schema.Float(), schema.Constraints(constraint.Gt(0), constraint.Lt(100)))
func Field(name string, t Type, opts ...FieldOption) FieldDescriptor {
	f := FieldDescriptor{Name: name, Type: t}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Optional marks the field as not required.
func Optional() FieldOption {
	return func(f *FieldDescriptor) {
		f.Optional = true
	}
}

// Default sets the value used when an optional field is absent.
// A nil default leaves the field absent.
func Default(v any) FieldOption {
	return func(f *FieldDescriptor) {
		if v == nil {
			f.defaultValue, f.hasDefault = nil, false
			return
		}
		f.defaultValue, f.hasDefault = v, true
	}
}

// Constraints appends static bounds to the field.
func Constraints(cs ...constraint.Constraint) FieldOption {
	return func(f *FieldDescriptor) {
		f.Constraints = append(f.Constraints, cs...)
	}
}

// Before appends a hook that runs on the raw value.
func Before(fn HookFunc) FieldOption {
	return func(f *FieldDescriptor) {
		f.Hooks = append(f.Hooks, Hook{Name: hookName(f.Name, ModeBefore, len(f.Hooks)), Mode: ModeBefore, Fn: fn})
	}
}

// After appends a hook that runs on the coerced value.
func After(fn HookFunc) FieldOption {
	return func(f *FieldDescriptor) {
		f.Hooks = append(f.Hooks, Hook{Name: hookName(f.Name, ModeAfter, len(f.Hooks)), Mode: ModeAfter, Fn: fn})
	}
}

// WithHook appends a named hook.
func WithHook(h Hook) FieldOption {
	return func(f *FieldDescriptor) {
		if h.Name == "" {
			h.Name = hookName(f.Name, h.Mode, len(f.Hooks))
		}
		f.Hooks = append(f.Hooks, h)
	}
}

func hookName(field string, mode HookMode, i int) string {
	return field + "." + mode.String() + "[" + strconv.Itoa(i) + "]"
}

// Title sets the display title used in schema exports.
func Title(s string) FieldOption {
	return func(f *FieldDescriptor) {
		f.Title = s
	}
}

// Description sets the field description used in schema exports.
func Description(s string) FieldOption {
	return func(f *FieldDescriptor) {
		f.Description = s
	}
}

// Examples sets example values used in schema exports.
func Examples(v ...any) FieldOption {
	return func(f *FieldDescriptor) {
		f.Examples = append(f.Examples, v...)
	}
}
