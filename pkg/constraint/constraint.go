// Package constraint checks static, declarative bounds against coerced field values.
package constraint

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/gofhir/modelvalidator/pkg/issue"
)

// Name identifies a constraint.
type Name string

// Constraint names.
const (
	NameGt        Name = "gt"
	NameGe        Name = "ge"
	NameLt        Name = "lt"
	NameLe        Name = "le"
	NameMinLength Name = "min_length"
	NameMaxLength Name = "max_length"
)

// Constraint is a single static bound. Numeric constraints use Bound,
// length constraints use Limit.
type Constraint struct {
	Name  Name
	Bound float64
	Limit int
}

// Gt requires value > bound.
func Gt(bound float64) Constraint { return Constraint{Name: NameGt, Bound: bound} }

// Ge requires value >= bound.
func Ge(bound float64) Constraint { return Constraint{Name: NameGe, Bound: bound} }

// Lt requires value < bound.
func Lt(bound float64) Constraint { return Constraint{Name: NameLt, Bound: bound} }

// Le requires value <= bound.
func Le(bound float64) Constraint { return Constraint{Name: NameLe, Bound: bound} }

// MinLength requires a string, list or map of at least n elements.
func MinLength(n int) Constraint { return Constraint{Name: NameMinLength, Limit: n} }

// MaxLength requires a string, list or map of at most n elements.
func MaxLength(n int) Constraint { return Constraint{Name: NameMaxLength, Limit: n} }

// Numeric reports whether the constraint applies to int and float fields.
func (c Constraint) Numeric() bool {
	switch c.Name {
	case NameGt, NameGe, NameLt, NameLe:
		return true
	}
	return false
}

// Length reports whether the constraint applies to string, list and map fields.
func (c Constraint) Length() bool {
	return c.Name == NameMinLength || c.Name == NameMaxLength
}

// BoundValue returns the bound as it appears in reports: an int for length
// constraints and for whole numeric bounds, a float64 otherwise.
func (c Constraint) BoundValue() any {
	if c.Length() {
		return c.Limit
	}
	if c.Bound == float64(int64(c.Bound)) {
		return int64(c.Bound)
	}
	return c.Bound
}

// String returns the constraint in name=bound form.
func (c Constraint) String() string {
	if c.Length() {
		return string(c.Name) + "=" + strconv.Itoa(c.Limit)
	}
	return string(c.Name) + "=" + strconv.FormatFloat(c.Bound, 'g', -1, 64)
}

// Validate reports definition-time problems with the constraint itself.
func (c Constraint) Validate() error {
	switch {
	case c.Numeric():
		if math.IsNaN(c.Bound) || math.IsInf(c.Bound, 0) {
			return fmt.Errorf("%s bound must be a finite number", c.Name)
		}
		return nil
	case c.Length():
		if c.Limit < 0 {
			return fmt.Errorf("%s must not be negative", c.Name)
		}
		return nil
	}
	return fmt.Errorf("unknown constraint %q", c.Name)
}

// Violation describes a failed constraint.
type Violation struct {
	Constraint Constraint
	Actual     any
	Subject    string
	Unit       string
}

// DiagnosticID returns the diagnostic for the violated constraint.
func (v *Violation) DiagnosticID() issue.DiagnosticID {
	switch v.Constraint.Name {
	case NameGt:
		return issue.DiagConstraintGt
	case NameGe:
		return issue.DiagConstraintGe
	case NameLt:
		return issue.DiagConstraintLt
	case NameLe:
		return issue.DiagConstraintLe
	case NameMinLength:
		return issue.DiagConstraintMinLength
	default:
		return issue.DiagConstraintMaxLength
	}
}

// Params returns the diagnostic template parameters for the violation.
func (v *Violation) Params() map[string]any {
	return map[string]any{
		"constraint": string(v.Constraint.Name),
		"bound":      v.Constraint.BoundValue(),
		"actual":     v.Actual,
		"subject":    v.Subject,
		"unit":       v.Unit,
	}
}

// Check evaluates the constraint against a coerced value.
// It returns nil when the value satisfies the constraint or when the constraint
// does not apply to the value's type.
func (c Constraint) Check(value any) *Violation {
	switch {
	case c.Numeric():
		return c.checkNumeric(value)
	case c.Length():
		return c.checkLength(value)
	}
	return nil
}

func (c Constraint) checkNumeric(value any) *Violation {
	var d decimal.Decimal
	switch x := value.(type) {
	case int64:
		d = decimal.NewFromInt(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case float64:
		d = decimal.NewFromFloat(x)
	default:
		return nil
	}

	bound := decimal.NewFromFloat(c.Bound)
	var ok bool
	switch c.Name {
	case NameGt:
		ok = d.GreaterThan(bound)
	case NameGe:
		ok = d.GreaterThanOrEqual(bound)
	case NameLt:
		ok = d.LessThan(bound)
	case NameLe:
		ok = d.LessThanOrEqual(bound)
	}
	if ok {
		return nil
	}
	return &Violation{Constraint: c, Actual: value}
}

func (c Constraint) checkLength(value any) *Violation {
	var n int
	subject, unit := "Value", "items"
	switch x := value.(type) {
	case string:
		n = utf8.RuneCountInString(x)
		subject, unit = "String", "characters"
	case []any:
		n = len(x)
		subject = "List"
	case map[string]any:
		n = len(x)
		subject = "Dictionary"
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			n = rv.Len()
			subject = "List"
		case reflect.Map:
			n = rv.Len()
			subject = "Dictionary"
		default:
			return nil
		}
	}

	if c.Name == NameMinLength && n >= c.Limit {
		return nil
	}
	if c.Name == NameMaxLength && n <= c.Limit {
		return nil
	}
	return &Violation{Constraint: c, Actual: n, Subject: subject, Unit: unit}
}

// CheckAll evaluates every constraint and returns all violations in declaration order.
func CheckAll(constraints []Constraint, value any) []*Violation {
	var out []*Violation
	for _, c := range constraints {
		if v := c.Check(value); v != nil {
			out = append(out, v)
		}
	}
	return out
}
