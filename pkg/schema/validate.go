package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gofhir/modelvalidator/pkg/coerce"
	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/pool"
)

// Validate runs raw through the schema pipeline.
// On failure the returned error is an *issue.Report holding every problem found.
func (s *Schema) Validate(raw map[string]any) (*Instance, error) {
	inst, report := s.Check(raw)
	if !report.Empty() {
		return nil, report
	}
	return inst, nil
}

// MustValidate is like Validate but panics on failure.
func (s *Schema) MustValidate(raw map[string]any) *Instance {
	inst, err := s.Validate(raw)
	if err != nil {
		panic(err)
	}
	return inst
}

// Check runs raw through the schema pipeline and returns either an instance or
// a non-empty report, never both. A nil raw map is treated as empty.
func (s *Schema) Check(raw map[string]any) (*Instance, *issue.Report) {
	report := issue.NewReport()
	inst := s.build(raw, report)
	if !report.Empty() {
		return nil, report
	}
	return inst, nil
}

// build validates raw and appends problems to report with paths relative to s.
func (s *Schema) build(raw map[string]any, report *issue.Report) *Instance {
	start := report.Len()

	inst := &Instance{
		schema:  s,
		values:  make([]any, len(s.fields)),
		present: make([]bool, len(s.fields)),
	}

	for i := range s.fields {
		f := &s.fields[i]
		v, given := raw[f.Name]

		if !given || (v == nil && f.Optional) {
			if !f.Optional {
				report.AddWithID(issue.DiagTypeMissing, f.Name, map[string]any{
					"expected": f.Type.Name(),
					"received": coerce.TypeMissing,
				})
				continue
			}
			if dv, ok := f.Default(); ok {
				inst.values[i], inst.present[i] = dv, true
			}
			continue
		}

		if out, ok := s.validateField(f, v, report); ok {
			inst.values[i], inst.present[i] = out, true
		}
	}

	if report.Len() > start {
		return nil
	}

	for _, mv := range s.validators {
		if err := runModelValidator(mv, inst); err != nil {
			report.AddWithID(issue.DiagCrossFieldFailed, "", map[string]any{
				"message":   err.Error(),
				"validator": mv.Name,
			})
			return nil
		}
	}
	return inst
}

// validateField runs before hooks, coercion, constraints and after hooks for one field.
func (s *Schema) validateField(f *FieldDescriptor, raw any, report *issue.Report) (any, bool) {
	path := f.Name

	v := raw
	for _, h := range f.hooks(ModeBefore) {
		out, err := runHook(h, v)
		if err != nil {
			addHookFailure(report, path, h, err)
			return nil, false
		}
		v = out
	}

	cv, ok := coerceValue(f.Type, v, path, report)
	if !ok {
		return nil, false
	}

	violations := constraint.CheckAll(f.Constraints, cv)
	for _, viol := range violations {
		report.AddWithID(viol.DiagnosticID(), path, viol.Params())
	}
	if len(violations) > 0 {
		return nil, false
	}

	after := f.hooks(ModeAfter)
	if len(after) == 0 {
		return cv, true
	}

	v = cv
	last := after[0]
	for _, h := range after {
		out, err := runHook(h, v)
		if err != nil {
			addHookFailure(report, path, h, err)
			return nil, false
		}
		v, last = out, h
	}

	// The value an after hook hands back must still be of the declared type.
	scratch := issue.NewReport()
	final, ok := coerceValue(f.Type, v, path, scratch)
	if !ok {
		report.AddWithID(issue.DiagCustomWrongType, path, map[string]any{
			"hook":     last.Name,
			"expected": f.Type.Name(),
			"received": coerce.TypeName(v),
		})
		return nil, false
	}
	return final, true
}

func addHookFailure(report *issue.Report, path string, h Hook, err error) {
	report.AddWithID(issue.DiagCustomFailed, path, map[string]any{
		"message": err.Error(),
		"hook":    h.Name,
	})
}

// runHook calls a field hook, turning a panic into an error.
func runHook(h Hook, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator %s panicked: %v", h.Name, r)
		}
	}()
	return h.Fn(v)
}

// runModelValidator calls a model validator, turning a panic into an error.
func runModelValidator(mv ModelValidator, inst *Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator %s panicked: %v", mv.Name, r)
		}
	}()
	return mv.Fn(inst)
}

// coerceValue converts v to type t, recursing into lists, maps and nested models.
// Problems are added to report at path.
func coerceValue(t Type, v any, path string, report *issue.Report) (any, bool) {
	if v == nil {
		report.AddWithID(issue.DiagTypeNull, path, map[string]any{
			"expected": t.Name(),
			"received": coerce.TypeNull,
		})
		return nil, false
	}

	var (
		out any
		err error
	)
	switch t.kind {
	case KindString:
		out, err = coerce.String(v)
	case KindInt:
		out, err = coerce.Int(v)
	case KindFloat:
		out, err = coerce.Float(v)
	case KindBool:
		out, err = coerce.Bool(v)
	case KindEmail:
		out, err = coerce.Email(v)
	case KindURL:
		out, err = coerce.URL(v)
	case KindList:
		return coerceList(t, v, path, report)
	case KindMap:
		return coerceMap(t, v, path, report)
	case KindModel:
		return t.model.resolve(v, path, report)
	default:
		err = &coerce.Error{Expected: t.Name(), Received: coerce.TypeName(v)}
	}
	if err != nil {
		addCoerceFailure(report, path, t, err)
		return nil, false
	}
	return out, true
}

func addCoerceFailure(report *issue.Report, path string, t Type, err error) {
	var ce *coerce.Error
	if !errors.As(err, &ce) {
		report.AddWithID(issue.DiagTypeInvalid, path, map[string]any{
			"expected": t.Name(),
			"received": err.Error(),
		})
		return
	}

	switch {
	case ce.Key:
		report.AddWithID(issue.DiagTypeMapKey, path, map[string]any{
			"expected": t.Name(),
			"received": ce.Received,
		})
	case ce.Reason != "" && t.kind == KindEmail:
		report.AddWithID(issue.DiagTypeInvalidEmail, path, map[string]any{
			"expected": t.Name(),
			"received": ce.Received,
			"reason":   ce.Reason,
		})
	case ce.Reason != "" && t.kind == KindURL:
		report.AddWithID(issue.DiagTypeInvalidURL, path, map[string]any{
			"expected": t.Name(),
			"received": ce.Received,
			"reason":   ce.Reason,
		})
	default:
		report.AddWithID(issue.DiagTypeInvalid, path, map[string]any{
			"expected": t.Name(),
			"received": ce.Received,
		})
	}
}

func coerceList(t Type, v any, path string, report *issue.Report) (any, bool) {
	items, err := coerce.List(v)
	if err != nil {
		addCoerceFailure(report, path, t, err)
		return nil, false
	}

	elem := t.Elem()
	out := make([]any, len(items))
	ok := true
	for i, item := range items {
		cv, good := coerceValue(elem, item, pool.Index(path, i), report)
		if !good {
			ok = false
			continue
		}
		out[i] = cv
	}
	if !ok {
		return nil, false
	}
	return out, true
}

func coerceMap(t Type, v any, path string, report *issue.Report) (any, bool) {
	m, err := coerce.Map(v)
	if err != nil {
		addCoerceFailure(report, path, t, err)
		return nil, false
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	elem := t.Elem()
	out := make(map[string]any, len(m))
	ok := true
	for _, k := range keys {
		cv, good := coerceValue(elem, m[k], pool.Field(path, k), report)
		if !good {
			ok = false
			continue
		}
		out[k] = cv
	}
	if !ok {
		return nil, false
	}
	return out, true
}

// resolve turns v into an instance of s. An instance of s is taken as already
// validated; a map runs through the full pipeline with its issues re-tagged under path.
func (s *Schema) resolve(v any, path string, report *issue.Report) (any, bool) {
	if inst, ok := v.(*Instance); ok {
		if inst == nil {
			report.AddWithID(issue.DiagTypeNull, path, map[string]any{
				"expected": s.name,
				"received": coerce.TypeNull,
			})
			return nil, false
		}
		if inst.schema != s {
			report.AddWithID(issue.DiagTypeWrongModel, path, map[string]any{
				"expected": s.name,
				"received": inst.schema.name,
			})
			return nil, false
		}
		return inst.clone(), true
	}

	m, err := coerce.Map(v)
	if err != nil {
		received := coerce.TypeName(v)
		var ce *coerce.Error
		if errors.As(err, &ce) {
			received = ce.Received
		}
		report.AddWithID(issue.DiagTypeInvalid, path, map[string]any{
			"expected": s.name,
			"received": received,
		})
		return nil, false
	}

	sub := issue.NewReport()
	child := s.build(m, sub)
	if !sub.Empty() {
		report.MergeUnder(path, sub)
		return nil, false
	}
	return child, true
}
