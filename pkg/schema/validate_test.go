package schema_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

func mustReport(t *testing.T, err error) *issue.Report {
	t.Helper()
	require.Error(t, err)
	var report *issue.Report
	require.True(t, errors.As(err, &report), "error %T is not a report", err)
	return report
}

func TestValidPatient(t *testing.T) {
	s := newPatientSchema()

	inst, err := s.Validate(validPatient())
	require.NoError(t, err)

	assert.Equal(t, "Ali", inst.GetString("name"))
	assert.Equal(t, int64(30), inst.GetInt("age"))
	assert.Equal(t, "nencn@petalnex.com", inst.GetString("email"))
	assert.Equal(t, 78.3, inst.GetFloat("weight"))
	assert.True(t, inst.GetBool("married"))
	assert.Equal(t, []any{"Dust"}, inst.GetList("allergies"))
	assert.Equal(t, map[string]any{"phone": "3233424"}, inst.GetMap("contact_details"))
}

func TestNumericStringCoercion(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["age"] = "45"
	raw["weight"] = "70.5"

	inst, err := s.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(45), inst.GetInt("age"))
	assert.Equal(t, 70.5, inst.GetFloat("weight"))
}

func TestEveryViolatedFieldReported(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["name"] = strings.Repeat("x", 51)
	raw["weight"] = -4.0
	raw["email"] = "not-an-email"
	raw["married"] = "yes"
	delete(raw, "contact_details")

	_, err := s.Validate(raw)
	report := mustReport(t, err)

	assert.ElementsMatch(t,
		[]string{"name", "email", "weight", "married", "contact_details"},
		report.Paths())

	name := report.AtPath("name")
	require.Len(t, name, 1)
	assert.Equal(t, issue.KindConstraint, name[0].Kind)
	assert.Equal(t, "max_length", name[0].Constraint)
	assert.Equal(t, 51, name[0].Actual)

	married := report.AtPath("married")
	require.Len(t, married, 1)
	assert.Equal(t, issue.KindTypeCoercion, married[0].Kind)
	assert.Equal(t, "bool", married[0].Expected)
	assert.Equal(t, "string", married[0].Received)

	missing := report.AtPath("contact_details")
	require.Len(t, missing, 1)
	assert.Equal(t, issue.KindTypeCoercion, missing[0].Kind)
	assert.Equal(t, "missing", missing[0].Received)

	assert.Empty(t, report.ByKind(issue.KindCrossField), "model validators must not run after field errors")
}

func TestAllConstraintsOnFieldReported(t *testing.T) {
	s := schema.New("Reading").
		Field("value", schema.Float(), schema.Constraints(constraint.Gt(0), constraint.Ge(10), constraint.Lt(100))).
		MustBuild()

	_, err := s.Validate(map[string]any{"value": -1})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, "gt", report.Issues[0].Constraint)
	assert.Equal(t, "ge", report.Issues[1].Constraint)
}

func TestCrossFieldEmergencyContact(t *testing.T) {
	s := newPatientSchema()

	raw := validPatient()
	raw["age"] = 67
	raw["contact_details"] = map[string]any{"phone": "3233424"}

	_, err := s.Validate(raw)
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindCrossField, report.Issues[0].Kind)
	assert.Equal(t, "", report.Issues[0].Path)
	assert.Contains(t, report.Issues[0].Diagnostics, "emergency contact")

	raw["contact_details"] = map[string]any{"phone": "3233424", "emergency": "911"}
	_, err = s.Validate(raw)
	assert.NoError(t, err)
}

func TestEmailWhitelist(t *testing.T) {
	s := newPatientSchema()

	raw := validPatient()
	raw["email"] = "nencn@petalnex.com"
	_, err := s.Validate(raw)
	require.NoError(t, err)

	raw["email"] = "a@other.com"
	_, err = s.Validate(raw)
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindCustom, report.Issues[0].Kind)
	assert.Equal(t, "email", report.Issues[0].Path)
	assert.Equal(t, "Value error, Not a valid Domain", report.Issues[0].Diagnostics)
}

func TestAgeAfterHook(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["age"] = 120

	_, err := s.Validate(raw)
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindCustom, report.Issues[0].Kind)
	assert.Equal(t, "age", report.Issues[0].Path)
}

func TestAllergiesMaxLength(t *testing.T) {
	s := newPatientSchema()

	raw := validPatient()
	raw["allergies"] = []any{"a", "b", "c", "d", "e", "f"}
	_, err := s.Validate(raw)
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindConstraint, report.Issues[0].Kind)
	assert.Equal(t, "allergies", report.Issues[0].Path)
	assert.Equal(t, 5, report.Issues[0].Bound)
	assert.Equal(t, 6, report.Issues[0].Actual)

	raw["allergies"] = []string{"a", "b", "c", "d", "e"}
	inst, err := s.Validate(raw)
	require.NoError(t, err)
	assert.Len(t, inst.GetList("allergies"), 5)
}

func TestListElementPaths(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["allergies"] = []any{"Dust", 3, "Pollen", false}

	_, err := s.Validate(raw)
	report := mustReport(t, err)
	assert.Equal(t, []string{"allergies[1]", "allergies[3]"}, report.Paths())
}

func TestMapValuePaths(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["contact_details"] = map[string]any{"phone": 3233424, "emergency": "911"}

	_, err := s.Validate(raw)
	report := mustReport(t, err)
	assert.Equal(t, []string{"contact_details.phone"}, report.Paths())

	raw["contact_details"] = map[int]string{1: "x"}
	_, err = s.Validate(raw)
	report = mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.DiagTypeMapKey, report.Issues[0].MessageID)
}

func TestOptionalAndDefaults(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	delete(raw, "height")
	delete(raw, "married")
	raw["linkedin_url"] = nil

	inst, err := s.Validate(raw)
	require.NoError(t, err)

	assert.False(t, inst.Has("height"))
	assert.False(t, inst.Has("linkedin_url"))
	assert.False(t, schema.Lookup[float64](inst, "height").IsSome())
	assert.Equal(t, 1.5, schema.Lookup[float64](inst, "height").OrElse(1.5))

	married, ok := inst.Get("married")
	require.True(t, ok)
	assert.Equal(t, false, married)
}

func TestNullForRequiredField(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["name"] = nil

	_, err := s.Validate(raw)
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.DiagTypeNull, report.Issues[0].MessageID)
	assert.Equal(t, "null", report.Issues[0].Received)
}

func TestDefaultIsCopiedPerInstance(t *testing.T) {
	s := schema.New("Tags").
		Field("tags", schema.ListOf(schema.String()), schema.Optional(), schema.Default([]any{"new"})).
		MustBuild()

	a := s.MustValidate(map[string]any{})
	tags := a.GetList("tags")
	tags[0] = "changed"

	b := s.MustValidate(map[string]any{})
	assert.Equal(t, []any{"new"}, b.GetList("tags"))
	assert.Equal(t, []any{"new"}, a.GetList("tags"))
}

func TestUnknownKeysIgnored(t *testing.T) {
	s := newPatientSchema()
	raw := validPatient()
	raw["favourite_colour"] = "green"

	inst, err := s.Validate(raw)
	require.NoError(t, err)
	_, ok := inst.Get("favourite_colour")
	assert.False(t, ok)
}

func TestHookChain(t *testing.T) {
	var order []string
	trim := func(v any) (any, error) {
		order = append(order, "trim")
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return v, nil
	}
	upper := func(v any) (any, error) {
		order = append(order, "upper")
		return strings.ToUpper(v.(string)), nil
	}
	suffix := func(v any) (any, error) {
		order = append(order, "suffix")
		return v.(string) + "!", nil
	}

	s := schema.New("Code").
		Field("code", schema.String(),
			schema.After(upper),
			schema.Before(trim),
			schema.After(suffix),
			schema.Constraints(constraint.MaxLength(3))).
		MustBuild()

	inst, err := s.Validate(map[string]any{"code": "  abc  "})
	require.NoError(t, err)
	assert.Equal(t, "ABC!", inst.GetString("code"))
	assert.Equal(t, []string{"trim", "upper", "suffix"}, order)
}

func TestBeforeHookRejectsRawValue(t *testing.T) {
	called := false
	s := schema.New("M").
		Field("n", schema.Int(),
			schema.Before(func(v any) (any, error) {
				if _, ok := v.(string); ok {
					return nil, errors.New("strings are not accepted")
				}
				return v, nil
			}),
			schema.After(func(v any) (any, error) {
				called = true
				return v, nil
			})).
		MustBuild()

	_, err := s.Validate(map[string]any{"n": "5"})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindCustom, report.Issues[0].Kind)
	assert.False(t, called)
}

func TestAfterHooksSkippedOnConstraintFailure(t *testing.T) {
	called := false
	s := schema.New("M").
		Field("n", schema.Int(),
			schema.Constraints(constraint.Le(10)),
			schema.After(func(v any) (any, error) {
				called = true
				return v, nil
			})).
		MustBuild()

	_, err := s.Validate(map[string]any{"n": 11})
	report := mustReport(t, err)
	assert.Equal(t, issue.KindConstraint, report.Issues[0].Kind)
	assert.False(t, called)
}

func TestAfterHookWrongType(t *testing.T) {
	s := schema.New("M").
		Field("n", schema.Int(), schema.WithHook(schema.Hook{
			Name: "stringify",
			Mode: schema.ModeAfter,
			Fn:   func(v any) (any, error) { return fmt.Sprint(v) + "x", nil },
		})).
		MustBuild()

	_, err := s.Validate(map[string]any{"n": 1})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.DiagCustomWrongType, report.Issues[0].MessageID)
	assert.Contains(t, report.Issues[0].Diagnostics, "stringify")
}

func TestHookPanicBecomesCustomError(t *testing.T) {
	s := schema.New("M").
		Field("n", schema.Int(), schema.After(func(v any) (any, error) { panic("boom") })).
		MustBuild()

	_, err := s.Validate(map[string]any{"n": 1})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.KindCustom, report.Issues[0].Kind)
	assert.Contains(t, report.Issues[0].Diagnostics, "boom")
}

func TestModelValidatorsStopAtFirstFailure(t *testing.T) {
	var ran []string
	s := schema.New("M").
		Field("n", schema.Int()).
		Validator("first", func(*schema.Instance) error { ran = append(ran, "first"); return errors.New("first failed") }).
		Validator("second", func(*schema.Instance) error { ran = append(ran, "second"); return errors.New("second failed") }).
		MustBuild()

	_, err := s.Validate(map[string]any{"n": 1})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Value error, first failed", report.Issues[0].Diagnostics)
	assert.Equal(t, []string{"first"}, ran)
}

func TestNestedFromMap(t *testing.T) {
	address := newAddressSchema()
	person := newPersonSchema(address)

	inst, err := person.Validate(map[string]any{
		"name":    "Ali",
		"gender":  "male",
		"age":     35,
		"address": map[string]any{"city": "Mansehra", "Province": "KPK", "Postalcode": "21300"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mansehra", inst.GetModel("address").GetString("city"))
}

func TestNestedFromInstance(t *testing.T) {
	address := newAddressSchema()
	person := newPersonSchema(address)

	addr := address.MustValidate(map[string]any{"city": "Mansehra", "Province": "KPK", "Postalcode": "21300"})
	inst, err := person.Validate(map[string]any{"name": "Ali", "gender": "male", "age": 35, "address": addr})
	require.NoError(t, err)
	assert.True(t, addr.Equal(inst.GetModel("address")))

	other := schema.MustDefine("Other", []schema.FieldDescriptor{schema.Field("city", schema.String())}, nil, nil)
	wrong := other.MustValidate(map[string]any{"city": "x"})
	_, err = person.Validate(map[string]any{"name": "Ali", "gender": "male", "age": 35, "address": wrong})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, issue.DiagTypeWrongModel, report.Issues[0].MessageID)
	assert.Equal(t, "address", report.Issues[0].Path)
}

func TestNestedPathsRetagged(t *testing.T) {
	address := schema.New("Address").
		Field("city", schema.String()).
		Field("Postalcode", schema.String(), schema.Constraints(constraint.MaxLength(5))).
		Validator("no_nowhere", func(inst *schema.Instance) error {
			if inst.GetString("city") == "Nowhere" {
				return errors.New("unknown city")
			}
			return nil
		}).
		MustBuild()
	person := schema.New("Person").
		Field("name", schema.String()).
		Field("address", schema.Model(address)).
		Field("previous", schema.ListOf(schema.Model(address)), schema.Optional()).
		MustBuild()

	_, err := person.Validate(map[string]any{
		"name":    12,
		"address": map[string]any{"Postalcode": "2130000"},
		"previous": []any{
			map[string]any{"city": "A", "Postalcode": "1"},
			map[string]any{"city": 5, "Postalcode": "1"},
		},
	})
	report := mustReport(t, err)
	assert.Equal(t,
		[]string{"name", "address.city", "address.Postalcode", "previous[1].city"},
		report.Paths())

	// A nested model validator failure is attributed to the nested field.
	_, err = person.Validate(map[string]any{
		"name":    "Ali",
		"address": map[string]any{"city": "Nowhere", "Postalcode": "1"},
	})
	report = mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "address", report.Issues[0].Path)
	assert.Equal(t, issue.KindCrossField, report.Issues[0].Kind)
}

func TestNestedRejectsScalar(t *testing.T) {
	person := newPersonSchema(newAddressSchema())
	_, err := person.Validate(map[string]any{"name": "Ali", "gender": "male", "age": 35, "address": "Mansehra"})
	report := mustReport(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Address", report.Issues[0].Expected)
	assert.Equal(t, "string", report.Issues[0].Received)
}

func TestRevalidateIsFixedPoint(t *testing.T) {
	s := newPatientSchema()
	inst := s.MustValidate(validPatient())

	again, err := s.Validate(inst.AsMap())
	require.NoError(t, err)
	assert.True(t, inst.Equal(again))
}

func TestConcurrentValidation(t *testing.T) {
	s := newPatientSchema()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := validPatient()
			raw["age"] = i%90 + 1
			if _, err := s.Validate(raw); err != nil {
				t.Errorf("Validate(age=%d) = %v", i%60+1, err)
			}
		}(i)
	}
	wg.Wait()
}
