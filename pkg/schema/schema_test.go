package schema_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

func TestDefineErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		fields []schema.FieldDescriptor
		comp   []schema.ComputedField
		vals   []schema.ModelValidator
		want   string
	}{
		{
			name:   "empty schema name",
			schema: "",
			want:   "schema name is empty",
		},
		{
			name:   "empty field name",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("", schema.String())},
			want:   "field name is empty",
		},
		{
			name:   "duplicate field",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.String()), schema.Field("a", schema.Int())},
			want:   "duplicate field name",
		},
		{
			name:   "computed collides with field",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("bmi", schema.Float())},
			comp:   []schema.ComputedField{schema.Computed("bmi", schema.Float(), func(*schema.Instance) (any, error) { return 1.0, nil })},
			want:   "duplicate field name",
		},
		{
			name:   "numeric constraint on string",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.String(), schema.Constraints(constraint.Gt(1)))},
			want:   "does not apply to type string",
		},
		{
			name:   "length constraint on float",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Float(), schema.Constraints(constraint.MaxLength(1)))},
			want:   "does not apply to type float",
		},
		{
			name:   "negative length",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.String(), schema.Constraints(constraint.MaxLength(-1)))},
			want:   "must not be negative",
		},
		{
			name:   "default on required field",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Bool(), schema.Default(false))},
			want:   "required field cannot have a default",
		},
		{
			name:   "default of wrong type",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Bool(), schema.Optional(), schema.Default("no"))},
			want:   "default does not match the field type",
		},
		{
			name:   "nil hook",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Int(), schema.After(nil))},
			want:   "has no function",
		},
		{
			name:   "nil nested schema",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Model(nil))},
			want:   "nested model schema is nil",
		},
		{
			name:   "unset type",
			schema: "M",
			fields: []schema.FieldDescriptor{schema.Field("a", schema.Type{})},
			want:   "type is not set",
		},
		{
			name:   "nil computed function",
			schema: "M",
			comp:   []schema.ComputedField{schema.Computed("c", schema.Float(), nil)},
			want:   "computed field has no function",
		},
		{
			name:   "nil model validator",
			schema: "M",
			vals:   []schema.ModelValidator{{Name: "v"}},
			want:   "has no function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := schema.Define(tt.schema, tt.fields, tt.comp, tt.vals)
			assert.Nil(t, s)
			require.Error(t, err)

			var defErr *schema.DefinitionError
			require.True(t, errors.As(err, &defErr))
			assert.Contains(t, defErr.Error(), tt.want)
			assert.Contains(t, defErr.Error(), string(issue.KindSchemaDefinition))
			assert.Equal(t, issue.KindSchemaDefinition, defErr.Issue().Kind)
		})
	}
}

func TestSchemaAccessors(t *testing.T) {
	s := newPatientSchema()

	assert.Equal(t, "Patient", s.Name())

	fields := s.Fields()
	require.Len(t, fields, 9)
	assert.Equal(t, "name", fields[0].Name)
	assert.Equal(t, "contact_details", fields[8].Name)

	name, ok := s.Field("name")
	require.True(t, ok)
	assert.Equal(t, "Name of the patient", name.Title)
	assert.Equal(t, []any{"Nitish", "Amit"}, name.Examples)

	married, _ := s.Field("married")
	def, ok := married.Default()
	assert.True(t, ok)
	assert.Equal(t, false, def)

	_, ok = s.Field("bmi")
	assert.False(t, ok, "computed fields are not input fields")

	require.Len(t, s.ComputedFields(), 1)
	assert.Equal(t, "bmi", s.ComputedFields()[0].Name)
	require.Len(t, s.ModelValidators(), 1)
	assert.Equal(t, "emergency_contact", s.ModelValidators()[0].Name)

	// Returned slices are copies.
	fields[0].Name = "changed"
	again, _ := s.Field("name")
	assert.Equal(t, "name", again.Name)
}

func TestFieldDescriptorsAreCopies(t *testing.T) {
	s, err := schema.New("Vitals").
		Field("weight", schema.Float(), schema.Constraints(constraint.Gt(0), constraint.Lt(500)),
			schema.After(func(v any) (any, error) { return v, nil }),
			schema.Examples(map[string]any{"kg": 70.0})).
		Build()
	require.NoError(t, err)

	fd, ok := s.Field("weight")
	require.True(t, ok)
	fd.Constraints[1] = constraint.Lt(10)
	fd.Hooks[0].Fn = func(any) (any, error) { return nil, errors.New("replaced") }
	fd.Examples[0].(map[string]any)["kg"] = 1.0

	all := s.Fields()
	all[0].Constraints[0] = constraint.Gt(100)

	inst, err := s.Validate(map[string]any{"weight": 50.0})
	require.NoError(t, err)
	weight, _ := inst.Get("weight")
	assert.Equal(t, 50.0, weight)

	again, _ := s.Field("weight")
	assert.Equal(t, []constraint.Constraint{constraint.Gt(0), constraint.Lt(500)}, again.Constraints)
	assert.Equal(t, []any{map[string]any{"kg": 70.0}}, again.Examples)
}

func TestNonFiniteBoundRejected(t *testing.T) {
	_, err := schema.New("Vitals").
		Field("weight", schema.Float(), schema.Constraints(constraint.Lt(math.Inf(1)))).
		Build()
	var defErr *schema.DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "weight", defErr.Field)
}

func TestBuilderDescribe(t *testing.T) {
	s, err := schema.New("Address").Describe("Postal address").Field("city", schema.String()).Build()
	require.NoError(t, err)
	assert.Equal(t, "Postal address", s.Description())
}

func TestDefaultCoercedAtDefinition(t *testing.T) {
	s := schema.New("M").
		Field("ratio", schema.Float(), schema.Optional(), schema.Default(1)).
		MustBuild()

	inst := s.MustValidate(nil)
	v, ok := inst.Get("ratio")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestTypeNames(t *testing.T) {
	address := newAddressSchema()

	tests := []struct {
		typ  schema.Type
		want string
	}{
		{schema.String(), "string"},
		{schema.Int(), "int"},
		{schema.Float(), "float"},
		{schema.Bool(), "bool"},
		{schema.Email(), "email"},
		{schema.URL(), "url"},
		{schema.ListOf(schema.String()), "list[string]"},
		{schema.MapOf(schema.ListOf(schema.Int())), "map[string]list[int]"},
		{schema.Model(address), "Address"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.Name())
	}
}

func TestParseType(t *testing.T) {
	address := newAddressSchema()
	lookup := func(name string) (*schema.Schema, bool) {
		if name == "Address" {
			return address, true
		}
		return nil, false
	}

	tests := []struct {
		in   string
		want string
	}{
		{"string", "string"},
		{"integer", "int"},
		{"number", "float"},
		{"boolean", "bool"},
		{"email", "email"},
		{"url", "url"},
		{"list[string]", "list[string]"},
		{"[int]", "list[int]"},
		{"map[string]string", "map[string]string"},
		{"map[string]list[Address]", "map[string]list[Address]"},
		{"Address", "Address"},
	}
	for _, tt := range tests {
		got, err := schema.ParseType(tt.in, lookup)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.Name())
	}

	for _, bad := range []string{"", "map[int]string", "Unknown", "list[Unknown]"} {
		_, err := schema.ParseType(bad, lookup)
		assert.Error(t, err, bad)
	}

	nested, err := schema.ParseType("list[Address]", lookup)
	require.NoError(t, err)
	assert.Equal(t, schema.KindList, nested.Kind())
	assert.Equal(t, schema.KindModel, nested.Elem().Kind())
	assert.Same(t, address, nested.Elem().Schema())
}

func TestRegistry(t *testing.T) {
	r := schema.NewRegistry()
	address := newAddressSchema()
	patient := newPatientSchema()

	require.NoError(t, r.Register(patient, address))
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"Address", "Patient"}, r.Names())

	got, ok := r.Get("Patient")
	require.True(t, ok)
	assert.Same(t, patient, got)

	_, ok = r.Get("Nope")
	assert.False(t, ok)

	err := r.Register(newAddressSchema())
	var defErr *schema.DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "Address", defErr.Schema)

	assert.Error(t, r.Register(nil))
	assert.Panics(t, func() { r.MustGet("Nope") })
}

func TestRegistryBatchIsAtomic(t *testing.T) {
	vitals := schema.New("Vitals").Field("weight", schema.Float()).MustBuild()
	other := schema.New("Other").Field("x", schema.Int()).MustBuild()

	tests := []struct {
		name  string
		batch []*schema.Schema
	}{
		{name: "nil entry", batch: []*schema.Schema{vitals, nil}},
		{name: "duplicate in batch", batch: []*schema.Schema{vitals, other, other}},
		{name: "already registered", batch: []*schema.Schema{vitals, newAddressSchema()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := schema.NewRegistry()
			require.NoError(t, r.Register(newAddressSchema()))

			require.Error(t, r.Register(tt.batch...))
			_, ok := r.Get("Vitals")
			assert.False(t, ok)
			assert.Equal(t, []string{"Address"}, r.Names())
		})
	}
}

func TestRegistryClone(t *testing.T) {
	r := schema.NewRegistry()
	require.NoError(t, r.Register(newAddressSchema()))

	c := r.Clone()
	require.NoError(t, c.Register(schema.New("Vitals").Field("weight", schema.Float()).MustBuild()))
	assert.Equal(t, []string{"Address", "Vitals"}, c.Names())
	assert.Equal(t, []string{"Address"}, r.Names())
}
