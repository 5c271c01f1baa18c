// Package schema defines immutable model schemas and validates raw input against them.
//
// A Schema is an ordered list of field descriptors plus computed fields and
// model-level validators. Validating a map runs, per field: before hooks,
// coercion to the declared type, static constraints and after hooks. Every
// field-level problem is collected into an issue.Report. Model validators run
// only when the field pass is clean; the first failure is reported alone.
//
// Basic usage:
//
//	address := schema.MustDefine("Address", []schema.FieldDescriptor{
//	    schema.Field("city", schema.String()),
//	    schema.Field("state", schema.String()),
//	}, nil, nil)
//
//	patient, err := schema.New("Patient").
//	    Field("name", schema.String(), schema.Constraints(constraint.MaxLength(50))).
//	    Field("address", schema.Model(address)).
//	    Build()
//
//	inst, err := patient.Validate(raw)
//	var report *issue.Report
//	if errors.As(err, &report) {
//	    // every failed field is in report.Issues
//	}
//
// Schemas are read-only after Build and safe for concurrent use.
package schema

import (
	"fmt"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/issue"
)

// ComputeFunc derives a value from a validated instance.
type ComputeFunc func(inst *Instance) (any, error)

// ComputedField is an output-only attribute evaluated on demand.
type ComputedField struct {
	Name        string
	Type        Type
	Fn          ComputeFunc
	Description string
}

// Computed declares a computed field with the given result type.
func Computed(name string, t Type, fn ComputeFunc) ComputedField {
	return ComputedField{Name: name, Type: t, Fn: fn}
}

// WithDescription returns a copy of c with a description.
func (c ComputedField) WithDescription(d string) ComputedField {
	c.Description = d
	return c
}

// ModelValidateFunc checks a fully field-validated candidate.
// A non-nil error becomes a CrossFieldValidationError.
type ModelValidateFunc func(inst *Instance) error

// ModelValidator is a named cross-field check.
type ModelValidator struct {
	Name string
	Fn   ModelValidateFunc
}

// DefinitionError reports an invalid schema definition.
type DefinitionError struct {
	Schema string
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: schema '%s': field '%s': %s", issue.KindSchemaDefinition, e.Schema, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: schema '%s': %s", issue.KindSchemaDefinition, e.Schema, e.Reason)
}

// Issue converts the error into a report entry.
func (e *DefinitionError) Issue() issue.Issue {
	reason := e.Reason
	if e.Field != "" {
		reason = "field '" + e.Field + "': " + reason
	}
	return issue.New(issue.DiagSchemaDefinition, e.Field, map[string]any{
		"schema": e.Schema,
		"reason": reason,
	})
}

// Schema is an immutable model declaration.
type Schema struct {
	name        string
	description string
	fields      []FieldDescriptor
	index       map[string]int
	computed    []ComputedField
	computedIdx map[string]int
	validators  []ModelValidator
}

// Define builds a schema from its parts. Field declaration order is kept and
// is the canonical serialization order.
func Define(name string, fields []FieldDescriptor, computed []ComputedField, validators []ModelValidator) (*Schema, error) {
	s := &Schema{
		name:        name,
		index:       make(map[string]int, len(fields)),
		computedIdx: make(map[string]int, len(computed)),
	}
	if name == "" {
		return nil, &DefinitionError{Reason: "schema name is empty"}
	}

	for _, f := range fields {
		if err := s.addField(f); err != nil {
			return nil, err
		}
	}
	for _, c := range computed {
		if err := s.addComputed(c); err != nil {
			return nil, err
		}
	}
	for i, mv := range validators {
		if mv.Fn == nil {
			return nil, s.defErr("", fmt.Sprintf("model validator %q has no function", mv.Name))
		}
		if mv.Name == "" {
			mv.Name = fmt.Sprintf("validator[%d]", i)
		}
		s.validators = append(s.validators, mv)
	}
	return s, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(name string, fields []FieldDescriptor, computed []ComputedField, validators []ModelValidator) *Schema {
	s, err := Define(name, fields, computed, validators)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) defErr(field, reason string) *DefinitionError {
	return &DefinitionError{Schema: s.name, Field: field, Reason: reason}
}

func (s *Schema) nameTaken(name string) bool {
	_, f := s.index[name]
	_, c := s.computedIdx[name]
	return f || c
}

func (s *Schema) addField(f FieldDescriptor) error {
	if f.Name == "" {
		return s.defErr("", "field name is empty")
	}
	if s.nameTaken(f.Name) {
		return s.defErr(f.Name, "duplicate field name")
	}
	if err := f.Type.check(); err != nil {
		return s.defErr(f.Name, err.Error())
	}

	for _, c := range f.Constraints {
		if err := c.Validate(); err != nil {
			return s.defErr(f.Name, err.Error())
		}
		if c.Numeric() && !f.Type.numeric() {
			return s.defErr(f.Name, fmt.Sprintf("constraint %s does not apply to type %s", c, f.Type.Name()))
		}
		if c.Length() && !f.Type.sized() {
			return s.defErr(f.Name, fmt.Sprintf("constraint %s does not apply to type %s", c, f.Type.Name()))
		}
	}

	for _, h := range f.Hooks {
		if h.Fn == nil {
			return s.defErr(f.Name, fmt.Sprintf("hook %q has no function", h.Name))
		}
	}

	if f.hasDefault {
		if !f.Optional {
			return s.defErr(f.Name, "a required field cannot have a default")
		}
		scratch := issue.NewReport()
		v, ok := coerceValue(f.Type, f.defaultValue, f.Name, scratch)
		if !ok {
			return s.defErr(f.Name, "default does not match the field type: "+scratch.Issues[0].Diagnostics)
		}
		f.defaultValue = v
	}

	f.Constraints = append([]constraint.Constraint(nil), f.Constraints...)
	f.Hooks = append([]Hook(nil), f.Hooks...)
	f.Examples = append([]any(nil), f.Examples...)

	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

func (s *Schema) addComputed(c ComputedField) error {
	if c.Name == "" {
		return s.defErr("", "computed field name is empty")
	}
	if s.nameTaken(c.Name) {
		return s.defErr(c.Name, "duplicate field name")
	}
	if err := c.Type.check(); err != nil {
		return s.defErr(c.Name, err.Error())
	}
	if c.Fn == nil {
		return s.defErr(c.Name, "computed field has no function")
	}
	s.computedIdx[c.Name] = len(s.computed)
	s.computed = append(s.computed, c)
	return nil
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Description returns the schema description.
func (s *Schema) Description() string { return s.description }

// Fields returns the field descriptors in declaration order.
func (s *Schema) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Field returns the descriptor of the named field.
func (s *Schema) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.fields[i].clone(), true
}

// ComputedFields returns the computed fields in declaration order.
func (s *Schema) ComputedFields() []ComputedField {
	return append([]ComputedField(nil), s.computed...)
}

// ModelValidators returns the model validators in declaration order.
func (s *Schema) ModelValidators() []ModelValidator {
	return append([]ModelValidator(nil), s.validators...)
}

// Builder assembles a Schema fluently. Errors are reported by Build.
type Builder struct {
	name        string
	description string
	fields      []FieldDescriptor
	computed    []ComputedField
	validators  []ModelValidator
}

// New starts a schema definition.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Describe sets the schema description.
func (b *Builder) Describe(d string) *Builder {
	b.description = d
	return b
}

// Field adds a field.
func (b *Builder) Field(name string, t Type, opts ...FieldOption) *Builder {
	b.fields = append(b.fields, Field(name, t, opts...))
	return b
}

// Add adds already-built field descriptors.
func (b *Builder) Add(fields ...FieldDescriptor) *Builder {
	b.fields = append(b.fields, fields...)
	return b
}

// Computed adds a computed field.
func (b *Builder) Computed(name string, t Type, fn ComputeFunc) *Builder {
	b.computed = append(b.computed, Computed(name, t, fn))
	return b
}

// AddComputed adds already-built computed fields.
func (b *Builder) AddComputed(cs ...ComputedField) *Builder {
	b.computed = append(b.computed, cs...)
	return b
}

// Validator adds a model validator.
func (b *Builder) Validator(name string, fn ModelValidateFunc) *Builder {
	b.validators = append(b.validators, ModelValidator{Name: name, Fn: fn})
	return b
}

// Build validates the definition and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	s, err := Define(b.name, b.fields, b.computed, b.validators)
	if err != nil {
		return nil, err
	}
	s.description = b.description
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
