package schema_test

import (
	"errors"
	"strings"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

var allowedDomains = []string{"gov.pk.com", "petalnex.com"}

func emailDomainWhitelist(v any) (any, error) {
	email := v.(string)
	domain := email[strings.LastIndexByte(email, '@')+1:]
	for _, d := range allowedDomains {
		if d == domain {
			return email, nil
		}
	}
	return nil, errors.New("Not a valid Domain")
}

func ageInRange(v any) (any, error) {
	age := v.(int64)
	if 0 < age && age < 100 {
		return age, nil
	}
	return nil, errors.New("Age should be between 0 and 100")
}

func emergencyContact(inst *schema.Instance) error {
	if inst.GetInt("age") > 60 {
		if _, ok := inst.GetMap("contact_details")["emergency"]; !ok {
			return errors.New("Patients older than 60 must have an emergency contact")
		}
	}
	return nil
}

func bmi(inst *schema.Instance) (any, error) {
	h, ok := schema.Lookup[float64](inst, "height").Get()
	if !ok {
		return nil, errors.New("height is not set")
	}
	if h == 0 {
		return nil, errors.New("division by zero")
	}
	return schema.Round(inst.GetFloat("weight")/(h*h), 2), nil
}

func newPatientSchema() *schema.Schema {
	return schema.New("Patient").
		Field("name", schema.String(),
			schema.Constraints(constraint.MaxLength(50)),
			schema.Title("Name of the patient"),
			schema.Description("Give the name of the patient in less than 50 chars"),
			schema.Examples("Nitish", "Amit")).
		Field("age", schema.Int(), schema.After(ageInRange)).
		Field("email", schema.Email(), schema.After(emailDomainWhitelist)).
		Field("linkedin_url", schema.URL(), schema.Optional()).
		Field("weight", schema.Float(), schema.Constraints(constraint.Gt(0), constraint.Lt(100))).
		Field("height", schema.Float(), schema.Optional()).
		Field("married", schema.Bool(), schema.Optional(), schema.Default(false)).
		Field("allergies", schema.ListOf(schema.String()), schema.Optional(), schema.Constraints(constraint.MaxLength(5))).
		Field("contact_details", schema.MapOf(schema.String())).
		Computed("bmi", schema.Float(), bmi).
		Validator("emergency_contact", emergencyContact).
		MustBuild()
}

func validPatient() map[string]any {
	return map[string]any{
		"name":            "Ali",
		"age":             30,
		"email":           "nencn@petalnex.com",
		"linkedin_url":    "https://www.linkedin.com/in/ali",
		"weight":          78.3,
		"height":          5.8,
		"married":         true,
		"allergies":       []any{"Dust"},
		"contact_details": map[string]any{"phone": "3233424"},
	}
}

func newAddressSchema() *schema.Schema {
	return schema.MustDefine("Address", []schema.FieldDescriptor{
		schema.Field("city", schema.String()),
		schema.Field("Province", schema.String()),
		schema.Field("Postalcode", schema.String()),
	}, nil, nil)
}

func newPersonSchema(address *schema.Schema) *schema.Schema {
	return schema.New("Person").
		Field("name", schema.String()).
		Field("age", schema.Int()).
		Field("gender", schema.String()).
		Field("address", schema.Model(address)).
		MustBuild()
}
