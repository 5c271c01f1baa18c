// Package modelvalidator turns untyped structured input into typed,
// constraint-checked, immutable model instances.
//
// Schemas declare ordered fields with a type, optional constraints and
// validation hooks, plus computed fields and cross-field model validators.
// Validation either yields an instance or a report listing every problem found.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/modelvalidator/pkg/constraint"
//	    "github.com/gofhir/modelvalidator/pkg/schema"
//	    "github.com/gofhir/modelvalidator/pkg/serialize"
//	)
//
//	patient := schema.New("Patient").
//	    Field("name", schema.String(), schema.Constraints(constraint.MaxLength(50))).
//	    Field("age", schema.Int(), schema.Constraints(constraint.Gt(0), constraint.Lt(120))).
//	    Field("allergies", schema.ListOf(schema.String()), schema.Optional()).
//	    MustBuild()
//
//	inst, report := patient.Check(raw)
//	if report != nil {
//	    for _, iss := range report.Issues {
//	        fmt.Println(iss.Path, iss.Kind, iss.Diagnostics)
//	    }
//	    return
//	}
//	out, err := serialize.DumpText(inst, serialize.Include("name", "age"))
//
// # Pipeline
//
// Each field runs through the same stages, in order:
//
//   - Before hooks on the raw value
//   - Type coercion ("67" becomes 67 for an int field)
//   - Constraints (gt, ge, lt, le, min_length, max_length), all reported
//   - After hooks on the coerced value
//
// Nested schemas run the whole pipeline and their issues are re-tagged with
// the outer path (address.city). Model validators run only when every field
// passed.
//
// # Packages
//
//   - pkg/schema: schemas, registry, instances and computed fields
//   - pkg/serialize: ordered map and JSON dumps with include/exclude
//   - pkg/loader: schemas from YAML documents
//   - pkg/invariant: FHIRPath expressions as model validators
//   - pkg/validator: facade with logging, metrics and JSON input locations
//   - pkg/jsonschema: OpenAPI export
//   - pkg/outcome: reports as FHIR OperationOutcome resources
package modelvalidator
