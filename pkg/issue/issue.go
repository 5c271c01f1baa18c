// Package issue defines validation issues and the report that aggregates them.
package issue

import (
	"strings"

	"github.com/gofhir/modelvalidator/pkg/pool"
)

// Severity represents the severity of a validation issue.
type Severity string

// Severity constants aligned with FHIR IssueSeverity.
const (
	SeverityFatal       Severity = "fatal"
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// Code represents the type of validation issue (IssueType).
type Code string

// Code constants aligned with FHIR IssueType.
const (
	CodeInvalid      Code = "invalid"
	CodeStructure    Code = "structure"
	CodeRequired     Code = "required"
	CodeValue        Code = "value"
	CodeInvariant    Code = "invariant"
	CodeTooLong      Code = "too-long"
	CodeBusinessRule Code = "business-rule"
	CodeProcessing   Code = "processing"
	CodeException    Code = "exception"
)

// Kind classifies an issue by the pipeline stage that raised it.
type Kind string

// Kind constants.
const (
	KindSchemaDefinition Kind = "SchemaDefinitionError"
	KindTypeCoercion     Kind = "TypeCoercionError"
	KindConstraint       Kind = "ConstraintViolation"
	KindCustom           Kind = "CustomValidationError"
	KindCrossField       Kind = "CrossFieldValidationError"
	KindComputation      Kind = "ComputationError"
)

// Issue represents a single validation issue.
type Issue struct {
	// Kind is the error kind (TypeCoercionError, ConstraintViolation, ...)
	Kind Kind

	// Severity indicates the severity level (error, warning, etc.)
	Severity Severity

	// Code indicates the type of issue
	Code Code

	// Path is the dot-joined field path, empty for model-level issues
	Path string

	// Diagnostics is the human-readable description of the issue
	Diagnostics string

	// MessageID is the identifier from the diagnostic catalog
	MessageID DiagnosticID

	// Expected and Received describe a failed coercion
	Expected string
	Received string

	// Constraint, Bound and Actual describe a failed static constraint
	Constraint string
	Bound      any
	Actual     any

	// Location is the position in the source JSON, when known
	Location *Location
}

// Location represents the position in the source JSON.
type Location struct {
	Line   int
	Column int
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	var b strings.Builder
	if i.Path != "" {
		b.WriteString(i.Path)
		b.WriteString(": ")
	}
	b.WriteString(string(i.Kind))
	b.WriteString(": ")
	b.WriteString(i.Diagnostics)
	return b.String()
}

// WithPrefix returns a copy of the issue with prefix prepended to its path.
func (i Issue) WithPrefix(prefix string) Issue {
	i.Path = pool.JoinPath(prefix, i.Path)
	return i
}
