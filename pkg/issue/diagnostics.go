// Package issue provides diagnostic message templates for model validation.
package issue

import (
	"fmt"
	"strings"
)

// DiagnosticID identifies a specific diagnostic message.
type DiagnosticID string

// Diagnostic IDs for type coercion.
const (
	DiagTypeMissing      DiagnosticID = "TYPE_MISSING"
	DiagTypeNull         DiagnosticID = "TYPE_NULL"
	DiagTypeInvalid      DiagnosticID = "TYPE_INVALID"
	DiagTypeInvalidEmail DiagnosticID = "TYPE_INVALID_EMAIL"
	DiagTypeInvalidURL   DiagnosticID = "TYPE_INVALID_URL"
	DiagTypeMapKey       DiagnosticID = "TYPE_MAP_KEY"
	DiagTypeWrongModel   DiagnosticID = "TYPE_WRONG_MODEL"
)

// Diagnostic IDs for static constraints.
const (
	DiagConstraintGt        DiagnosticID = "CONSTRAINT_GT"
	DiagConstraintGe        DiagnosticID = "CONSTRAINT_GE"
	DiagConstraintLt        DiagnosticID = "CONSTRAINT_LT"
	DiagConstraintLe        DiagnosticID = "CONSTRAINT_LE"
	DiagConstraintMinLength DiagnosticID = "CONSTRAINT_MIN_LENGTH"
	DiagConstraintMaxLength DiagnosticID = "CONSTRAINT_MAX_LENGTH"
)

// Diagnostic IDs for custom hooks and model validators.
const (
	DiagCustomFailed     DiagnosticID = "CUSTOM_FAILED"
	DiagCustomWrongType  DiagnosticID = "CUSTOM_WRONG_TYPE"
	DiagCrossFieldFailed DiagnosticID = "CROSS_FIELD_FAILED"
	DiagComputation      DiagnosticID = "COMPUTATION_FAILED"
	DiagSchemaDefinition DiagnosticID = "SCHEMA_DEFINITION"
)

// DiagnosticTemplate defines the structure for a diagnostic message.
type DiagnosticTemplate struct {
	ID       DiagnosticID
	Kind     Kind
	Severity Severity
	Code     Code
	Template string
}

// diagnosticTemplates maps diagnostic IDs to their templates.
// Templates use {placeholder} syntax for variable substitution.
var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagTypeMissing: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeRequired,
		Template: "Field required",
	},
	DiagTypeNull: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeRequired,
		Template: "Input should be a valid {expected}, received null",
	},
	DiagTypeInvalid: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid {expected}, received {received}",
	},
	DiagTypeInvalidEmail: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Value is not a valid email address: {reason}",
	},
	DiagTypeInvalidURL: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be a valid URL: {reason}",
	},
	DiagTypeMapKey: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "Map keys should be strings, received {received}",
	},
	DiagTypeWrongModel: {
		Kind:     KindTypeCoercion,
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "Input should be a valid {expected} instance, received {received} instance",
	},

	DiagConstraintGt: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be greater than {bound}, received {actual}",
	},
	DiagConstraintGe: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be greater than or equal to {bound}, received {actual}",
	},
	DiagConstraintLt: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be less than {bound}, received {actual}",
	},
	DiagConstraintLe: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Input should be less than or equal to {bound}, received {actual}",
	},
	DiagConstraintMinLength: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "{subject} should have at least {bound} {unit}, not {actual}",
	},
	DiagConstraintMaxLength: {
		Kind:     KindConstraint,
		Severity: SeverityError,
		Code:     CodeTooLong,
		Template: "{subject} should have at most {bound} {unit}, not {actual}",
	},

	DiagCustomFailed: {
		Kind:     KindCustom,
		Severity: SeverityError,
		Code:     CodeValue,
		Template: "Value error, {message}",
	},
	DiagCustomWrongType: {
		Kind:     KindCustom,
		Severity: SeverityError,
		Code:     CodeProcessing,
		Template: "Validator '{hook}' returned {received}, expected {expected}",
	},
	DiagCrossFieldFailed: {
		Kind:     KindCrossField,
		Severity: SeverityError,
		Code:     CodeBusinessRule,
		Template: "Value error, {message}",
	},
	DiagComputation: {
		Kind:     KindComputation,
		Severity: SeverityError,
		Code:     CodeException,
		Template: "Computed field '{field}' could not be evaluated: {reason}",
	},
	DiagSchemaDefinition: {
		Kind:     KindSchemaDefinition,
		Severity: SeverityFatal,
		Code:     CodeStructure,
		Template: "Schema '{schema}': {reason}",
	},
}

// FormatDiagnostic formats a diagnostic message with the given parameters.
func FormatDiagnostic(id DiagnosticID, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a diagnostic ID.
func GetDiagnosticTemplate(id DiagnosticID) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[id]
	if ok {
		tmpl.ID = id
	}
	return tmpl, ok
}

// New builds an issue at path from a diagnostic template.
// The well-known params expected, received, constraint, bound and actual
// are also copied onto the issue's structured fields.
func New(id DiagnosticID, path string, params map[string]any) Issue {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return Issue{
			Severity:    SeverityError,
			Code:        CodeProcessing,
			Path:        path,
			Diagnostics: string(id),
			MessageID:   id,
		}
	}

	iss := Issue{
		Kind:        tmpl.Kind,
		Severity:    tmpl.Severity,
		Code:        tmpl.Code,
		Path:        path,
		Diagnostics: formatTemplate(tmpl.Template, params),
		MessageID:   id,
	}
	if v, ok := params["expected"].(string); ok {
		iss.Expected = v
	}
	if v, ok := params["received"].(string); ok {
		iss.Received = v
	}
	if v, ok := params["constraint"].(string); ok {
		iss.Constraint = v
	}
	if v, ok := params["bound"]; ok {
		iss.Bound = v
	}
	if v, ok := params["actual"]; ok {
		iss.Actual = v
	}
	return iss
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}
