// Package outcome renders validation reports as FHIR R4 OperationOutcome resources.
package outcome

import (
	"encoding/json"
	"fmt"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/pool"
)

// KindSystem is the coding system used for issue kinds in issue.details.
const KindSystem = "urn:modelvalidator:error-kind"

// FromReport converts a report into an OperationOutcome. schemaName, when set,
// prefixes every expression ("Patient.address.city"). An empty report yields a
// single informational "All OK" issue, as FHIR requires at least one issue.
func FromReport(schemaName string, report *issue.Report) *r4.OperationOutcome {
	oo := &r4.OperationOutcome{}
	if report.Empty() {
		sev := r4.IssueSeverity(issue.SeverityInformation)
		code := r4.IssueType("informational")
		diag := "All OK"
		oo.Issue = []r4.OperationOutcomeIssue{{Severity: &sev, Code: &code, Diagnostics: &diag}}
		return oo
	}

	oo.Issue = make([]r4.OperationOutcomeIssue, 0, report.Len())
	for _, iss := range report.Issues {
		oo.Issue = append(oo.Issue, convert(schemaName, iss))
	}
	return oo
}

func convert(schemaName string, iss issue.Issue) r4.OperationOutcomeIssue {
	sev := r4.IssueSeverity(iss.Severity)
	code := r4.IssueType(iss.Code)
	diag := iss.Diagnostics

	out := r4.OperationOutcomeIssue{
		Severity:    &sev,
		Code:        &code,
		Diagnostics: &diag,
	}

	if iss.Kind != "" {
		system := KindSystem
		kind := string(iss.Kind)
		text := string(iss.MessageID)
		out.Details = &r4.CodeableConcept{
			Coding: []r4.Coding{{System: &system, Code: &kind}},
		}
		if text != "" {
			out.Details.Text = &text
		}
	}

	if expr := expression(schemaName, iss.Path); expr != "" {
		out.Expression = []string{expr}
	}
	if iss.Location != nil {
		out.Location = []string{fmt.Sprintf("Line[%d] Col[%d]", iss.Location.Line, iss.Location.Column)}
	}
	return out
}

func expression(schemaName, path string) string {
	return pool.JoinPath(schemaName, path)
}

// Marshal renders the report as OperationOutcome JSON.
func Marshal(schemaName string, report *issue.Report) ([]byte, error) {
	b, err := json.Marshal(FromReport(schemaName, report))
	if err != nil {
		return nil, fmt.Errorf("outcome: marshal: %w", err)
	}
	return b, nil
}
