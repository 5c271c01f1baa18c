package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/outcome"
	"github.com/gofhir/modelvalidator/pkg/validator"
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText    OutputFormat = "text"
	OutputJSON    OutputFormat = "json"
	OutputOutcome OutputFormat = "outcome"
)

type validateFlags struct {
	schema    string
	output    string
	maxIssues int
	locations bool
	quiet     bool
}

// ValidationOutput represents the JSON output structure
type ValidationOutput struct {
	Input    string        `json:"input"`
	Schema   string        `json:"schema"`
	Valid    bool          `json:"valid"`
	Errors   int           `json:"errors"`
	Issues   []IssueOutput `json:"issues,omitempty"`
	Duration string        `json:"duration,omitempty"`
}

// IssueOutput represents a single issue in JSON output
type IssueOutput struct {
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Path        string `json:"path"`
	Diagnostics string `json:"diagnostics"`
	Line        int    `json:"line,omitempty"`
	Column      int    `json:"column,omitempty"`
}

func newValidateCmd(global *globalFlags) *cobra.Command {
	flags := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate [file...|-]",
		Short: "Validate JSON documents against a schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, global, flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.schema, "schema", "s", "", "Schema to validate against")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format: text, json, outcome")
	cmd.Flags().IntVar(&flags.maxIssues, "max-issues", 0, "Report at most this many issues per document (0 = all)")
	cmd.Flags().BoolVar(&flags.locations, "locations", true, "Report line and column of each issue")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print invalid documents")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runValidate(cmd *cobra.Command, global *globalFlags, flags *validateFlags, args []string) error {
	format := OutputFormat(strings.ToLower(flags.output))
	switch format {
	case OutputText, OutputJSON, OutputOutcome:
	default:
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	v, err := newValidator(cmd, global,
		validator.WithMaxIssues(flags.maxIssues),
		validator.WithLocations(flags.locations),
	)
	if err != nil {
		return err
	}
	if _, ok := v.Registry().Get(flags.schema); !ok {
		return fmt.Errorf("%w: %s", validator.ErrUnknownSchema, flags.schema)
	}

	out := cmd.OutOrStdout()
	hasErrors := false
	outputs := make([]ValidationOutput, 0, len(args))
	outcomes := make([]json.RawMessage, 0, len(args))

	for _, in := range readInputs(args, cmd.InOrStdin()) {
		output := validateInput(cmd, v, flags.schema, in)
		if !output.result.Valid {
			hasErrors = true
		}

		switch format {
		case OutputText:
			if !flags.quiet || !output.result.Valid {
				printTextResult(out, output.result)
			}
		case OutputJSON:
			outputs = append(outputs, output.result)
		case OutputOutcome:
			outcomes = append(outcomes, output.outcome)
		}
	}

	switch format {
	case OutputJSON:
		if err := writeIndented(out, outputs); err != nil {
			return err
		}
	case OutputOutcome:
		if err := writeIndented(out, outcomes); err != nil {
			return err
		}
	}

	if hasErrors {
		return errInvalid
	}
	return nil
}

type validated struct {
	result  ValidationOutput
	outcome json.RawMessage
}

func validateInput(cmd *cobra.Command, v *validator.Validator, schemaName string, in input) validated {
	failed := func(format string, args ...any) validated {
		report := issue.NewReport()
		report.Add(issue.Issue{
			Severity:    issue.SeverityError,
			Code:        issue.CodeException,
			Diagnostics: fmt.Sprintf(format, args...),
		})
		return validated{
			result:  ValidationOutput{Input: in.name, Schema: schemaName, Errors: 1, Issues: issueOutputs(report)},
			outcome: mustOutcome(schemaName, report),
		}
	}

	if in.err != nil {
		return failed("Failed to read input: %v", in.err)
	}

	result, err := v.ValidateJSON(cmd.Context(), schemaName, in.data)
	if err != nil {
		return failed("Validation failed: %v", err)
	}

	return validated{
		result: ValidationOutput{
			Input:    in.name,
			Schema:   result.Schema,
			Valid:    result.Valid(),
			Errors:   result.Report.ErrorCount(),
			Issues:   issueOutputs(result.Report),
			Duration: result.Duration.Round(time.Microsecond).String(),
		},
		outcome: mustOutcome(schemaName, result.Report),
	}
}

func mustOutcome(schemaName string, report *issue.Report) json.RawMessage {
	b, err := outcome.Marshal(schemaName, report)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return b
}

func issueOutputs(report *issue.Report) []IssueOutput {
	if report.Empty() {
		return nil
	}
	out := make([]IssueOutput, 0, report.Len())
	for _, iss := range report.Issues {
		o := IssueOutput{
			Kind:        string(iss.Kind),
			Severity:    string(iss.Severity),
			Code:        string(iss.Code),
			Path:        iss.Path,
			Diagnostics: iss.Diagnostics,
		}
		if iss.Location != nil {
			o.Line, o.Column = iss.Location.Line, iss.Location.Column
		}
		out = append(out, o)
	}
	return out
}

func printTextResult(w io.Writer, result ValidationOutput) {
	status := "VALID"
	if !result.Valid {
		status = "INVALID"
	}

	fmt.Fprintf(w, "== %s ==\n", result.Input)
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Schema: %s\n", result.Schema)
	fmt.Fprintf(w, "Errors: %d\n", result.Errors)
	if result.Duration != "" {
		fmt.Fprintf(w, "Duration: %s\n", result.Duration)
	}

	if len(result.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for _, iss := range result.Issues {
			where := ""
			if iss.Path != "" {
				where = " @ " + iss.Path
			}
			if iss.Line > 0 {
				where += fmt.Sprintf(" (line %d, col %d)", iss.Line, iss.Column)
			}
			kind := iss.Kind
			if kind == "" {
				kind = iss.Code
			}
			fmt.Fprintf(w, "  %s [%s] %s%s\n", severityLabel(iss.Severity), kind, iss.Diagnostics, where)
		}
	}
	fmt.Fprintln(w)
}

func severityLabel(severity string) string {
	switch issue.Severity(severity) {
	case issue.SeverityFatal:
		return "FATAL"
	case issue.SeverityError:
		return "ERROR"
	case issue.SeverityWarning:
		return "WARN "
	case issue.SeverityInformation:
		return "INFO "
	default:
		return "     "
	}
}

func writeIndented(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
