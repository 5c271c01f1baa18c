package issue

import (
	"fmt"
	"strings"
)

// defaultIssueCapacity is the pre-allocated capacity for Issues slice.
const defaultIssueCapacity = 8

// Report is the ordered set of issues produced by a failed validation.
// A *Report satisfies the error interface so it can travel through error returns;
// an empty report is never returned as an error by the engine.
type Report struct {
	Issues []Issue
}

// NewReport creates a new empty Report with pre-allocated capacity.
func NewReport() *Report {
	return &Report{
		Issues: make([]Issue, 0, defaultIssueCapacity),
	}
}

// Add adds an issue to the report.
func (r *Report) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// AddWithID adds an issue built from a diagnostic template.
func (r *Report) AddWithID(id DiagnosticID, path string, params map[string]any) {
	r.Issues = append(r.Issues, New(id, path, params))
}

// Merge appends all issues of other to the report.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// MergeUnder appends all issues of other, re-tagging each path with prefix.
func (r *Report) MergeUnder(prefix string, other *Report) {
	if other == nil {
		return
	}
	for _, iss := range other.Issues {
		r.Issues = append(r.Issues, iss.WithPrefix(prefix))
	}
}

// Len returns the number of issues.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Issues)
}

// Empty returns true if the report holds no issues.
func (r *Report) Empty() bool {
	return r.Len() == 0
}

// HasErrors returns true if there are any error-level issues.
func (r *Report) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, iss := range r.Issues {
		if iss.IsError() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Report) ErrorCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, iss := range r.Issues {
		if iss.IsError() {
			count++
		}
	}
	return count
}

// ByKind returns the issues of the given kind, in report order.
func (r *Report) ByKind(kind Kind) []Issue {
	if r == nil {
		return nil
	}
	var out []Issue
	for _, iss := range r.Issues {
		if iss.Kind == kind {
			out = append(out, iss)
		}
	}
	return out
}

// AtPath returns the issues reported for path.
func (r *Report) AtPath(path string) []Issue {
	if r == nil {
		return nil
	}
	var out []Issue
	for _, iss := range r.Issues {
		if iss.Path == path {
			out = append(out, iss)
		}
	}
	return out
}

// Paths returns the distinct issue paths in first-seen order.
func (r *Report) Paths() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Issues))
	paths := make([]string, 0, len(r.Issues))
	for _, iss := range r.Issues {
		if _, ok := seen[iss.Path]; ok {
			continue
		}
		seen[iss.Path] = struct{}{}
		paths = append(paths, iss.Path)
	}
	return paths
}

// Truncate keeps at most n issues. n <= 0 keeps everything.
func (r *Report) Truncate(n int) {
	if r == nil || n <= 0 || len(r.Issues) <= n {
		return
	}
	r.Issues = r.Issues[:n]
}

// EnrichLocations adds line and column information to issues based on their paths.
// The locator function maps a field path to a Location.
func (r *Report) EnrichLocations(locator func(path string) *Location) {
	if r == nil || locator == nil {
		return
	}
	for i := range r.Issues {
		if r.Issues[i].Path != "" && r.Issues[i].Location == nil {
			r.Issues[i].Location = locator(r.Issues[i].Path)
		}
	}
}

// Error implements the error interface.
func (r *Report) Error() string {
	switch r.Len() {
	case 0:
		return "validation succeeded"
	case 1:
		return "1 validation error: " + r.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(r.Issues))
	for _, iss := range r.Issues {
		b.WriteString("\n  ")
		b.WriteString(iss.String())
	}
	return b.String()
}
