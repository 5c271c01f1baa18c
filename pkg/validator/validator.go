// Package validator ties schemas, reports, metrics and logging together behind
// a single entry point.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/loader"
	"github.com/gofhir/modelvalidator/pkg/location"
	"github.com/gofhir/modelvalidator/pkg/logger"
	"github.com/gofhir/modelvalidator/pkg/metrics"
	"github.com/gofhir/modelvalidator/pkg/outcome"
	"github.com/gofhir/modelvalidator/pkg/schema"
	"github.com/gofhir/modelvalidator/pkg/serialize"
)

// ErrUnknownSchema is returned when a schema name is not registered.
var ErrUnknownSchema = errors.New("unknown schema")

// Validator validates input against registered schemas.
type Validator struct {
	registry *schema.Registry
	metrics  *metrics.Metrics
	log      *logger.Logger
	config   *Config
}

// Config holds the validator configuration.
type Config struct {
	Registry    *schema.Registry // Schemas to validate against; a new registry when nil
	Schemas     []*schema.Schema // Schemas built in code, added to Registry
	Logger      *logger.Logger   // Defaults to logger.Default()
	Metrics     *metrics.Metrics // Optional
	MaxIssues   int              // Keep at most this many issues per report; 0 keeps all
	Locations   bool             // Add line/column information to issues from JSON input
	SchemaFiles []string         // YAML schema documents to load
	SchemaData  [][]byte         // In-memory YAML schema documents
	Functions   loader.Functions // Functions schema documents may refer to
}

// Option is a functional option for configuring the validator.
type Option func(*Config)

// WithRegistry validates against reg.
func WithRegistry(reg *schema.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// WithSchemas registers schemas built in code.
func WithSchemas(schemas ...*schema.Schema) Option {
	return func(c *Config) {
		c.Schemas = append(c.Schemas, schemas...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records every validation in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithMaxIssues caps the number of issues kept per report.
func WithMaxIssues(n int) Option {
	return func(c *Config) {
		c.MaxIssues = n
	}
}

// WithLocations enables line/column information for JSON input.
func WithLocations(enabled bool) Option {
	return func(c *Config) {
		c.Locations = enabled
	}
}

// WithSchemaFile loads a YAML schema document from path.
func WithSchemaFile(path string) Option {
	return func(c *Config) {
		c.SchemaFiles = append(c.SchemaFiles, path)
	}
}

// WithSchemaData loads an in-memory YAML schema document.
func WithSchemaData(data []byte) Option {
	return func(c *Config) {
		c.SchemaData = append(c.SchemaData, data)
	}
}

// WithFunctions makes hooks, computed functions and model validators
// available to schema documents.
func WithFunctions(fns loader.Functions) Option {
	return func(c *Config) {
		c.Functions = fns
	}
}

// New creates a Validator and loads any configured schema documents.
func New(opts ...Option) (*Validator, error) {
	config := &Config{}
	for _, opt := range opts {
		opt(config)
	}
	if config.Registry == nil {
		config.Registry = schema.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}

	v := &Validator{
		registry: config.Registry,
		metrics:  config.Metrics,
		log:      config.Logger,
		config:   config,
	}

	// Documents are loaded into a copy so a failure leaves the caller's
	// registry untouched.
	staging := v.registry.Clone()
	added := append([]*schema.Schema(nil), config.Schemas...)
	if err := staging.Register(config.Schemas...); err != nil {
		return nil, err
	}

	l := loader.New(loader.WithFunctions(config.Functions))
	for _, path := range config.SchemaFiles {
		schemas, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := staging.Register(schemas...); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		added = append(added, schemas...)
		v.log.Debug("Loaded %d schemas from %s", len(schemas), path)
	}
	for i, data := range config.SchemaData {
		schemas, err := l.LoadInto(staging, data)
		if err != nil {
			return nil, fmt.Errorf("schema document #%d: %w", i, err)
		}
		added = append(added, schemas...)
		v.log.Debug("Loaded %d schemas from document #%d", len(schemas), i)
	}

	if err := v.registry.Register(added...); err != nil {
		return nil, err
	}

	v.log.Info("Validator ready with %d schemas", v.registry.Count())
	return v, nil
}

// Result is the outcome of one validation.
type Result struct {
	Schema   string
	Instance *schema.Instance // nil when Report has issues
	Report   *issue.Report
	Duration time.Duration
}

// Valid reports whether the input produced an instance.
func (r *Result) Valid() bool {
	return r.Instance != nil
}

// Outcome renders the report as an OperationOutcome.
func (r *Result) Outcome() *r4.OperationOutcome {
	return outcome.FromReport(r.Schema, r.Report)
}

// Validate validates raw against the schema registered as name. The error is
// non-nil only when validation could not run; problems with raw are reported in
// the result.
func (v *Validator) Validate(ctx context.Context, name string, raw map[string]any) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := v.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return v.run(s, raw, nil), nil
}

// ValidateJSON decodes data as a JSON object and validates it against the
// schema registered as name. Numbers keep their textual form until coercion.
func (v *Validator) ValidateJSON(ctx context.Context, name string, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := v.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	raw, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	var locate func(string) *issue.Location
	if v.config.Locations {
		locate = location.Locator(data)
	}
	return v.run(s, raw, locate), nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON: unexpected data after top-level object")
	}
	if raw == nil {
		return nil, errors.New("invalid JSON: top-level value must be an object")
	}
	return raw, nil
}

func (v *Validator) run(s *schema.Schema, raw map[string]any, locate func(string) *issue.Location) *Result {
	start := time.Now()
	inst, report := s.Check(raw)
	if report == nil {
		report = issue.NewReport()
	}
	report.Truncate(v.config.MaxIssues)
	report.EnrichLocations(locate)

	result := &Result{
		Schema:   s.Name(),
		Instance: inst,
		Report:   report,
		Duration: time.Since(start),
	}

	if v.metrics != nil {
		v.metrics.RecordValidation(s.Name(), result.Duration, report)
	}
	if result.Valid() {
		v.log.Debug("Validated %s in %v", s.Name(), result.Duration)
	} else {
		v.log.Debug("Validation of %s failed with %d issues in %v", s.Name(), report.Len(), result.Duration)
	}
	return result
}

// Dump validates data and serializes the resulting instance. Validation
// problems are returned as the *issue.Report error.
func (v *Validator) Dump(ctx context.Context, name string, data []byte, opts ...serialize.Option) ([]byte, error) {
	result, err := v.ValidateJSON(ctx, name, data)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, result.Report
	}
	return serialize.DumpText(result.Instance, opts...)
}

// Registry returns the schema registry.
func (v *Validator) Registry() *schema.Registry {
	return v.registry
}

// Metrics returns the metrics recorder, or nil.
func (v *Validator) Metrics() *metrics.Metrics {
	return v.metrics
}

// Config returns the validator configuration.
func (v *Validator) Config() *Config {
	return v.config
}
