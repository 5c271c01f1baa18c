// Package loader builds schemas from YAML documents.
//
// A document lists schemas by name. Field types use the strings accepted by
// schema.ParseType and may refer to other schemas in the same document, in any
// order, or to schemas already present in a registry. Hooks, computed fields
// and model validators are bound by name to Go functions supplied through
// options; model validators may instead carry a FHIRPath expression.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/invariant"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

// Functions holds the Go functions a document may refer to by name.
type Functions struct {
	Hooks      map[string]schema.HookFunc
	Computed   map[string]schema.ComputeFunc
	Validators map[string]schema.ModelValidateFunc
}

// Loader turns documents into schemas.
type Loader struct {
	fns      Functions
	compiler *invariant.Compiler
}

// Option configures a Loader.
type Option func(*Loader)

// WithHooks registers field hooks by name.
func WithHooks(hooks map[string]schema.HookFunc) Option {
	return func(l *Loader) {
		for name, fn := range hooks {
			l.fns.Hooks[name] = fn
		}
	}
}

// WithComputed registers computed-field functions by name.
func WithComputed(fns map[string]schema.ComputeFunc) Option {
	return func(l *Loader) {
		for name, fn := range fns {
			l.fns.Computed[name] = fn
		}
	}
}

// WithValidators registers model validators by name.
func WithValidators(fns map[string]schema.ModelValidateFunc) Option {
	return func(l *Loader) {
		for name, fn := range fns {
			l.fns.Validators[name] = fn
		}
	}
}

// WithFunctions registers every function in fns.
func WithFunctions(fns Functions) Option {
	return func(l *Loader) {
		WithHooks(fns.Hooks)(l)
		WithComputed(fns.Computed)(l)
		WithValidators(fns.Validators)(l)
	}
}

// WithCompiler sets the compiler used for expression validators.
func WithCompiler(c *invariant.Compiler) Option {
	return func(l *Loader) {
		l.compiler = c
	}
}

// New creates a Loader. The built-in hooks are always available.
func New(opts ...Option) *Loader {
	l := &Loader{
		fns: Functions{
			Hooks:      make(map[string]schema.HookFunc),
			Computed:   make(map[string]schema.ComputeFunc),
			Validators: make(map[string]schema.ModelValidateFunc),
		},
	}
	WithHooks(Builtins())(l)
	for _, opt := range opts {
		opt(l)
	}
	if l.compiler == nil {
		l.compiler = invariant.Default()
	}
	return l
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	return &doc, nil
}

// Load parses data and builds its schemas in document order.
func (l *Loader) Load(data []byte) ([]*schema.Schema, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return l.Build(doc, nil)
}

// LoadFile reads and loads a document from path.
func (l *Loader) LoadFile(path string) ([]*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	schemas, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}

// LoadInto loads data and registers the result in reg. Types may refer to
// schemas reg already holds.
func (l *Loader) LoadInto(reg *schema.Registry, data []byte) ([]*schema.Schema, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	schemas, err := l.Build(doc, reg)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(schemas...); err != nil {
		return nil, err
	}
	return schemas, nil
}

// Build turns doc into schemas. Referenced schemas are built before the
// schemas that use them; the result keeps document order. reg may be nil.
func (l *Loader) Build(doc *Document, reg *schema.Registry) ([]*schema.Schema, error) {
	b := &build{
		loader: l,
		reg:    reg,
		specs:  make(map[string]*SchemaSpec, len(doc.Schemas)),
		built:  make(map[string]*schema.Schema, len(doc.Schemas)),
		active: make(map[string]bool),
	}
	for i := range doc.Schemas {
		spec := &doc.Schemas[i]
		if spec.Name == "" {
			return nil, &schema.DefinitionError{Reason: fmt.Sprintf("schema #%d has no name", i)}
		}
		if _, dup := b.specs[spec.Name]; dup {
			return nil, &schema.DefinitionError{Schema: spec.Name, Reason: "duplicate schema name"}
		}
		b.specs[spec.Name] = spec
	}

	out := make([]*schema.Schema, 0, len(doc.Schemas))
	for _, spec := range doc.Schemas {
		s, err := b.schema(spec.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// build carries the state of one Build call.
type build struct {
	loader *Loader
	reg    *schema.Registry
	specs  map[string]*SchemaSpec
	built  map[string]*schema.Schema
	active map[string]bool
	stack  []string
}

func (b *build) schema(name string) (*schema.Schema, error) {
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	if b.active[name] {
		return nil, b.cycle(name)
	}
	spec := b.specs[name]

	b.active[name] = true
	b.stack = append(b.stack, name)
	defer func() {
		delete(b.active, name)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	sb := schema.New(spec.Name).Describe(spec.Description)
	for _, fs := range spec.Fields {
		fd, err := b.field(spec.Name, fs)
		if err != nil {
			return nil, err
		}
		sb.Add(fd)
	}
	for _, cs := range spec.Computed {
		cf, err := b.computed(spec.Name, cs)
		if err != nil {
			return nil, err
		}
		sb.AddComputed(cf)
	}
	for _, vs := range spec.Validators {
		mv, err := b.validator(spec.Name, vs)
		if err != nil {
			return nil, err
		}
		sb.Validator(mv.Name, mv.Fn)
	}

	s, err := sb.Build()
	if err != nil {
		return nil, err
	}
	b.built[name] = s
	return s, nil
}

func (b *build) cycle(name string) error {
	start := 0
	for i, n := range b.stack {
		if n == name {
			start = i
			break
		}
	}
	chain := append(append([]string{}, b.stack[start:]...), name)
	return &schema.DefinitionError{
		Schema: b.stack[len(b.stack)-1],
		Reason: "cyclic reference: " + strings.Join(chain, " -> "),
	}
}

// parseType resolves typeStr, building referenced document schemas first.
func (b *build) parseType(typeStr string) (schema.Type, error) {
	var lookupErr error
	lookup := func(name string) (*schema.Schema, bool) {
		if _, ok := b.specs[name]; ok {
			s, err := b.schema(name)
			if err != nil {
				lookupErr = err
				return nil, false
			}
			return s, true
		}
		if b.reg != nil {
			return b.reg.Get(name)
		}
		return nil, false
	}

	t, err := schema.ParseType(typeStr, lookup)
	if lookupErr != nil {
		return schema.Type{}, lookupErr
	}
	return t, err
}

// typeError attaches the field to a type error. Errors from referenced
// schemas already name their own schema and pass through.
func typeError(schemaName, field string, err error) error {
	var defErr *schema.DefinitionError
	if errors.As(err, &defErr) {
		return err
	}
	return &schema.DefinitionError{Schema: schemaName, Field: field, Reason: err.Error()}
}

func (b *build) field(schemaName string, fs FieldSpec) (schema.FieldDescriptor, error) {
	t, err := b.parseType(fs.Type)
	if err != nil {
		return schema.FieldDescriptor{}, typeError(schemaName, fs.Name, err)
	}

	opts := make([]schema.FieldOption, 0, 8)
	if fs.Optional {
		opts = append(opts, schema.Optional())
	}
	if fs.Default != nil {
		opts = append(opts, schema.Default(fs.Default))
	}
	if cs := constraints(fs); len(cs) > 0 {
		opts = append(opts, schema.Constraints(cs...))
	}
	for _, h := range []struct {
		names []string
		mode  schema.HookMode
	}{{fs.Before, schema.ModeBefore}, {fs.After, schema.ModeAfter}} {
		for _, name := range h.names {
			fn, ok := b.loader.fns.Hooks[name]
			if !ok {
				return schema.FieldDescriptor{}, &schema.DefinitionError{
					Schema: schemaName, Field: fs.Name, Reason: fmt.Sprintf("unknown hook '%s'", name),
				}
			}
			opts = append(opts, schema.WithHook(schema.Hook{Name: name, Mode: h.mode, Fn: fn}))
		}
	}
	if fs.Title != "" {
		opts = append(opts, schema.Title(fs.Title))
	}
	if fs.Description != "" {
		opts = append(opts, schema.Description(fs.Description))
	}
	if len(fs.Examples) > 0 {
		opts = append(opts, schema.Examples(fs.Examples...))
	}
	return schema.Field(fs.Name, t, opts...), nil
}

// constraints returns the bounds of fs in a fixed order.
func constraints(fs FieldSpec) []constraint.Constraint {
	var cs []constraint.Constraint
	if fs.Gt != nil {
		cs = append(cs, constraint.Gt(*fs.Gt))
	}
	if fs.Ge != nil {
		cs = append(cs, constraint.Ge(*fs.Ge))
	}
	if fs.Lt != nil {
		cs = append(cs, constraint.Lt(*fs.Lt))
	}
	if fs.Le != nil {
		cs = append(cs, constraint.Le(*fs.Le))
	}
	if fs.MinLength != nil {
		cs = append(cs, constraint.MinLength(*fs.MinLength))
	}
	if fs.MaxLength != nil {
		cs = append(cs, constraint.MaxLength(*fs.MaxLength))
	}
	return cs
}

func (b *build) computed(schemaName string, cs ComputedSpec) (schema.ComputedField, error) {
	t, err := b.parseType(cs.Type)
	if err != nil {
		return schema.ComputedField{}, typeError(schemaName, cs.Name, err)
	}
	fnName := cs.Function
	if fnName == "" {
		fnName = cs.Name
	}
	fn, ok := b.loader.fns.Computed[fnName]
	if !ok {
		return schema.ComputedField{}, &schema.DefinitionError{
			Schema: schemaName, Field: cs.Name, Reason: fmt.Sprintf("unknown computed function '%s'", fnName),
		}
	}
	return schema.Computed(cs.Name, t, fn).WithDescription(cs.Description), nil
}

func (b *build) validator(schemaName string, vs ValidatorSpec) (schema.ModelValidator, error) {
	if vs.Expression != "" {
		mv, err := b.loader.compiler.Validator(invariant.Invariant{
			Key:        vs.Name,
			Expression: vs.Expression,
			Human:      vs.Human,
		})
		if err != nil {
			return schema.ModelValidator{}, &schema.DefinitionError{Schema: schemaName, Reason: err.Error()}
		}
		return mv, nil
	}

	fnName := vs.Function
	if fnName == "" {
		fnName = vs.Name
	}
	fn, ok := b.loader.fns.Validators[fnName]
	if !ok {
		return schema.ModelValidator{}, &schema.DefinitionError{
			Schema: schemaName, Reason: fmt.Sprintf("unknown model validator '%s'", fnName),
		}
	}
	return schema.ModelValidator{Name: vs.Name, Fn: fn}, nil
}
