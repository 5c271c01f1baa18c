// Package jsonschema exports schemas as OpenAPI 3 schema objects.
//
// Fields map to properties in declaration order, required fields to the
// required list, optional fields to nullable properties carrying their default,
// and computed fields to read-only properties. Static constraints become the
// matching bound keywords (minimum/exclusiveMinimum, minLength, maxItems, ...).
package jsonschema

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/gofhir/modelvalidator/pkg/constraint"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

// ComponentsPrefix is the reference prefix used by Components.
const ComponentsPrefix = "#/components/schemas/"

// Export returns s as a self-contained object schema with nested models inlined.
func Export(s *schema.Schema) *openapi3.Schema {
	e := &exporter{}
	return e.object(s)
}

// Components returns every schema in reg keyed by name. Nested models are
// emitted as references into the same map.
func Components(reg *schema.Registry) openapi3.Schemas {
	e := &exporter{refs: true}
	out := make(openapi3.Schemas, reg.Count())
	for _, name := range reg.Names() {
		out[name] = openapi3.NewSchemaRef("", e.object(reg.MustGet(name)))
	}
	return out
}

// Document wraps the registry's components in a minimal OpenAPI document.
func Document(reg *schema.Registry, title, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: Components(reg),
		},
	}
}

type exporter struct {
	refs bool
}

func (e *exporter) object(s *schema.Schema) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = s.Name()
	out.Description = s.Description()

	var required []string
	for _, f := range s.Fields() {
		prop := e.typeRef(f.Type)
		switch {
		case prop.Ref == "":
			e.annotate(prop.Value, f)
		case annotated(f):
			// Siblings of $ref are ignored, so the reference is wrapped.
			wrapped := &openapi3.Schema{AllOf: openapi3.SchemaRefs{prop}}
			e.annotate(wrapped, f)
			prop = openapi3.NewSchemaRef("", wrapped)
		}
		out.WithPropertyRef(f.Name, prop)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	for _, c := range s.ComputedFields() {
		prop := openapi3.NewSchemaRef("", e.inline(c.Type))
		prop.Value.ReadOnly = true
		prop.Value.Description = c.Description
		out.WithPropertyRef(c.Name, prop)
	}
	if len(required) > 0 {
		out.WithRequired(required)
	}
	return out
}

func annotated(f schema.FieldDescriptor) bool {
	return f.Optional || f.Title != "" || f.Description != "" || len(f.Examples) > 0
}

// annotate copies field metadata and constraints onto the property schema.
func (e *exporter) annotate(p *openapi3.Schema, f schema.FieldDescriptor) {
	p.Title = f.Title
	p.Description = f.Description
	if len(f.Examples) > 0 {
		p.Example = f.Examples[0]
	}
	if f.Optional {
		p.WithNullable()
		if def, ok := f.Default(); ok {
			p.WithDefault(def)
		}
	}
	for _, c := range f.Constraints {
		applyConstraint(p, f.Type, c)
	}
}

func applyConstraint(p *openapi3.Schema, t schema.Type, c constraint.Constraint) {
	switch c.Name {
	case constraint.NameGt:
		p.WithMin(c.Bound).WithExclusiveMin(true)
	case constraint.NameGe:
		p.WithMin(c.Bound)
	case constraint.NameLt:
		p.WithMax(c.Bound).WithExclusiveMax(true)
	case constraint.NameLe:
		p.WithMax(c.Bound)
	case constraint.NameMinLength:
		switch t.Kind() {
		case schema.KindList:
			p.WithMinItems(int64(c.Limit))
		case schema.KindMap:
			p.WithMinProperties(int64(c.Limit))
		default:
			p.WithMinLength(int64(c.Limit))
		}
	case constraint.NameMaxLength:
		switch t.Kind() {
		case schema.KindList:
			p.WithMaxItems(int64(c.Limit))
		case schema.KindMap:
			p.WithMaxProperties(int64(c.Limit))
		default:
			p.WithMaxLength(int64(c.Limit))
		}
	}
}

// typeRef returns a resolved reference for nested models when refs are enabled
// and an inline schema otherwise.
func (e *exporter) typeRef(t schema.Type) *openapi3.SchemaRef {
	if e.refs && t.Kind() == schema.KindModel {
		return openapi3.NewSchemaRef(ComponentsPrefix+t.Schema().Name(), e.object(t.Schema()))
	}
	return openapi3.NewSchemaRef("", e.inline(t))
}

func (e *exporter) inline(t schema.Type) *openapi3.Schema {
	switch t.Kind() {
	case schema.KindString:
		return openapi3.NewStringSchema()
	case schema.KindInt:
		return openapi3.NewIntegerSchema()
	case schema.KindFloat:
		return openapi3.NewFloat64Schema()
	case schema.KindBool:
		return openapi3.NewBoolSchema()
	case schema.KindEmail:
		return openapi3.NewStringSchema().WithFormat("email")
	case schema.KindURL:
		return openapi3.NewStringSchema().WithFormat("uri")
	case schema.KindList:
		arr := openapi3.NewArraySchema()
		arr.Items = e.typeRef(t.Elem())
		return arr
	case schema.KindMap:
		obj := openapi3.NewObjectSchema()
		obj.AdditionalProperties = openapi3.AdditionalProperties{Schema: e.typeRef(t.Elem())}
		return obj
	case schema.KindModel:
		return e.object(t.Schema())
	}
	panic(fmt.Sprintf("jsonschema: unsupported type %s", t.Name()))
}
