package schema

import (
	"fmt"
	"strings"
)

// Kind is the category of a declared field type.
type Kind int

// Kinds of field types.
const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindEmail
	KindURL
	KindList
	KindMap
	KindModel
)

// Type is the declared type tag of a field or computed field.
// Build one with the factory functions String, Int, Float, Bool, Email, URL,
// ListOf, MapOf and Model.
type Type struct {
	kind  Kind
	elem  *Type
	model *Schema
}

// String declares a string field.
func String() Type { return Type{kind: KindString} }

// Int declares an integer field. Values are stored as int64.
func Int() Type { return Type{kind: KindInt} }

// Float declares a float field. Values are stored as float64.
func Float() Type { return Type{kind: KindFloat} }

// Bool declares a boolean field.
func Bool() Type { return Type{kind: KindBool} }

// Email declares a string field holding an email address.
func Email() Type { return Type{kind: KindEmail} }

// URL declares a string field holding an absolute URL.
func URL() Type { return Type{kind: KindURL} }

// ListOf declares a list whose elements have type elem.
func ListOf(elem Type) Type { return Type{kind: KindList, elem: &elem} }

// MapOf declares a map with string keys and values of type elem.
func MapOf(elem Type) Type { return Type{kind: KindMap, elem: &elem} }

// Model declares a nested model validated by s.
func Model(s *Schema) Type { return Type{kind: KindModel, model: s} }

// Kind returns the type category.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of a list or map type.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Schema returns the nested schema of a model type.
func (t Type) Schema() *Schema { return t.model }

// IsZero reports whether t was never initialized.
func (t Type) IsZero() bool { return t.kind == KindInvalid }

// Name returns the type as written in schema documents, e.g. "list[string]".
func (t Type) Name() string {
	switch t.kind {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEmail:
		return "email"
	case KindURL:
		return "url"
	case KindList:
		return "list[" + t.Elem().Name() + "]"
	case KindMap:
		return "map[string]" + t.Elem().Name()
	case KindModel:
		if t.model == nil {
			return "<nil model>"
		}
		return t.model.name
	}
	return "<invalid>"
}

func (t Type) String() string { return t.Name() }

// check reports a malformed type tag.
func (t Type) check() error {
	switch t.kind {
	case KindInvalid:
		return fmt.Errorf("type is not set")
	case KindList, KindMap:
		if t.elem == nil {
			return fmt.Errorf("%s has no element type", t.Name())
		}
		return t.elem.check()
	case KindModel:
		if t.model == nil {
			return fmt.Errorf("nested model schema is nil")
		}
	}
	return nil
}

// numeric reports whether numeric bounds apply to values of this type.
func (t Type) numeric() bool {
	return t.kind == KindInt || t.kind == KindFloat
}

// sized reports whether length bounds apply to values of this type.
func (t Type) sized() bool {
	switch t.kind {
	case KindString, KindEmail, KindURL, KindList, KindMap:
		return true
	}
	return false
}

// ParseType converts a type string into a Type.
// Supported forms: string, int, float, bool, email, url, list[T], [T],
// map[string]T and schema names, which are resolved with lookup.
func ParseType(typeStr string, lookup func(name string) (*Schema, bool)) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	switch {
	case strings.HasPrefix(typeStr, "list[") && strings.HasSuffix(typeStr, "]"):
		elem, err := ParseType(typeStr[len("list["):len(typeStr)-1], lookup)
		if err != nil {
			return Type{}, err
		}
		return ListOf(elem), nil
	case len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']':
		elem, err := ParseType(typeStr[1:len(typeStr)-1], lookup)
		if err != nil {
			return Type{}, err
		}
		return ListOf(elem), nil
	case strings.HasPrefix(typeStr, "map[string]"):
		elem, err := ParseType(typeStr[len("map[string]"):], lookup)
		if err != nil {
			return Type{}, err
		}
		return MapOf(elem), nil
	case strings.HasPrefix(typeStr, "map["):
		return Type{}, fmt.Errorf("map keys must be string: %s", typeStr)
	}

	switch typeStr {
	case "string", "str":
		return String(), nil
	case "int", "integer":
		return Int(), nil
	case "float", "number":
		return Float(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "email":
		return Email(), nil
	case "url":
		return URL(), nil
	case "":
		return Type{}, fmt.Errorf("empty type")
	}

	if lookup != nil {
		if s, ok := lookup(typeStr); ok {
			return Model(s), nil
		}
	}
	return Type{}, fmt.Errorf("unsupported type: %s", typeStr)
}
