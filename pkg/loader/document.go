package loader

// Document is the top-level shape of a schema file.
type Document struct {
	Schemas []SchemaSpec `yaml:"schemas" json:"schemas"`
}

// SchemaSpec declares one schema.
type SchemaSpec struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []FieldSpec     `yaml:"fields" json:"fields"`
	Computed    []ComputedSpec  `yaml:"computed,omitempty" json:"computed,omitempty"`
	Validators  []ValidatorSpec `yaml:"validators,omitempty" json:"validators,omitempty"`
}

// FieldSpec declares one field. Type uses the names accepted by
// schema.ParseType; any other name refers to a schema in the same file or in
// the target registry.
type FieldSpec struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`

	Gt        *float64 `yaml:"gt,omitempty" json:"gt,omitempty"`
	Ge        *float64 `yaml:"ge,omitempty" json:"ge,omitempty"`
	Lt        *float64 `yaml:"lt,omitempty" json:"lt,omitempty"`
	Le        *float64 `yaml:"le,omitempty" json:"le,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Before and After name hooks registered with WithHooks.
	Before []string `yaml:"before,omitempty" json:"before,omitempty"`
	After  []string `yaml:"after,omitempty" json:"after,omitempty"`

	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Examples    []any  `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// ComputedSpec declares a computed field backed by a function registered
// with WithComputed. Function defaults to Name.
type ComputedSpec struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Function    string `yaml:"function,omitempty" json:"function,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ValidatorSpec declares a model validator. With an Expression it is a
// FHIRPath invariant; otherwise Function (default Name) names a function
// registered with WithValidators.
type ValidatorSpec struct {
	Name       string `yaml:"name" json:"name"`
	Function   string `yaml:"function,omitempty" json:"function,omitempty"`
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
	Human      string `yaml:"human,omitempty" json:"human,omitempty"`
}
