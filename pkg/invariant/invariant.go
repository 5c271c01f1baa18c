// Package invariant turns FHIRPath expressions into model validators.
//
// An invariant is evaluated against the JSON dump of the field-validated
// instance (computed and absent fields left out). The instance's schema name is
// exposed as resourceType, so both "age > 0" and "Patient.age > 0" resolve.
// An empty result means the invariant does not apply and passes.
//
//	inv := invariant.Invariant{
//		Key:        "pat-1",
//		Expression: "age <= 60 or contact_details.emergency.exists()",
//		Human:      "Patients older than 60 must have an emergency contact",
//	}
//	mv, err := invariant.Default().Validator(inv)
package invariant

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/funcs"

	"github.com/gofhir/modelvalidator/pkg/cache"
	"github.com/gofhir/modelvalidator/pkg/schema"
	"github.com/gofhir/modelvalidator/pkg/serialize"
)

// Invariant is a named boolean FHIRPath expression over a model.
type Invariant struct {
	Key        string
	Expression string
	Human      string
}

// Message returns the text reported when the invariant fails.
func (inv Invariant) Message() string {
	if inv.Human == "" {
		return fmt.Sprintf("Constraint failed: %s", inv.Key)
	}
	return fmt.Sprintf("Constraint failed: %s: '%s'", inv.Key, inv.Human)
}

// Compiler compiles expressions and keeps them in an LRU cache.
type Compiler struct {
	exprs *cache.Cache[string, *fhirpath.Expression]
}

var (
	traceOnce       sync.Once
	defaultCompiler *Compiler
	defaultOnce     sync.Once
)

// NewCompiler creates a Compiler caching up to capacity expressions.
func NewCompiler(capacity int) *Compiler {
	traceOnce.Do(func() {
		// trace() output would otherwise go to stdout.
		funcs.SetTraceLogger(funcs.NullTraceLogger{})
	})
	return &Compiler{exprs: cache.New[string, *fhirpath.Expression](capacity)}
}

// Default returns the shared Compiler.
func Default() *Compiler {
	defaultOnce.Do(func() {
		defaultCompiler = NewCompiler(cache.DefaultCapacity)
	})
	return defaultCompiler
}

// Compile returns the compiled form of expr, compiling it on first use.
func (c *Compiler) Compile(expr string) (*fhirpath.Expression, error) {
	if expr == "" {
		return nil, errors.New("invariant: empty expression")
	}
	return c.exprs.GetOrLoad(expr, func() (*fhirpath.Expression, error) {
		compiled, err := fhirpath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invariant: compile %q: %w", expr, err)
		}
		return compiled, nil
	})
}

// Stats returns the expression cache counters.
func (c *Compiler) Stats() cache.Stats {
	return c.exprs.Stats()
}

// Evaluate reports whether expr holds for inst.
func (c *Compiler) Evaluate(inst *schema.Instance, expr string) (bool, error) {
	compiled, err := c.Compile(expr)
	if err != nil {
		return false, err
	}
	data, err := document(inst)
	if err != nil {
		return false, err
	}
	result, err := compiled.Evaluate(data)
	if err != nil {
		return false, fmt.Errorf("invariant: evaluate %q: %w", expr, err)
	}
	return passed(result), nil
}

// Validator compiles inv and returns it as a model validator named after its key.
// Compilation errors are returned here rather than at validation time.
func (c *Compiler) Validator(inv Invariant) (schema.ModelValidator, error) {
	if inv.Key == "" {
		return schema.ModelValidator{}, errors.New("invariant: key is empty")
	}
	if _, err := c.Compile(inv.Expression); err != nil {
		return schema.ModelValidator{}, err
	}
	return schema.ModelValidator{
		Name: inv.Key,
		Fn: func(inst *schema.Instance) error {
			ok, err := c.Evaluate(inst, inv.Expression)
			if err != nil {
				return fmt.Errorf("invariant %s could not be evaluated: %w", inv.Key, err)
			}
			if !ok {
				return errors.New(inv.Message())
			}
			return nil
		},
	}, nil
}

// Validators compiles every invariant, stopping at the first error.
func (c *Compiler) Validators(invs ...Invariant) ([]schema.ModelValidator, error) {
	out := make([]schema.ModelValidator, 0, len(invs))
	for _, inv := range invs {
		mv, err := c.Validator(inv)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, nil
}

// passed applies FHIR constraint semantics to an evaluation result.
func passed(result fhirpath.Collection) bool {
	if result.Empty() {
		return true
	}
	b, err := result.ToBoolean()
	if err != nil {
		// Non-boolean, non-empty results are truthy.
		return true
	}
	return b
}

// document renders inst as the JSON object expressions run against.
func document(inst *schema.Instance) ([]byte, error) {
	text, err := serialize.DumpText(inst, serialize.ExcludeComputed(), serialize.ExcludeAbsent())
	if err != nil {
		return nil, fmt.Errorf("invariant: %w", err)
	}
	s := inst.Schema()
	if _, clash := s.Field("resourceType"); clash {
		return text, nil
	}

	prefix := fmt.Sprintf(`{"resourceType":%q`, s.Name())
	out := make([]byte, 0, len(prefix)+len(text)+1)
	out = append(out, prefix...)
	if len(text) > 2 {
		out = append(out, ',')
	}
	return append(out, text[1:]...), nil
}
