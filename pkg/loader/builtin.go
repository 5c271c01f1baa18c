package loader

import (
	"errors"
	"strings"

	"github.com/gofhir/modelvalidator/pkg/schema"
)

// Builtins returns the hooks every Loader knows. They act on strings and pass
// other values through unchanged.
func Builtins() map[string]schema.HookFunc {
	return map[string]schema.HookFunc{
		"trim":     stringHook(strings.TrimSpace),
		"lower":    stringHook(strings.ToLower),
		"upper":    stringHook(strings.ToUpper),
		"nonblank": nonBlank,
	}
}

func stringHook(fn func(string) string) schema.HookFunc {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			return fn(s), nil
		}
		return v, nil
	}
}

func nonBlank(v any) (any, error) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, errors.New("value must not be blank")
	}
	return v, nil
}
