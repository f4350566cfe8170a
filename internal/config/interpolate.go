package config

import (
	"maps"
	"regexp"
	"slices"
)

// placeholderPattern matches '${NAME}' tokens.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolator substitutes placeholders and remembers names it could not resolve.
type interpolator struct {
	vars       VariableSource
	unresolved map[string]struct{}
}

func newInterpolator(vars VariableSource) *interpolator {
	return &interpolator{
		vars:       vars,
		unresolved: make(map[string]struct{}),
	}
}

// walk returns a copy of v with placeholders substituted in every string,
// descending into slices and string-keyed maps. Map keys are left untouched.
func (i *interpolator) walk(v any) any {
	switch val := v.(type) {
	case string:
		return i.expand(val)
	case []any:
		out := make([]any, len(val))
		for idx, item := range val {
			out[idx] = i.walk(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for idx, item := range val {
			out[idx] = i.expand(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = i.walk(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = i.expand(item)
		}
		return out
	default:
		return v
	}
}

func (i *interpolator) expand(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		if i.vars != nil {
			if v, ok := i.vars.Lookup(name); ok {
				return v
			}
		}
		i.unresolved[name] = struct{}{}
		return ""
	})
}

// Unresolved returns the sorted names that had no value.
func (i *interpolator) Unresolved() []string {
	return slices.Sorted(maps.Keys(i.unresolved))
}

// Interpolate substitutes '${NAME}' placeholders in s using vars.
// Unknown names are replaced with an empty string.
func Interpolate(s string, vars VariableSource) string {
	return newInterpolator(vars).expand(s)
}
