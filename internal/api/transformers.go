package api

import "github.com/danielgtaylor/huma/v2"

// Transformers returns the response transformers the API registers with huma.
// They run in order and must come before huma's defaults, which wrap bodies in types
// these transformers pass through untouched.
func Transformers() []huma.Transformer {
	return []huma.Transformer{
		toolFieldSelectTransformer,
	}
}
