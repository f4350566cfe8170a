package api

type Convertible[T any] interface {
	// ToAPIType can be used to convert a wrapped domain type to an API-safe type.
	// It should be responsible for any normalization required to ensure consistency
	// across the API boundary.
	ToAPIType() (T, error)
}

// convertAll converts every domain value, returning an empty (never nil) slice.
func convertAll[T any, D any](values []D, wrap func(D) Convertible[T]) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, err := wrap(v).ToAPIType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
