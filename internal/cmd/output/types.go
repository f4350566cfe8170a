package output

import "io"

// DefaultIndent is used by the structured handlers when a negative indent is requested.
const DefaultIndent = 2

// Handler renders command results in one output format.
type Handler[T any] interface {
	// Writer returns where output is written.
	Writer() io.Writer

	// HandleResult renders a single item.
	HandleResult(item T) error

	// HandleResults renders a collection of items.
	HandleResults(items ...T) error

	// HandleError renders err, or returns it when the format has no error envelope.
	HandleError(err error) error
}

// WriteFunc writes a header or footer given the number of items rendered.
type WriteFunc[T any] func(w io.Writer, count int)

// Printer renders items as human readable text.
type Printer[T any] interface {
	Header(w io.Writer, count int)
	SetHeader(fn WriteFunc[T])

	// Item prints one element.
	Item(w io.Writer, elem T) error

	Footer(w io.Writer, count int)
	SetFooter(fn WriteFunc[T])
}

// ResultsPayload wraps a collection under the "results" key.
type ResultsPayload[T any] struct {
	Results []T `json:"results" yaml:"results"`
}

// ResultPayload wraps a single item under the "result" key.
type ResultPayload[T any] struct {
	Result T `json:"result" yaml:"result"`
}

// ErrorPayload wraps an error message under the "error" key.
type ErrorPayload struct {
	Error string `json:"error" yaml:"error"`
}

func indentOrDefault(spaces int) int {
	if spaces < 0 {
		return DefaultIndent
	}
	return spaces
}
