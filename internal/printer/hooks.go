// Package printer renders command results as human-readable text.
package printer

import (
	"io"

	"github.com/mozilla-ai/mcpfleet/internal/cmd/output"
)

// hooks holds the optional header and footer functions of a printer.
type hooks[T any] struct {
	headerFunc output.WriteFunc[T]
	footerFunc output.WriteFunc[T]
}

func (h *hooks[T]) Header(w io.Writer, count int) {
	if h.headerFunc != nil {
		h.headerFunc(w, count)
	}
}

func (h *hooks[T]) SetHeader(fn output.WriteFunc[T]) {
	h.headerFunc = fn
}

func (h *hooks[T]) Footer(w io.Writer, count int) {
	if h.footerFunc != nil {
		h.footerFunc(w, count)
	}
}

func (h *hooks[T]) SetFooter(fn output.WriteFunc[T]) {
	h.footerFunc = fn
}
