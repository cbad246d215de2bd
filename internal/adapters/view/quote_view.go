// Package view is the terminal presentation of the quote view-model: a label
// showing the current quote or error, and a refresh button that is disabled
// while a fetch is outstanding.
package view

import (
	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

// quoteSeparator joins quote text and author in the label.
const quoteSeparator = " — "

// QuoteView is the mutable state of the screen. It is owned by a single
// goroutine and is not safe for concurrent use.
type QuoteView struct {
	label         string
	buttonEnabled bool
}

// NewQuoteView returns an empty view with the refresh button enabled.
func NewQuoteView() *QuoteView {
	return &QuoteView{buttonEnabled: true}
}

// Apply updates the view for one presentation event.
func (v *QuoteView) Apply(ev domain.PresentationEvent) {
	switch e := ev.(type) {
	case domain.ButtonEnabled:
		v.buttonEnabled = e.Enabled
	case domain.FetchSucceeded:
		v.label = FormatQuote(e.Quote)
	case domain.FetchFailed:
		v.label = e.Info().Message
	}
}

// Label returns the label text.
func (v *QuoteView) Label() string {
	return v.label
}

// ButtonEnabled reports whether the refresh button is enabled.
func (v *QuoteView) ButtonEnabled() bool {
	return v.buttonEnabled
}

// FormatQuote renders a quote as it appears in the label.
func FormatQuote(q domain.Quote) string {
	if q.Author == "" {
		return q.Content
	}

	return q.Content + quoteSeparator + q.Author
}
