// Package domain holds the quote view-model's data model: quotes, the
// intents that request them, the presentation events that report them, and
// the fetch error taxonomy. It imports nothing outside the standard library.
package domain

// Quote is one quotation as decoded from a successful fetch. It is a value:
// events carry copies and nothing mutates it.
type Quote struct {
	Content string
	Author  string
}
