package dto

import (
	"fmt"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

// EventTypeSession names the first frame of every stream.
const EventTypeSession = "session"

// IntentRequest is the body of POST /api/v1/quotes/stream/:session/intents.
type IntentRequest struct {
	Intent string `json:"intent" validate:"required,oneof=view_appeared refresh_requested"`
}

// SessionEvent announces the session ID a client posts intents to.
type SessionEvent struct {
	SessionID string `json:"sessionId"`
}

// ButtonEnabledEvent is the payload of a button_enabled frame.
type ButtonEnabledEvent struct {
	Enabled bool `json:"enabled"`
}

// FetchSucceededEvent is the payload of a fetch_succeeded frame.
type FetchSucceededEvent struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// FetchFailedEvent is the payload of a fetch_failed frame.
type FetchFailedEvent struct {
	Message string `json:"message"`
}

// FromPresentationEvent converts ev to the payload streamed for it.
func FromPresentationEvent(ev domain.PresentationEvent) (any, error) {
	switch e := ev.(type) {
	case domain.ButtonEnabled:
		return ButtonEnabledEvent{Enabled: e.Enabled}, nil
	case domain.FetchSucceeded:
		return FetchSucceededEvent{Content: e.Quote.Content, Author: e.Quote.Author}, nil
	case domain.FetchFailed:
		return FetchFailedEvent{Message: e.Info().Message}, nil
	default:
		return nil, fmt.Errorf("unsupported presentation event %T", ev)
	}
}
