package domain

import (
	"fmt"
	"strings"
)

// Intent is a user-driven input event requesting a quote fetch.
// Intents carry no payload and exist only as stream elements.
type Intent int

const (
	// IntentViewAppeared is sent once the view becomes visible.
	IntentViewAppeared Intent = iota + 1

	// IntentRefreshRequested is sent when the user asks for another quote.
	IntentRefreshRequested
)

// String returns the wire name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentViewAppeared:
		return "view_appeared"
	case IntentRefreshRequested:
		return "refresh_requested"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	return i == IntentViewAppeared || i == IntentRefreshRequested
}

// ParseIntent maps a wire name back to its Intent.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view_appeared":
		return IntentViewAppeared, nil
	case "refresh_requested":
		return IntentRefreshRequested, nil
	default:
		return 0, fmt.Errorf("unknown intent %q", s)
	}
}

// Event type names, used as SSE event names and log attributes.
const (
	EventTypeFetchFailed    = "fetch_failed"
	EventTypeFetchSucceeded = "fetch_succeeded"
	EventTypeButtonEnabled  = "button_enabled"
)

// PresentationEvent instructs the presentation layer to update its state.
// The set of implementations is closed: FetchFailed, FetchSucceeded and ButtonEnabled.
type PresentationEvent interface {
	// EventType returns the stable name of the event variant.
	EventType() string

	isPresentationEvent()
}

// FetchFailed reports that the fetch started by an intent failed.
type FetchFailed struct {
	Err error
}

// EventType implements PresentationEvent.
func (FetchFailed) EventType() string { return EventTypeFetchFailed }

// Info returns the displayable description of the failure.
func (e FetchFailed) Info() ErrorInfo { return NewErrorInfo(e.Err) }

func (FetchFailed) isPresentationEvent() {}

// FetchSucceeded carries the quote fetched for an intent.
type FetchSucceeded struct {
	Quote Quote
}

// EventType implements PresentationEvent.
func (FetchSucceeded) EventType() string { return EventTypeFetchSucceeded }

func (FetchSucceeded) isPresentationEvent() {}

// ButtonEnabled toggles the refresh action while a fetch is outstanding.
type ButtonEnabled struct {
	Enabled bool
}

// EventType implements PresentationEvent.
func (ButtonEnabled) EventType() string { return EventTypeButtonEnabled }

func (ButtonEnabled) isPresentationEvent() {}
