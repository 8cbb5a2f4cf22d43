package coordinator

import (
	"time"

	"github.com/google/uuid"

	"horse.fit/transpop/internal/globaltime"
	"horse.fit/transpop/internal/translation"
)

type EventKind string

const (
	EventResult EventKind = "result"
	EventError  EventKind = "error"
)

// Event is one broadcast notification. Result events carry the saved payload;
// error events carry only a user-facing message.
type Event struct {
	ID      string              `json:"id"`
	Kind    EventKind           `json:"kind"`
	Payload *translation.Result `json:"payload,omitempty"`
	Message string              `json:"message,omitempty"`
	At      time.Time           `json:"at"`
}

func newResultEvent(result translation.Result) Event {
	payload := result
	return Event{
		ID:      uuid.NewString(),
		Kind:    EventResult,
		Payload: &payload,
		At:      globaltime.Stamp(),
	}
}

func newErrorEvent(message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    EventError,
		Message: message,
		At:      globaltime.Stamp(),
	}
}
