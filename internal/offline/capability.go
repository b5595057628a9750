// Package offline lets code react to events whose listener types are not
// loaded when the event fires. Listener classes are found ahead of time by
// discovery and written to the listener index; triggering an offline event
// wakes every indexed listener class, orders them by priority and runs them
// through a throwaway eventable dispatcher.
package offline

import (
	"github.com/rs/zerolog"

	"eventcore/internal/eventable"
)

// Listener is implemented by every class the offline layer can wake.
// Instances are built by a zero-argument factory and must not do I/O when
// constructed; the work belongs in Handle.
type Listener interface {
	// EventName is the offline event the listener reacts to.
	EventName() string
	// Priority orders listeners of one event, higher first.
	Priority() int
	Handle(ev eventable.Envelope, args ...any) error
}

// EventClass is implemented by offline event types. Wrap binds the generic
// envelope so listeners and callers get the typed event.
//
//	type OrderPlacedEvent struct{ *eventable.Event }
//
//	func (OrderPlacedEvent) EventName() string { return "OrderPlaced" }
//	func (OrderPlacedEvent) Wrap(base *eventable.Event) eventable.Envelope {
//		return &OrderPlacedEvent{Event: base}
//	}
type EventClass interface {
	EventName() string
	Wrap(base *eventable.Event) eventable.Envelope
}

// BaseListener gives embedders the default priority.
type BaseListener struct{}

func (BaseListener) Priority() int { return 0 }

var zlog = zerolog.Nop()

// SetLogger installs the package default logger.
func SetLogger(l zerolog.Logger) { zlog = l }
