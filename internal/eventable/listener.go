package eventable

import (
	"fmt"
	"sync/atomic"
)

// Callback is the signature every listener implements. ev is the envelope
// built for the current trigger, args are the trigger's positional arguments.
type Callback func(ev Envelope, args ...any) error

// Sequence hands out listener ids. Ids only ever increase and are never reused.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next id, starting at 1.
func (s *Sequence) Next() int64 { return s.last.Add(1) }

// Listener is one registration of a callback for an event name.
type Listener struct {
	id         int64
	eventName  string
	namespaced string
	callback   Callback
	subject    string // log identifier of the owning subject, not a reference to it
	source     string
}

func (l *Listener) ID() int64 { return l.id }

// EventName is the name as the caller wrote it.
func (l *Listener) EventName() string { return l.eventName }

// NamespacedName is the registry key the listener is stored under.
func (l *Listener) NamespacedName() string { return l.namespaced }

// Subject is the log identifier of the subject the listener was added to.
func (l *Listener) Subject() string { return l.subject }

// Source is an optional label naming who registered the listener.
func (l *Listener) Source() string { return l.source }

func (l *Listener) String() string {
	if l.source != "" {
		return fmt.Sprintf("listener #%d (%s) on %s", l.id, l.source, l.eventName)
	}
	return fmt.Sprintf("listener #%d on %s", l.id, l.eventName)
}
