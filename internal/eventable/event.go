package eventable

import "errors"

var (
	// ErrAlreadyStarted is returned when an envelope is dispatched twice.
	ErrAlreadyStarted = errors.New("event already started")
	// ErrNotCancellable is returned by Cancel on events triggered as uncancellable.
	ErrNotCancellable = errors.New("event cannot be cancelled")
)

// Envelope is what listeners receive. *Event implements it, and typed event
// classes get it for free by embedding *Event.
type Envelope interface {
	Name() string
	Args() []any
	Arg(i int) any
	Cancel(reason string) error
	IsCancelled() bool
	CancelReason() string
	IsCancellable() bool
	SelectedListener() *Listener
	Base() *Event
}

// EventFactory binds a generic envelope to a typed event class. The returned
// value must embed base.
type EventFactory func(base *Event) Envelope

// Event is the generic envelope built once per dispatching trigger.
type Event struct {
	name         string
	args         []any
	cancellable  bool
	cancelled    bool
	cancelReason string
	selected     *Listener
	started      bool
	stopped      bool
}

// NewEvent creates an envelope. args is copied.
func NewEvent(name string, args []any) *Event {
	return &Event{name: name, args: cloneArgs(args), cancellable: true}
}

func (e *Event) Name() string { return e.name }

// Args returns a copy of the positional arguments, so changes a listener
// makes to the slice are not seen by later listeners.
func (e *Event) Args() []any { return cloneArgs(e.args) }

// Arg returns the i-th argument or nil when out of range.
func (e *Event) Arg(i int) any {
	if i < 0 || i >= len(e.args) {
		return nil
	}
	return e.args[i]
}

// Cancel stops dispatch once the current listener returns. Cancellation is
// sticky; the first reason wins.
func (e *Event) Cancel(reason string) error {
	if !e.cancellable {
		return ErrNotCancellable
	}
	if !e.cancelled {
		e.cancelled = true
		e.cancelReason = reason
	}
	return nil
}

func (e *Event) IsCancelled() bool { return e.cancelled }
func (e *Event) CancelReason() string { return e.cancelReason }
func (e *Event) IsCancellable() bool { return e.cancellable }
func (e *Event) Base() *Event { return e }
func (e *Event) IsStarted() bool { return e.started }
func (e *Event) IsStopped() bool { return e.stopped }

// SelectedListener is the listener currently (or last) executing.
func (e *Event) SelectedListener() *Listener { return e.selected }

func (e *Event) start() error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	return nil
}

func (e *Event) stop() { e.stopped = true }

func cloneArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}
