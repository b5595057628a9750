package eventable

import (
	"reflect"

	"github.com/rs/zerolog"

	"eventcore/internal/metrics"
)

const defaultLogIdentifier = "Eventable"

// Option configures an Eventable.
type Option func(*Eventable)

// WithLogIdentifier sets the label used for the subject in log lines.
func WithLogIdentifier(id string) Option {
	return func(e *Eventable) { e.logID = id }
}

// WithTypeNamespace namespaces every event name with the concrete type of v,
// so "saved" on a *Order becomes "saved@Order".
func WithTypeNamespace(v any) Option {
	suffix := "@" + typeName(v)
	return func(e *Eventable) {
		e.namespace = func(name string) string { return name + suffix }
	}
}

// WithNamespacer replaces the namespacing function. It must be pure.
func WithNamespacer(fn func(name string) string) Option {
	return func(e *Eventable) { e.namespace = fn }
}

// WithSequence shares a listener id sequence between subjects.
func WithSequence(seq *Sequence) Option {
	return func(e *Eventable) { e.seq = seq }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Eventable) { e.log = &l }
}

// WithMetrics records trigger outcomes and listener calls under layer.
func WithMetrics(m *metrics.Metrics, layer string) Option {
	return func(e *Eventable) {
		e.metrics = m
		e.layer = layer
	}
}

// TriggerOptions tune a single TriggerWith call.
type TriggerOptions struct {
	// Class binds the envelope to a typed event class. Nil means the generic *Event.
	Class EventFactory
	// Label is the name exposed by the envelope. Defaults to the trigger name.
	Label string
	// Uncancellable makes Cancel return ErrNotCancellable.
	Uncancellable bool
}

// Eventable is the dispatcher of one subject.
type Eventable struct {
	logID     string
	namespace func(string) string
	seq       *Sequence
	registry  *Registry
	ignored   map[string]struct{}
	disabled  bool
	log       *zerolog.Logger
	metrics   *metrics.Metrics
	layer     string
}

// New returns an Eventable with no listeners. By default event names are not
// namespaced.
func New(opts ...Option) *Eventable {
	e := &Eventable{
		logID:   defaultLogIdentifier,
		ignored: make(map[string]struct{}),
		layer:   metrics.LayerLive,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = NewRegistry(e.seq)
	return e
}

// LogIdentifier is the subject label used in log lines and listener records.
func (e *Eventable) LogIdentifier() string { return e.logID }

// NamespaceEventName maps an event name to its registry key.
func (e *Eventable) NamespaceEventName(name string) string {
	if e.namespace == nil {
		return name
	}
	return e.namespace(name)
}

// AddListener registers cb for name and returns the listener record.
func (e *Eventable) AddListener(name string, cb Callback) *Listener {
	return e.AddListenerFrom(name, "", cb)
}

// AddListenerFrom is AddListener with a source label shown in logs.
func (e *Eventable) AddListenerFrom(name, source string, cb Callback) *Listener {
	if cb == nil {
		panic("eventable: nil callback for event " + name)
	}
	l := e.registry.Add(e.NamespaceEventName(name), name, cb, e.logID, source)
	e.logger().Debug().
		Str("subject", e.logID).
		Str("event", name).
		Int64("listener", l.id).
		Str("source", source).
		Msg("listener added")
	return l
}

// RemoveListener removes l. Unknown or nil listeners are ignored.
func (e *Eventable) RemoveListener(l *Listener) {
	if !e.registry.Remove(l) {
		return
	}
	e.logger().Debug().
		Str("subject", e.logID).
		Str("event", l.eventName).
		Int64("listener", l.id).
		Msg("listener removed")
}

// Listeners returns the listeners for name in registration order.
func (e *Eventable) Listeners(name string) []*Listener {
	return e.registry.Listeners(e.NamespaceEventName(name))
}

func (e *Eventable) CountListeners(name string) int {
	return e.registry.Count(e.NamespaceEventName(name))
}

func (e *Eventable) HasListeners(name string) bool {
	return e.registry.Has(e.NamespaceEventName(name))
}

// ClearListeners removes every listener for name.
func (e *Eventable) ClearListeners(name string) {
	if n := e.registry.Clear(e.NamespaceEventName(name)); n > 0 {
		e.logger().Debug().Str("subject", e.logID).Str("event", name).Int("count", n).Msg("listeners cleared")
	}
}

// ClearAllListeners removes every listener of the subject.
func (e *Eventable) ClearAllListeners() {
	if n := e.registry.ClearAll(); n > 0 {
		e.logger().Debug().Str("subject", e.logID).Int("count", n).Msg("all listeners cleared")
	}
}

// IgnoreEvent vetoes dispatch of name until UnIgnoreEvent is called.
func (e *Eventable) IgnoreEvent(name string) {
	e.ignored[name] = struct{}{}
}

func (e *Eventable) UnIgnoreEvent(name string) {
	delete(e.ignored, name)
}

func (e *Eventable) IsEventIgnored(name string) bool {
	_, ok := e.ignored[name]
	return ok
}

// DisableEvents turns Trigger into a no-op for good.
func (e *Eventable) DisableEvents() {
	e.disabled = true
}

func (e *Eventable) EventsDisabled() bool { return e.disabled }

// Trigger dispatches name with a generic envelope. See TriggerWith.
func (e *Eventable) Trigger(name string, args ...any) (Envelope, error) {
	return e.TriggerWith(name, TriggerOptions{}, args...)
}

// TriggerWith dispatches name to its listeners in registration order.
//
// It returns nil, nil without building an envelope when events are disabled,
// name is ignored or nobody listens. A listener error aborts the loop and is
// returned as is, with a nil envelope. Otherwise the envelope is returned
// after the last listener ran or the first one cancelled it.
func (e *Eventable) TriggerWith(name string, opts TriggerOptions, args ...any) (Envelope, error) {
	log := e.logger()
	if e.disabled {
		log.Debug().Str("subject", e.logID).Str("event", name).Msg("events disabled, skipping")
		e.metrics.Trigger(e.layer, metrics.OutcomeDisabled)
		return nil, nil
	}
	if e.IsEventIgnored(name) {
		log.Debug().Str("subject", e.logID).Str("event", name).Msg("event ignored")
		e.metrics.Trigger(e.layer, metrics.OutcomeIgnored)
		return nil, nil
	}
	listeners := e.registry.Listeners(e.NamespaceEventName(name))
	if len(listeners) == 0 {
		e.metrics.Trigger(e.layer, metrics.OutcomeNoListeners)
		return nil, nil
	}

	label := opts.Label
	if label == "" {
		label = name
	}
	base := NewEvent(label, args)
	base.cancellable = !opts.Uncancellable
	var env Envelope = base
	if opts.Class != nil {
		if typed := opts.Class(base); typed != nil {
			env = typed
		}
	}
	if err := base.start(); err != nil {
		return nil, err
	}

	log.Debug().Str("subject", e.logID).Str("event", label).Int("listeners", len(listeners)).Msg("triggering event")
	outcome := metrics.OutcomeDispatched
	for _, l := range listeners {
		base.selected = l
		e.metrics.Invoked(e.layer)
		if err := l.callback(env, base.Args()...); err != nil {
			log.Debug().Err(err).Str("subject", e.logID).Str("event", label).Int64("listener", l.id).Msg("listener failed")
			e.metrics.Trigger(e.layer, metrics.OutcomeFailed)
			return nil, err
		}
		if base.cancelled {
			log.Info().
				Str("subject", e.logID).
				Str("event", label).
				Int64("listener", l.id).
				Str("source", l.source).
				Str("reason", base.cancelReason).
				Msg("event cancelled by listener")
			outcome = metrics.OutcomeCancelled
			break
		}
	}
	base.stop()
	e.metrics.Trigger(e.layer, outcome)
	return env, nil
}

func (e *Eventable) logger() *zerolog.Logger {
	if e.log != nil {
		return e.log
	}
	return &zlog
}

// typeName returns the bare type name of v, looking through pointers.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
