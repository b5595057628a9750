package offline

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventcore/internal/eventable"
	"eventcore/internal/metrics"
)

// Lookup is the read side of the listener index. *index.Index implements it.
type Lookup interface {
	EventClass(name string) (string, bool)
	ListenerClasses(name string) []string
}

// Option configures bridges and the Events facade.
type Option func(*settings)

type settings struct {
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = &l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		l := zlog
		s.log = &l
	}
	return s
}

// Bridge triggers one offline event once. The first Trigger wakes the
// listeners and dispatches; later calls return the cached outcome without
// running anything again. Use a new Bridge for a new trigger.
type Bridge struct {
	name    string
	lookup  Lookup
	classes Resolver
	settings

	triggered bool
	result    eventable.Envelope
	err       error
}

func NewBridge(name string, lookup Lookup, classes Resolver, opts ...Option) *Bridge {
	return &Bridge{name: name, lookup: lookup, classes: classes, settings: newSettings(opts)}
}

func (b *Bridge) Name() string { return b.name }

// Triggered reports whether Trigger has run.
func (b *Bridge) Triggered() bool { return b.triggered }

// Trigger wakes and runs the listeners of the event. It returns nil when the
// event has no event class or no listeners; otherwise the envelope, typed as
// the indexed event class.
func (b *Bridge) Trigger(args ...any) (eventable.Envelope, error) {
	if b.triggered {
		b.log.Debug().Str("event", b.name).Msg("offline event already triggered, returning cached result")
		return b.result, b.err
	}
	b.triggered = true
	b.result, b.err = b.dispatch(args)
	return b.result, b.err
}

func (b *Bridge) dispatch(args []any) (eventable.Envelope, error) {
	classID, ok := b.lookup.EventClass(b.name)
	ids := b.lookup.ListenerClasses(b.name)
	if !ok || len(ids) == 0 {
		b.log.Debug().Str("event", b.name).Bool("event_class", ok).Int("listeners", len(ids)).Msg("offline event has no takers")
		b.metrics.Trigger(metrics.LayerOffline, metrics.OutcomeNoListeners)
		return nil, nil
	}

	eventClass, err := resolveEventClass(b.classes, b.name, classID)
	if err != nil {
		return nil, err
	}
	woken := make([]wokenListener, 0, len(ids))
	for _, id := range ids {
		l, err := wakeListener(b.classes, b.name, id)
		if err != nil {
			return nil, err
		}
		b.metrics.Woken()
		b.log.Debug().Str("event", b.name).Str("listener", id).Int("priority", l.Priority()).Msg("listener woken")
		woken = append(woken, wokenListener{id: id, listener: l})
	}
	sortListeners(woken)

	// A private name keeps these callbacks apart from any live listener.
	synthetic := "offline:" + b.name + ":" + uuid.NewString()
	d := eventable.New(
		eventable.WithLogIdentifier("OfflineEvent["+b.name+"]"),
		eventable.WithLogger(*b.log),
		eventable.WithMetrics(b.metrics, metrics.LayerOffline),
	)
	for _, w := range woken {
		l := w.listener
		d.AddListenerFrom(synthetic, w.id, func(ev eventable.Envelope, args ...any) error {
			return l.Handle(ev, args...)
		})
	}
	return d.TriggerWith(synthetic, eventable.TriggerOptions{Class: eventClass.Wrap, Label: b.name}, args...)
}
