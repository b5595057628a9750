package offline

import (
	"fmt"

	"eventcore/internal/eventable"
	"eventcore/internal/index"
)

// Source hands out the loaded listener index. *index.Store implements it.
type Source interface {
	Index() (*index.Index, error)
}

// Events is the entry point for triggering offline events.
type Events struct {
	source  Source
	classes Resolver
	opts    []Option
}

func New(source Source, classes Resolver, opts ...Option) *Events {
	return &Events{source: source, classes: classes, opts: opts}
}

// CreateEvent returns a fresh bridge for name. It fails only when the index
// cannot be loaded.
func (e *Events) CreateEvent(name string) (*Bridge, error) {
	ix, err := e.source.Index()
	if err != nil {
		return nil, err
	}
	return NewBridge(name, ix, e.classes, e.opts...), nil
}

// TriggerOfflineEvent wakes and runs the listeners of name. A nil envelope
// with a nil error means nobody listens, which is a normal outcome.
func (e *Events) TriggerOfflineEvent(name string, args ...any) (eventable.Envelope, error) {
	b, err := e.CreateEvent(name)
	if err != nil {
		return nil, err
	}
	return b.Trigger(args...)
}

// TriggerAs is TriggerOfflineEvent returning the event as T. ok is false when
// the event did not fire.
func TriggerAs[T eventable.Envelope](e *Events, name string, args ...any) (ev T, ok bool, err error) {
	env, err := e.TriggerOfflineEvent(name, args...)
	if err != nil || env == nil {
		return ev, false, err
	}
	typed, isT := env.(T)
	if !isT {
		return ev, false, fmt.Errorf("offline event %q: got %T", name, env)
	}
	return typed, true, nil
}

// Verify instantiates every class named by the index without dispatching and
// returns one error per problem found, in event name order.
func Verify(ix *index.Index, classes Resolver) []error {
	var problems []error
	for _, name := range ix.Broken() {
		problems = append(problems, fmt.Errorf("event %q: listeners indexed without an event class", name))
	}
	for _, name := range ix.EventNames() {
		classID, ok := ix.EventClass(name)
		if !ok {
			continue
		}
		if _, err := resolveEventClass(classes, name, classID); err != nil {
			problems = append(problems, err)
		}
		for _, id := range ix.ListenerClasses(name) {
			if _, err := wakeListener(classes, name, id); err != nil {
				problems = append(problems, err)
			}
		}
	}
	return problems
}
