package offline

import (
	"fmt"
	"sort"
	"strings"

	"eventcore/internal/errs"
	"eventcore/internal/registry"
)

// Resolver turns class ids into factories. *registry.Catalog implements it.
type Resolver interface {
	Lookup(id string) (registry.Class, bool)
	Suggest(id string) []string
}

// wokenListener is a listener instance together with the id it sorts by.
type wokenListener struct {
	id       string
	listener Listener
}

func unknownClass(op, id string, classes Resolver) error {
	msg := "class is not registered"
	if s := classes.Suggest(id); len(s) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
	}
	return errs.Configf(op, id, "%s", msg)
}

// resolveEventClass instantiates the event class id and checks it is bound
// to event.
func resolveEventClass(classes Resolver, event, id string) (EventClass, error) {
	cls, ok := classes.Lookup(id)
	if !ok {
		return nil, unknownClass("resolve event class", id, classes)
	}
	ec, ok := cls.New().(EventClass)
	if !ok {
		return nil, errs.Configf("resolve event class", id, "does not implement offline.EventClass")
	}
	if got := ec.EventName(); got != event {
		return nil, errs.Configf("resolve event class", id, "is bound to %q, index says %q; rebuild the index", got, event)
	}
	return ec, nil
}

// wakeListener instantiates the listener class id and checks it targets event.
func wakeListener(classes Resolver, event, id string) (Listener, error) {
	cls, ok := classes.Lookup(id)
	if !ok {
		return nil, unknownClass("wake listener", id, classes)
	}
	l, ok := cls.New().(Listener)
	if !ok {
		return nil, errs.Configf("wake listener", id, "does not implement offline.Listener")
	}
	if got := l.EventName(); got != event {
		return nil, errs.Configf("wake listener", id, "listens to %q, index says %q; rebuild the index", got, event)
	}
	return l, nil
}

// sortListeners orders by priority descending, then class id ascending.
func sortListeners(ls []wokenListener) {
	sort.SliceStable(ls, func(i, j int) bool {
		pi, pj := ls[i].listener.Priority(), ls[j].listener.Priority()
		if pi != pj {
			return pi > pj
		}
		return ls[i].id < ls[j].id
	})
}
