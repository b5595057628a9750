package eventable

// Registry stores listeners keyed by namespaced event name, in registration
// order. It owns the id Sequence used for new listeners.
type Registry struct {
	seq       *Sequence
	listeners map[string][]*Listener
}

// NewRegistry returns an empty registry drawing ids from seq. A nil seq gets
// a private sequence.
func NewRegistry(seq *Sequence) *Registry {
	if seq == nil {
		seq = &Sequence{}
	}
	return &Registry{seq: seq, listeners: make(map[string][]*Listener)}
}

// Add appends a listener under the namespaced key and returns it.
func (r *Registry) Add(namespaced, eventName string, cb Callback, subject, source string) *Listener {
	l := &Listener{
		id:         r.seq.Next(),
		eventName:  eventName,
		namespaced: namespaced,
		callback:   cb,
		subject:    subject,
		source:     source,
	}
	r.listeners[namespaced] = append(r.listeners[namespaced], l)
	return l
}

// Remove deletes the listener with l's id. It reports whether anything was
// removed; removing an unknown listener is a no-op.
func (r *Registry) Remove(l *Listener) bool {
	if l == nil {
		return false
	}
	cur, ok := r.listeners[l.namespaced]
	if !ok {
		return false
	}
	// Build a fresh slice so snapshots handed out by Listeners stay intact.
	kept := make([]*Listener, 0, len(cur))
	for _, c := range cur {
		if c.id != l.id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cur) {
		return false
	}
	if len(kept) == 0 {
		delete(r.listeners, l.namespaced)
	} else {
		r.listeners[l.namespaced] = kept
	}
	return true
}

// Listeners returns a copy of the listeners for the key in registration order.
func (r *Registry) Listeners(namespaced string) []*Listener {
	cur := r.listeners[namespaced]
	if len(cur) == 0 {
		return nil
	}
	out := make([]*Listener, len(cur))
	copy(out, cur)
	return out
}

func (r *Registry) Count(namespaced string) int { return len(r.listeners[namespaced]) }

func (r *Registry) Has(namespaced string) bool { return len(r.listeners[namespaced]) > 0 }

// Clear drops every listener under the key and returns how many there were.
func (r *Registry) Clear(namespaced string) int {
	n := len(r.listeners[namespaced])
	delete(r.listeners, namespaced)
	return n
}

// ClearAll drops every listener and returns how many there were.
func (r *Registry) ClearAll() int {
	n := 0
	for _, ls := range r.listeners {
		n += len(ls)
	}
	r.listeners = make(map[string][]*Listener)
	return n
}
