package types

// IndexEntry is the persisted record for one offline event name.
type IndexEntry struct {
	// Class identifier of the event type bound to the name. Empty means the
	// name has listeners but no dispatchable event class.
	// example: OrderPlacedEvent
	EventClass string `json:"eventClass" cbor:"eventClass"`
	// Listener class identifiers, sorted ascending.
	// example: ["SendReceiptListener"]
	ListenerClasses []string `json:"listenerClasses" cbor:"listenerClasses"`
}

// Artifact is the whole listener index: event name -> entry.
type Artifact map[string]IndexEntry

// Clone returns a deep copy of the artifact.
func (a Artifact) Clone() Artifact {
	out := make(Artifact, len(a))
	for name, e := range a {
		ls := make([]string, len(e.ListenerClasses))
		copy(ls, e.ListenerClasses)
		out[name] = IndexEntry{EventClass: e.EventClass, ListenerClasses: ls}
	}
	return out
}
