// Package index is the persisted listener index of the offline event layer:
// event name -> event class + ordered listener classes.
//
// The index is written by discovery (see Replace) and read everywhere else
// through a Store, which loads the artifact once and memoizes it for the
// process lifetime.
package index

import (
	"sort"

	"github.com/rs/zerolog"

	"eventcore/pkg/types"
)

var zlog = zerolog.Nop()

// SetLogger installs the logger used for load warnings.
func SetLogger(l zerolog.Logger) { zlog = l }

// Index is a loaded, read-only listener index.
type Index struct {
	entries map[string]types.IndexEntry
	// names with listener classes but no event class; they fail closed
	broken map[string]struct{}
}

// New builds an index from an artifact. The artifact is copied and every
// listener list normalized, so a repeated id is indexed once.
func New(a types.Artifact) *Index {
	ix := &Index{entries: make(map[string]types.IndexEntry, len(a)), broken: make(map[string]struct{})}
	for name, e := range Normalize(a) {
		if e.EventClass == "" && len(e.ListenerClasses) > 0 {
			ix.broken[name] = struct{}{}
			zlog.Warn().Str("event", name).Strs("listeners", e.ListenerClasses).Msg("index entry has listeners but no event class, ignoring it")
		}
		ix.entries[name] = e
	}
	return ix
}

// EventClass returns the event class bound to name.
func (ix *Index) EventClass(name string) (string, bool) {
	e, ok := ix.entries[name]
	if !ok || e.EventClass == "" {
		return "", false
	}
	return e.EventClass, true
}

// ListenerClasses returns the listener classes for name, sorted by id. Names
// without an event class report none.
func (ix *Index) ListenerClasses(name string) []string {
	if _, bad := ix.broken[name]; bad {
		return nil
	}
	e, ok := ix.entries[name]
	if !ok || len(e.ListenerClasses) == 0 {
		return nil
	}
	out := make([]string, len(e.ListenerClasses))
	copy(out, e.ListenerClasses)
	return out
}

// EventNames returns every indexed event name, sorted.
func (ix *Index) EventNames() []string {
	names := make([]string, 0, len(ix.entries))
	for n := range ix.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Broken returns the names that fail closed, sorted.
func (ix *Index) Broken() []string {
	names := make([]string, 0, len(ix.broken))
	for n := range ix.broken {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (ix *Index) Len() int { return len(ix.entries) }

// Artifact returns a copy of the underlying artifact.
func (ix *Index) Artifact() types.Artifact {
	return types.Artifact(ix.entries).Clone()
}
