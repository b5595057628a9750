// Package discovery builds the listener index. It instantiates every class
// registered in the configured catalog locations, keeps the ones that are
// offline event classes or listeners, and groups the listeners under the
// event class that carries the same event name.
package discovery

import (
	"bytes"
	"errors"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"eventcore/internal/errs"
	"eventcore/internal/index"
	"eventcore/internal/metrics"
	"eventcore/internal/offline"
	"eventcore/internal/registry"
	"eventcore/pkg/types"
)

var zlog = zerolog.Nop()

// SetLogger installs the package default logger.
func SetLogger(l zerolog.Logger) { zlog = l }

// Report summarises one scan.
type Report struct {
	Scanned   int
	Events    int
	Listeners int
	// Orphans are event names that have listeners but no event class.
	Orphans []string
	// Unchanged is set by RebuildIndex when the artifact on disk already
	// matched and nothing was written.
	Unchanged bool
	Bytes     int
}

// Scanner discovers offline classes in a catalog.
type Scanner struct {
	Catalog *registry.Catalog
	// Locations limits the scan; empty means every location.
	Locations []string
	// Strict turns orphaned listeners into an error.
	Strict  bool
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
}

func (s *Scanner) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return &zlog
}

// Scan builds the complete artifact from the catalog.
func (s *Scanner) Scan() (types.Artifact, Report, error) {
	log := s.logger()
	var rep Report
	if s.Catalog == nil {
		return nil, rep, errs.Configf("discover", "", "no class catalog configured")
	}

	eventClasses := make(map[string]string)
	listeners := make(map[string][]string)
	for _, cls := range s.Catalog.Classes(s.Locations...) {
		rep.Scanned++
		v := cls.New()
		matched := false
		if ec, ok := v.(offline.EventClass); ok {
			matched = true
			name := ec.EventName()
			if name == "" {
				return nil, rep, errs.Configf("discover", cls.ID, "event class has an empty event name")
			}
			if prev, dup := eventClasses[name]; dup {
				return nil, rep, errs.Configf("discover", name, "event bound to both %s and %s", prev, cls.ID)
			}
			eventClasses[name] = cls.ID
			rep.Events++
		}
		if l, ok := v.(offline.Listener); ok {
			matched = true
			name := l.EventName()
			if name == "" {
				return nil, rep, errs.Configf("discover", cls.ID, "listener has an empty event name")
			}
			listeners[name] = append(listeners[name], cls.ID)
			rep.Listeners++
		}
		if matched {
			log.Debug().Str("class", cls.ID).Str("location", cls.Location).Msg("class discovered")
		}
	}

	a := make(types.Artifact, len(eventClasses))
	for name, id := range eventClasses {
		a[name] = types.IndexEntry{EventClass: id, ListenerClasses: listeners[name]}
	}
	for name, ids := range listeners {
		if _, ok := eventClasses[name]; ok {
			continue
		}
		rep.Orphans = append(rep.Orphans, name)
		a[name] = types.IndexEntry{ListenerClasses: ids}
	}
	sort.Strings(rep.Orphans)
	a = index.Normalize(a)
	for _, name := range rep.Orphans {
		if s.Strict {
			return nil, rep, errs.Configf("discover", name, "listeners %v have no event class", a[name].ListenerClasses)
		}
		log.Warn().Str("event", name).Strs("listeners", a[name].ListenerClasses).Msg("listeners found for an event without an event class")
	}

	s.Metrics.Discovered(rep.Events, rep.Listeners)
	return a, rep, nil
}

// RebuildIndex scans and atomically replaces the artifact at path. When the
// encoded artifact equals what is already on disk the file is left alone.
func (s *Scanner) RebuildIndex(path string, f index.Format) (Report, error) {
	log := s.logger()
	a, rep, err := s.Scan()
	if err != nil {
		s.Metrics.Rebuilt(metrics.RebuildFailed, 0)
		return rep, err
	}
	data, err := index.Encode(a, f)
	if err != nil {
		s.Metrics.Rebuilt(metrics.RebuildFailed, 0)
		return rep, err
	}
	rep.Bytes = len(data)

	current, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(current, data):
		rep.Unchanged = true
		s.Metrics.Rebuilt(metrics.RebuildUnchanged, len(a))
		log.Info().Str("path", path).Int("events", len(a)).Msg("listener index unchanged")
		return rep, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		log.Warn().Err(err).Str("path", path).Msg("cannot read current listener index, replacing it")
	}

	if _, err := index.Replace(path, a, f); err != nil {
		s.Metrics.Rebuilt(metrics.RebuildFailed, 0)
		return rep, errs.Config("index rebuild", path, err)
	}
	s.Metrics.Rebuilt(metrics.RebuildWritten, len(a))
	log.Info().
		Str("path", path).
		Int("events", len(a)).
		Int("listeners", rep.Listeners).
		Int("orphans", len(rep.Orphans)).
		Msg("listener index written")
	return rep, nil
}
