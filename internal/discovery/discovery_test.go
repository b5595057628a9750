package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcore/internal/errs"
	"eventcore/internal/eventable"
	"eventcore/internal/index"
	"eventcore/internal/metrics"
	"eventcore/internal/offline"
	"eventcore/internal/registry"
	"eventcore/pkg/types"
)

type eventClass struct {
	*eventable.Event
	name string
}

func (e eventClass) EventName() string { return e.name }

func (e eventClass) Wrap(base *eventable.Event) eventable.Envelope { return base }

type listener struct {
	offline.BaseListener
	event string
}

func (l listener) EventName() string { return l.event }

func (listener) Handle(eventable.Envelope, ...any) error { return nil }

func ev(name string) registry.Factory {
	return func() any { return eventClass{name: name} }
}

func ls(event string) registry.Factory {
	return func() any { return listener{event: event} }
}

func shopCatalog() *registry.Catalog {
	c := registry.NewCatalog()
	c.MustRegister("app/shop", "OrderPlacedEvent", ev("OrderPlaced"))
	c.MustRegister("app/shop", "SendReceiptListener", ls("OrderPlaced"))
	c.MustRegister("app/users", "UserCreatedEvent", ev("UserCreated"))
	c.MustRegister("app/users", "WelcomeListener", ls("UserCreated"))
	c.MustRegister("app/users", "AuditListener", ls("UserCreated"))
	c.MustRegister("app/misc", "UnusedEvent", ev("Unused"))
	c.MustRegister("app/misc", "Clock", func() any { return time.Time{} })
	return c
}

func TestScan_GroupsListenersByEventName(t *testing.T) {
	s := &Scanner{Catalog: shopCatalog()}
	a, rep, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendReceiptListener"}},
		"UserCreated": {EventClass: "UserCreatedEvent", ListenerClasses: []string{"AuditListener", "WelcomeListener"}},
		"Unused":      {EventClass: "UnusedEvent", ListenerClasses: []string{}},
	}, a)
	assert.Equal(t, 7, rep.Scanned)
	assert.Equal(t, 3, rep.Events)
	assert.Equal(t, 3, rep.Listeners)
	assert.Empty(t, rep.Orphans)
}

func TestScan_Locations(t *testing.T) {
	s := &Scanner{Catalog: shopCatalog(), Locations: []string{"app/shop"}}
	a, _, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"OrderPlaced"}, index.New(a).EventNames())
}

func TestScan_DuplicateEventClassIsConfigError(t *testing.T) {
	c := shopCatalog()
	c.MustRegister("app/legacy", "LegacyOrderPlacedEvent", ev("OrderPlaced"))
	_, _, err := (&Scanner{Catalog: c}).Scan()
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
	assert.Contains(t, err.Error(), "LegacyOrderPlacedEvent")
	assert.Contains(t, err.Error(), "OrderPlacedEvent")
}

func TestScan_OrphanListeners(t *testing.T) {
	c := shopCatalog()
	c.MustRegister("app/shop", "RefundListener", ls("OrderRefunded"))

	a, rep, err := (&Scanner{Catalog: c}).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"OrderRefunded"}, rep.Orphans)
	assert.Equal(t, types.IndexEntry{EventClass: "", ListenerClasses: []string{"RefundListener"}}, a["OrderRefunded"])

	_, _, err = (&Scanner{Catalog: c, Strict: true}).Scan()
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestScan_EmptyEventNameIsConfigError(t *testing.T) {
	c := registry.NewCatalog()
	c.MustRegister("x", "Nameless", ls(""))
	_, _, err := (&Scanner{Catalog: c}).Scan()
	assert.True(t, errs.IsConfig(err))
}

func TestRebuildIndex_WritesThenSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listeners.json")
	m := metrics.New(nil)
	s := &Scanner{Catalog: shopCatalog(), Metrics: m}

	rep, err := s.RebuildIndex(path, index.FormatJSON)
	require.NoError(t, err)
	assert.False(t, rep.Unchanged)
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, len(first), rep.Bytes)

	rep, err = s.RebuildIndex(path, index.FormatJSON)
	require.NoError(t, err)
	assert.True(t, rep.Unchanged)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds().WithLabelValues(metrics.RebuildWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rebuilds().WithLabelValues(metrics.RebuildUnchanged)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Entries()))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DiscoveredClasses().WithLabelValues("listener")))

	ix, err := index.Load(path, index.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"AuditListener", "WelcomeListener"}, ix.ListenerClasses("UserCreated"))
}

func TestRebuildIndex_ReplacesStaleArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listeners.cbor")
	stale, err := index.Encode(types.Artifact{"Gone": {EventClass: "GoneEvent"}}, index.FormatCBOR)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, stale, 0o600))

	rep, err := (&Scanner{Catalog: shopCatalog()}).RebuildIndex(path, index.FormatCBOR)
	require.NoError(t, err)
	assert.False(t, rep.Unchanged)

	ix, err := index.Load(path, index.FormatCBOR)
	require.NoError(t, err)
	_, ok := ix.EventClass("Gone")
	assert.False(t, ok)
	cls, ok := ix.EventClass("OrderPlaced")
	assert.True(t, ok)
	assert.Equal(t, "OrderPlacedEvent", cls)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestRebuildIndex_StrictFailureKeepsPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listeners.json")
	c := shopCatalog()
	s := &Scanner{Catalog: c, Strict: true}
	_, err := s.RebuildIndex(path, index.FormatJSON)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	c.MustRegister("app/shop", "RefundListener", ls("OrderRefunded"))
	_, err = s.RebuildIndex(path, index.FormatJSON)
	require.Error(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
