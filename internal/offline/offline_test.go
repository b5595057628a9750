package offline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcore/internal/errs"
	"eventcore/internal/eventable"
	"eventcore/internal/index"
	"eventcore/internal/metrics"
	"eventcore/internal/registry"
	"eventcore/pkg/types"
)

type OrderPlacedEvent struct{ *eventable.Event }

func (OrderPlacedEvent) EventName() string { return "OrderPlaced" }

func (OrderPlacedEvent) Wrap(base *eventable.Event) eventable.Envelope {
	return &OrderPlacedEvent{Event: base}
}

func (e *OrderPlacedEvent) OrderID() string {
	id, _ := e.Arg(0).(string)
	return id
}

type UnusedEvent struct{ *eventable.Event }

func (UnusedEvent) EventName() string { return "Unused" }

func (UnusedEvent) Wrap(base *eventable.Event) eventable.Envelope { return &UnusedEvent{Event: base} }

// testListener records its id into a shared log when handled.
type testListener struct {
	BaseListener
	id       string
	event    string
	priority int
	log      *[]string
	handle   func(ev eventable.Envelope, args ...any) error
}

func (l *testListener) EventName() string { return l.event }

func (l *testListener) Priority() int { return l.priority }

func (l *testListener) Handle(ev eventable.Envelope, args ...any) error {
	*l.log = append(*l.log, l.id)
	if l.handle != nil {
		return l.handle(ev, args...)
	}
	return nil
}

// fixture is a catalog plus counters of how often each class was built.
type fixture struct {
	catalog *registry.Catalog
	wakes   map[string]int
	calls   []string
}

func newFixture() *fixture {
	f := &fixture{catalog: registry.NewCatalog(), wakes: map[string]int{}}
	f.catalog.MustRegister("shop", "OrderPlacedEvent", func() any { return &OrderPlacedEvent{} })
	f.catalog.MustRegister("misc", "UnusedEvent", func() any { return &UnusedEvent{} })
	return f
}

func (f *fixture) listener(id, event string, priority int, handle func(eventable.Envelope, ...any) error) {
	f.catalog.MustRegister("shop", id, func() any {
		f.wakes[id]++
		return &testListener{id: id, event: event, priority: priority, log: &f.calls, handle: handle}
	})
}

func (f *fixture) events(a types.Artifact, opts ...Option) *Events {
	return New(index.Preloaded(index.New(a)), f.catalog, opts...)
}

func TestTriggerOfflineEvent_OrderPlacedScenario(t *testing.T) {
	f := newFixture()
	f.listener("SendReceiptListener", "OrderPlaced", 0, nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendReceiptListener"}},
	})

	env, err := ev.TriggerOfflineEvent("OrderPlaced", "o-17")
	require.NoError(t, err)
	require.NotNil(t, env)
	typed, ok := env.(*OrderPlacedEvent)
	require.True(t, ok, "got %T", env)
	assert.Equal(t, "o-17", typed.OrderID())
	assert.Equal(t, "OrderPlaced", typed.Name(), "envelope carries the real event name")
	assert.Equal(t, 1, f.wakes["SendReceiptListener"])
	assert.Equal(t, []string{"SendReceiptListener"}, f.calls)
}

func TestTriggerOfflineEvent_NoListenersWakesNothing(t *testing.T) {
	f := newFixture()
	f.listener("StrayListener", "Unused", 0, nil)
	m := metrics.New(nil)
	ev := f.events(types.Artifact{
		"Unused": {EventClass: "UnusedEvent", ListenerClasses: []string{}},
	}, WithMetrics(m))

	env, err := ev.TriggerOfflineEvent("Unused")
	require.NoError(t, err)
	assert.Nil(t, env)
	assert.Empty(t, f.wakes)

	env, err = ev.TriggerOfflineEvent("NotIndexed")
	require.NoError(t, err)
	assert.Nil(t, env)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Triggers().WithLabelValues(metrics.LayerOffline, metrics.OutcomeNoListeners)))
}

func TestTriggerOfflineEvent_ListenersWithoutEventClassFailClosed(t *testing.T) {
	f := newFixture()
	f.listener("OrphanListener", "Orphan", 0, nil)
	ev := f.events(types.Artifact{"Orphan": {EventClass: "", ListenerClasses: []string{"OrphanListener"}}})
	env, err := ev.TriggerOfflineEvent("Orphan")
	require.NoError(t, err)
	assert.Nil(t, env)
	assert.Empty(t, f.wakes)
}

func TestTrigger_PriorityThenIDOrder(t *testing.T) {
	f := newFixture()
	f.listener("A", "OrderPlaced", 0, nil)
	f.listener("B", "OrderPlaced", 5, nil)
	f.listener("C", "OrderPlaced", 0, nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"A", "B", "C"}},
	})
	_, err := ev.TriggerOfflineEvent("OrderPlaced")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, f.calls)
}

func TestTrigger_NegativeAndEqualPriorities(t *testing.T) {
	f := newFixture()
	f.listener("Z", "OrderPlaced", 3, nil)
	f.listener("Y", "OrderPlaced", 3, nil)
	f.listener("X", "OrderPlaced", -1, nil)
	f.listener("W", "OrderPlaced", 0, nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"W", "X", "Y", "Z"}},
	})
	_, err := ev.TriggerOfflineEvent("OrderPlaced")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "Z", "W", "X"}, f.calls)
}

func TestTrigger_RepeatedListenerIDRunsOnce(t *testing.T) {
	f := newFixture()
	f.listener("A", "OrderPlaced", 0, nil)
	a, err := index.Decode([]byte(`{"OrderPlaced":{"eventClass":"OrderPlacedEvent","listenerClasses":["A","A"]}}`), index.FormatJSON)
	require.NoError(t, err)
	ev := f.events(a)

	_, err = ev.TriggerOfflineEvent("OrderPlaced", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, f.calls)
	assert.Equal(t, 1, f.wakes["A"])
}

func TestBridge_TriggerIsIdempotent(t *testing.T) {
	f := newFixture()
	f.listener("SendReceiptListener", "OrderPlaced", 0, nil)
	ix := index.New(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendReceiptListener"}},
	})
	b := NewBridge("OrderPlaced", ix, f.catalog)
	assert.False(t, b.Triggered())

	first, err := b.Trigger("o-1")
	require.NoError(t, err)
	second, err := b.Trigger("o-2")
	require.NoError(t, err)
	assert.True(t, b.Triggered())
	assert.Same(t, first, second)
	assert.Equal(t, []string{"SendReceiptListener"}, f.calls)
	assert.Equal(t, 1, f.wakes["SendReceiptListener"])
	assert.Equal(t, "o-1", second.(*OrderPlacedEvent).OrderID())

	// a fresh bridge triggers again with fresh listener instances
	third, err := NewBridge("OrderPlaced", ix, f.catalog).Trigger("o-3")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, f.wakes["SendReceiptListener"])
}

func TestTrigger_CancellationStopsLowerPriority(t *testing.T) {
	f := newFixture()
	f.listener("Guard", "OrderPlaced", 10, func(ev eventable.Envelope, _ ...any) error {
		return ev.Cancel("fraud")
	})
	f.listener("Mailer", "OrderPlaced", 0, nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"Guard", "Mailer"}},
	})
	env, err := ev.TriggerOfflineEvent("OrderPlaced")
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.True(t, env.IsCancelled())
	assert.Equal(t, "fraud", env.CancelReason())
	assert.Equal(t, "Guard", env.SelectedListener().Source())
	assert.Equal(t, []string{"Guard"}, f.calls)
}

func TestBridge_ListenerErrorIsCached(t *testing.T) {
	f := newFixture()
	boom := errors.New("smtp down")
	f.listener("Mailer", "OrderPlaced", 0, func(eventable.Envelope, ...any) error { return boom })
	ix := index.New(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"Mailer"}},
	})
	b := NewBridge("OrderPlaced", ix, f.catalog)
	env, err := b.Trigger()
	assert.Nil(t, env)
	assert.Same(t, boom, err)
	_, err = b.Trigger()
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"Mailer"}, f.calls)
}

func TestTrigger_ConfigErrors(t *testing.T) {
	f := newFixture()
	f.catalog.MustRegister("shop", "NotAListener", func() any { return struct{}{} })
	f.listener("WrongEventListener", "UserCreated", 0, nil)
	f.listener("SendReceiptListener", "OrderPlaced", 0, nil)

	cases := map[string]types.IndexEntry{
		"unknown listener": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendRecieptListener"}},
		"not a listener":   {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"NotAListener"}},
		"stale listener":   {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"WrongEventListener"}},
		"unknown event":    {EventClass: "OrderPlaceEvent", ListenerClasses: []string{"SendReceiptListener"}},
		"not an event":     {EventClass: "SendReceiptListener", ListenerClasses: []string{"SendReceiptListener"}},
		"stale event":      {EventClass: "UnusedEvent", ListenerClasses: []string{"SendReceiptListener"}},
	}
	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			ev := f.events(types.Artifact{"OrderPlaced": entry})
			env, err := ev.TriggerOfflineEvent("OrderPlaced")
			assert.Nil(t, env)
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), "got %T: %v", err, err)
		})
	}

	ev := f.events(types.Artifact{"OrderPlaced": cases["unknown listener"]})
	_, err := ev.TriggerOfflineEvent("OrderPlaced")
	assert.Contains(t, err.Error(), "did you mean SendReceiptListener")
}

func TestEvents_IndexLoadErrorSurfaces(t *testing.T) {
	f := newFixture()
	store := index.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	ev := New(store, f.catalog)
	env, err := ev.TriggerOfflineEvent("OrderPlaced")
	assert.Nil(t, env)
	assert.True(t, errs.IsConfig(err))
	_, err = ev.CreateEvent("OrderPlaced")
	assert.True(t, errs.IsConfig(err))
}

func TestTriggerAs(t *testing.T) {
	f := newFixture()
	f.listener("SendReceiptListener", "OrderPlaced", 0, nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendReceiptListener"}},
		"Unused":      {EventClass: "UnusedEvent", ListenerClasses: []string{}},
	})

	typed, ok, err := TriggerAs[*OrderPlacedEvent](ev, "OrderPlaced", "o-9")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "o-9", typed.OrderID())

	_, ok, err = TriggerAs[*OrderPlacedEvent](ev, "Unused")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = TriggerAs[*UnusedEvent](ev, "OrderPlaced")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTrigger_OfflineMetrics(t *testing.T) {
	f := newFixture()
	f.listener("A", "OrderPlaced", 0, nil)
	f.listener("B", "OrderPlaced", 0, nil)
	m := metrics.New(nil)
	ev := f.events(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"A", "B"}},
	}, WithMetrics(m))
	_, err := ev.TriggerOfflineEvent("OrderPlaced")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Wakes()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invocations().WithLabelValues(metrics.LayerOffline)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Triggers().WithLabelValues(metrics.LayerOffline, metrics.OutcomeDispatched)))
}

func TestVerify(t *testing.T) {
	f := newFixture()
	f.listener("SendReceiptListener", "OrderPlaced", 0, nil)
	good := index.New(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"SendReceiptListener"}},
		"Unused":      {EventClass: "UnusedEvent", ListenerClasses: []string{}},
	})
	assert.Empty(t, Verify(good, f.catalog))
	assert.Empty(t, f.calls, "verify never dispatches")

	bad := index.New(types.Artifact{
		"OrderPlaced": {EventClass: "OrderPlacedEvent", ListenerClasses: []string{"Ghost", "SendReceiptListener"}},
		"Orphan":      {EventClass: "", ListenerClasses: []string{"SendReceiptListener"}},
		"Lost":        {EventClass: "LostEvent", ListenerClasses: []string{}},
	})
	problems := Verify(bad, f.catalog)
	assert.Len(t, problems, 3)
}
