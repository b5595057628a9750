package eventable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(Envelope, ...any) error { return nil }

func TestRegistry_AddKeepsOrderAndIDs(t *testing.T) {
	r := NewRegistry(nil)
	a := r.Add("saved", "saved", noop, "Order", "")
	b := r.Add("saved", "saved", noop, "Order", "audit")
	c := r.Add("deleted", "deleted", noop, "Order", "")

	assert.Equal(t, int64(1), a.ID())
	assert.Equal(t, int64(2), b.ID())
	assert.Equal(t, int64(3), c.ID())
	assert.Equal(t, []*Listener{a, b}, r.Listeners("saved"))
	assert.Equal(t, 2, r.Count("saved"))
	assert.True(t, r.Has("deleted"))
	assert.False(t, r.Has("missing"))
	assert.Nil(t, r.Listeners("missing"))
	assert.Equal(t, "audit", b.Source())
	assert.Equal(t, "Order", b.Subject())
}

func TestRegistry_RemoveIsIDBasedAndSilent(t *testing.T) {
	r := NewRegistry(nil)
	a := r.Add("saved", "saved", noop, "s", "")
	b := r.Add("saved", "saved", noop, "s", "")
	snapshot := r.Listeners("saved")

	require.True(t, r.Remove(a))
	assert.False(t, r.Remove(a), "second removal is a no-op")
	assert.False(t, r.Remove(nil))
	assert.Equal(t, []*Listener{b}, r.Listeners("saved"))
	assert.Len(t, snapshot, 2, "earlier snapshots are not mutated")

	require.True(t, r.Remove(b))
	assert.False(t, r.Has("saved"))
}

func TestRegistry_RemoveForeignListener(t *testing.T) {
	r1 := NewRegistry(nil)
	r2 := NewRegistry(nil)
	r1.Add("x", "x", noop, "s", "")
	foreign := r2.Add("x", "x", noop, "s", "")
	foreign.id = 99
	assert.False(t, r1.Remove(foreign))
	assert.Equal(t, 1, r1.Count("x"))
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry(nil)
	r.Add("a", "a", noop, "s", "")
	r.Add("a", "a", noop, "s", "")
	r.Add("b", "b", noop, "s", "")
	assert.Equal(t, 2, r.Clear("a"))
	assert.Equal(t, 0, r.Clear("a"))
	assert.Equal(t, 1, r.ClearAll())
	assert.False(t, r.Has("b"))
}

func TestSequence_SharedAndNeverReused(t *testing.T) {
	seq := &Sequence{}
	r1 := NewRegistry(seq)
	r2 := NewRegistry(seq)
	a := r1.Add("x", "x", noop, "s", "")
	r1.Remove(a)
	b := r2.Add("x", "x", noop, "s", "")
	c := r1.Add("x", "x", noop, "s", "")
	assert.Equal(t, []int64{1, 2, 3}, []int64{a.ID(), b.ID(), c.ID()})
}
