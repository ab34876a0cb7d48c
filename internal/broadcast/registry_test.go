package broadcast

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SubscribeCreatesRoom(t *testing.T) {
	r := NewRegistry()
	sub := newFakeSubscriber(1)

	r.Subscribe("p1", sub)

	assert.True(t, r.HasRoom("p1"))
	require.Len(t, r.MembersOf("p1"), 1)
	assert.Equal(t, ConnID(1), r.MembersOf("p1")[0].ID())
	room, ok := r.RoomOf(1)
	assert.True(t, ok)
	assert.Equal(t, "p1", room)
}

func TestRegistry_SubscribeIsIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := newFakeSubscriber(1)

	r.Subscribe("p1", sub)
	r.Subscribe("p1", sub)

	assert.Len(t, r.MembersOf("p1"), 1)
	assert.Equal(t, 1, r.MemberCount())
}

func TestRegistry_RejoinMovesToNewRoom(t *testing.T) {
	r := NewRegistry()
	sub := newFakeSubscriber(1)

	r.Subscribe("A", sub)
	r.Subscribe("B", sub)

	assert.False(t, r.HasRoom("A"), "empty room A must be removed")
	assert.Empty(t, r.MembersOf("A"))
	assert.Len(t, r.MembersOf("B"), 1)
	room, _ := r.RoomOf(1)
	assert.Equal(t, "B", room)
}

func TestRegistry_RejoinKeepsOtherMembers(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeSubscriber(1), newFakeSubscriber(2)

	r.Subscribe("A", a)
	r.Subscribe("A", b)
	r.Subscribe("B", a)

	assert.Len(t, r.MembersOf("A"), 1)
	assert.Len(t, r.MembersOf("B"), 1)
	assert.Equal(t, 2, r.RoomCount())
}

func TestRegistry_UnsubscribeRemovesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	sub := newFakeSubscriber(1)

	r.Subscribe("p1", sub)
	r.Unsubscribe(sub)

	assert.False(t, r.HasRoom("p1"))
	assert.Nil(t, r.MembersOf("p1"))
	assert.Equal(t, 0, r.RoomCount())
	assert.Equal(t, 0, r.MemberCount())
	_, ok := r.RoomOf(1)
	assert.False(t, ok)
}

func TestRegistry_UnsubscribeUnassignedIsNoop(t *testing.T) {
	r := NewRegistry()
	other := newFakeSubscriber(2)
	r.Subscribe("p1", other)

	r.Unsubscribe(newFakeSubscriber(1))
	r.Unsubscribe(newFakeSubscriber(1))

	assert.Len(t, r.MembersOf("p1"), 1)
}

func TestRegistry_MembersOfIsSnapshot(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeSubscriber(1), newFakeSubscriber(2)
	r.Subscribe("p1", a)
	r.Subscribe("p1", b)

	members := r.MembersOf("p1")
	r.Unsubscribe(a)
	r.Unsubscribe(b)

	assert.Len(t, members, 2, "snapshot must not change after unsubscribe")
	assert.False(t, r.HasRoom("p1"))
}

// Every observed state must place each subscriber in at most one room and
// contain no empty rooms.
func assertRegistryInvariants(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[ConnID]string)
	for pollID, room := range r.rooms {
		require.NotEmpty(t, room, "room %q is empty but present", pollID)
		for id := range room {
			prev, dup := seen[id]
			require.False(t, dup, "conn %d in rooms %q and %q", id, prev, pollID)
			seen[id] = pollID
			require.Equal(t, pollID, r.assignments[id])
		}
	}
	require.Len(t, r.assignments, len(seen))
}

func TestRegistry_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := NewRegistry()
	subs := make([]*fakeSubscriber, 20)
	for i := range subs {
		subs[i] = newFakeSubscriber(ConnID(i + 1))
	}

	for range 2000 {
		sub := subs[rng.IntN(len(subs))]
		if rng.IntN(3) == 0 {
			r.Unsubscribe(sub)
		} else {
			r.Subscribe(fmt.Sprintf("p%d", rng.IntN(5)), sub)
		}
		assertRegistryInvariants(t, r)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id ConnID) {
			defer wg.Done()
			sub := newFakeSubscriber(id)
			for j := range 100 {
				r.Subscribe(fmt.Sprintf("p%d", j%4), sub)
				_ = r.MembersOf("p0")
				_ = r.HasRoom("p1")
			}
			r.Unsubscribe(sub)
		}(ConnID(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 0, r.RoomCount())
	assert.Equal(t, 0, r.MemberCount())
	assertRegistryInvariants(t, r)
}
