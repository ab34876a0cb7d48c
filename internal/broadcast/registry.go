package broadcast

import "sync"

// Registry tracks which connections are subscribed to which poll. A connection
// belongs to at most one room and empty rooms are removed immediately.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]map[ConnID]Subscriber
	assignments map[ConnID]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]map[ConnID]Subscriber),
		assignments: make(map[ConnID]string),
	}
}

// Subscribe adds sub to the room for pollID, moving it out of any other room.
func (r *Registry) Subscribe(pollID string, sub Subscriber) {
	id := sub.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.assignments[id]; ok {
		if current == pollID {
			return
		}
		r.removeLocked(current, id)
	}

	room, ok := r.rooms[pollID]
	if !ok {
		room = make(map[ConnID]Subscriber)
		r.rooms[pollID] = room
	}
	room[id] = sub
	r.assignments[id] = pollID
}

// Unsubscribe removes sub from its room. It is a no-op for unassigned subscribers.
func (r *Registry) Unsubscribe(sub Subscriber) {
	id := sub.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.assignments[id]; ok {
		r.removeLocked(current, id)
	}
}

func (r *Registry) removeLocked(pollID string, id ConnID) {
	delete(r.assignments, id)
	room := r.rooms[pollID]
	delete(room, id)
	if len(room) == 0 {
		delete(r.rooms, pollID)
	}
}

// MembersOf returns a snapshot of the room's members, nil if there is no room.
func (r *Registry) MembersOf(pollID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[pollID]
	if !ok {
		return nil
	}
	members := make([]Subscriber, 0, len(room))
	for _, sub := range room {
		members = append(members, sub)
	}
	return members
}

func (r *Registry) HasRoom(pollID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[pollID]
	return ok
}

func (r *Registry) RoomOf(id ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pollID, ok := r.assignments[id]
	return pollID, ok
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assignments)
}
