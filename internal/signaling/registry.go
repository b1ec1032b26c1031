package signaling

import "sort"

// Registry maps room names to the ids of the connections inside them.
//
// It holds ids only, never connections, and it is not safe for concurrent
// use: the Hub owns it and touches it exclusively from its Run goroutine.
type Registry struct {
	// rooms maps a room name to its member connection ids.
	rooms map[string]map[string]struct{}

	// memberOf maps a connection id to the room it is in.
	memberOf map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]struct{}),
		memberOf: make(map[string]string),
	}
}

// Join adds connID to room, creating the room if needed. Joining the room the
// connection is already in is a no-op. A connection is in at most one room, so
// joining a different room moves it.
func (r *Registry) Join(room, connID string) {
	if current, ok := r.memberOf[connID]; ok {
		if current == room {
			return
		}
		r.Leave(connID)
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connID] = struct{}{}
	r.memberOf[connID] = room
}

// Leave removes connID from its room and returns that room. The room is
// deleted once its last member leaves. ok is false if the connection was not
// in any room.
func (r *Registry) Leave(connID string) (room string, ok bool) {
	room, ok = r.memberOf[connID]
	if !ok {
		return "", false
	}
	delete(r.memberOf, connID)

	members := r.rooms[room]
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return room, true
}

// MembersExcept returns the members of room other than connID, sorted. An
// unknown room has no members.
func (r *Registry) MembersExcept(room, connID string) []string {
	members := r.rooms[room]
	out := make([]string, 0, len(members))
	for id := range members {
		if id != connID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// AllMembers returns every member of room, sorted.
func (r *Registry) AllMembers(room string) []string {
	return r.MembersExcept(room, "")
}

// RoomOf reports the room connID is in.
func (r *Registry) RoomOf(connID string) (string, bool) {
	room, ok := r.memberOf[connID]
	return room, ok
}

// Rooms lists the names of all non-empty rooms, sorted.
func (r *Registry) Rooms() []string {
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}
