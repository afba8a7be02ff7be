// internal/hub/rooms.go
package hub

import (
	"sort"
	"sync"

	"github.com/erilali/roomchat/internal/message"
)

// RoomRegistry maps room names to member usernames. Members are names, not
// clients, so a disconnecting client can linger in a room briefly; fan-out
// skips names that are no longer registered. Rooms are created on first
// join and are never deleted, even when they become empty.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]map[string]struct{})}
}

// JoinOrCreate adds username to room, creating the room if needed. Joining
// twice is a no-op. It reports whether the room was created.
func (r *RoomRegistry) JoinOrCreate(room, username string) (created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
		created = true
	}
	members[username] = struct{}{}
	return created
}

// ListRooms returns every room name, sorted.
func (r *RoomRegistry) ListRooms() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// ListMembers returns the sorted members of room; ok is false when the room
// does not exist.
func (r *RoomRegistry) ListMembers(room string) (members []string, ok bool) {
	r.mu.RLock()
	set, ok := r.rooms[room]
	if ok {
		members = sortedKeys(set)
	}
	r.mu.RUnlock()
	return members, ok
}

func (r *RoomRegistry) IsMember(room, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][username]
	return ok
}

// Leave removes username from room and reports whether it was a member.
// Absent rooms and non-members are a no-op.
func (r *RoomRegistry) Leave(room, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, member := members[username]; !member {
		return false
	}
	delete(members, username)
	return true
}

// RemoveUserEverywhere drops username from every room and returns the rooms
// it was removed from, sorted.
func (r *RoomRegistry) RemoveUserEverywhere(username string) []string {
	r.mu.Lock()
	var left []string
	for name, members := range r.rooms {
		if _, ok := members[username]; ok {
			delete(members, username)
			left = append(left, name)
		}
	}
	r.mu.Unlock()
	sort.Strings(left)
	return left
}

func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Summaries describes every room and its members, ordered by name.
func (r *RoomRegistry) Summaries() []message.RoomSummary {
	r.mu.RLock()
	out := make([]message.RoomSummary, 0, len(r.rooms))
	for name, members := range r.rooms {
		out = append(out, message.RoomSummary{Name: name, Members: sortedKeys(members), Count: len(members)})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
