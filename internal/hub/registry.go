// internal/hub/registry.go
package hub

import (
	"errors"
	"sort"
	"sync"
)

// ErrUsernameTaken is returned by Insert when the name is already registered.
var ErrUsernameTaken = errors.New("username already in use")

// ClientRegistry maps usernames to connected clients. Every method is atomic
// with respect to the others.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client)}
}

// Insert registers c under username unless the name is already taken.
func (r *ClientRegistry) Insert(username string, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[username]; exists {
		return ErrUsernameTaken
	}
	r.clients[username] = c
	return nil
}

// Remove deletes username. Removing an absent name is a no-op.
func (r *ClientRegistry) Remove(username string) {
	r.mu.Lock()
	delete(r.clients, username)
	r.mu.Unlock()
}

// Release removes username only while it still belongs to c, and reports
// whether it did. A stale cleanup can never evict a newer owner of the name.
func (r *ClientRegistry) Release(username string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[username]; !ok || current != c {
		return false
	}
	delete(r.clients, username)
	return true
}

func (r *ClientRegistry) Lookup(username string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[username]
	return c, ok
}

// Usernames returns the registered names in sorted order.
func (r *ClientRegistry) Usernames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Snapshot returns the registered clients ordered by username.
func (r *ClientRegistry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	clients := make([]*Client, 0, len(names))
	for _, name := range names {
		clients = append(clients, r.clients[name])
	}
	return clients
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
