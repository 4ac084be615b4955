package users

import (
	"sync"
)

// Store holds the users of a single room, keyed by device id.
type Store struct {
	mu    sync.Mutex
	users map[string]User
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]User),
	}
}

// Upsert inserts or overwrites the entry for u.DeviceID.
func (s *Store) Upsert(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.DeviceID] = u
}

// Remove deletes the entry for deviceID. Removing an absent device is a no-op.
func (s *Store) Remove(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, deviceID)
}

func (s *Store) Get(deviceID string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[deviceID]
	return u, ok
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Snapshot returns a copy of the current user mapping.
func (s *Store) Snapshot() map[string]User {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]User, len(s.users))
	for id, u := range s.users {
		snap[id] = u
	}
	return snap
}
