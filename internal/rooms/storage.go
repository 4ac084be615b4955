package rooms

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"eyespy/internal/metrics"
	"eyespy/internal/users"
	"eyespy/internal/wshub"
)

// ErrRoomNotFound is returned when an operation references a code absent
// from the registry.
var ErrRoomNotFound = errors.New("room not found")

const sweepInterval = 5 * time.Minute

// Store is the room registry: the sole owner of room state and observer
// sets. Every mutation of a room and the broadcast that reads it back happen
// under that room's lock, so observers never see interleaved updates.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	ttl   time.Duration
}

// NewStore creates an empty registry. Rooms idle longer than ttl with no
// live connections are evicted by a background sweep; ttl 0 disables it.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		rooms: make(map[string]*Room),
		ttl:   ttl,
	}
	if ttl > 0 {
		go s.sweepStale()
	}
	return s
}

// Create registers a new empty room under a freshly generated code.
func (s *Store) Create() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for range 10 {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		now := time.Now()
		room := &Room{
			Code:       code,
			Users:      users.NewStore(),
			Hub:        wshub.NewHub(),
			CreatedAt:  now,
			lastActive: now,
		}
		s.rooms[code] = room
		metrics.RoomsCreated.Inc()
		metrics.ActiveRooms.Set(float64(len(s.rooms)))
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

// ApplyUserUpdate inserts or overwrites the room's entry for u.DeviceID and
// broadcasts the resulting snapshot as one atomic unit.
func (s *Store) ApplyUserUpdate(code string, u users.User) error {
	room := s.Get(code)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Users.Upsert(u)
	room.touch()
	s.broadcastLocked(room)
	return nil
}

// RemoveUser deletes the room's entry for deviceID and broadcasts. Removing
// an absent (or empty) device id still broadcasts the unchanged state.
func (s *Store) RemoveUser(code string, deviceID string) error {
	room := s.Get(code)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Users.Remove(deviceID)
	room.touch()
	s.broadcastLocked(room)
	return nil
}

// RegisterObserver adds the handle to the room's observer set and queues the
// current snapshot for that handle only.
func (s *Store) RegisterObserver(code string, c *wshub.Client) error {
	room := s.Get(code)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Hub.Register(c)
	room.touch()

	data, err := json.Marshal(room.snapshot())
	if err != nil {
		log.Printf("[Registry] Snapshot marshal error: %v\n", err)
		return nil
	}
	room.Hub.Deliver(c.ID, data)
	return nil
}

// UnregisterObserver removes the handle from the room's observer set.
// Idempotent, and a no-op for unknown codes.
func (s *Store) UnregisterObserver(code string, id string) {
	room := s.Get(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.Hub.Unregister(id)
}

// Broadcast delivers the room's current snapshot to every observer.
func (s *Store) Broadcast(code string) error {
	room := s.Get(code)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	s.broadcastLocked(room)
	return nil
}

// broadcastLocked serializes the snapshot and fans it out. Callers must hold
// room.mu.
func (s *Store) broadcastLocked(room *Room) {
	data, err := json.Marshal(room.snapshot())
	if err != nil {
		log.Printf("[Registry] Snapshot marshal error: %v\n", err)
		return
	}
	room.Hub.Broadcast(data)
	metrics.Broadcasts.Inc()
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for code, room := range s.rooms {
			room.mu.Lock()
			idle := now.Sub(room.lastActive) > s.ttl
			empty := room.Users.Count() == 0 && room.Hub.Count() == 0
			room.mu.Unlock()
			if idle && empty {
				log.Printf("[Registry] Evicting stale room %s\n", code)
				delete(s.rooms, code)
			}
		}
		metrics.ActiveRooms.Set(float64(len(s.rooms)))
		s.mu.Unlock()
	}
}
