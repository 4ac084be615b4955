package rooms

import (
	"sync"
	"time"

	"eyespy/internal/users"
	"eyespy/internal/wshub"
)

type Room struct {
	Code      string
	Users     *users.Store
	Hub       *wshub.Hub
	CreatedAt time.Time

	// mu serializes every mutate-then-broadcast unit for this room, so a
	// snapshot always reflects exactly the mutation that triggered it.
	mu         sync.Mutex
	lastActive time.Time
}

// Snapshot is the full room state sent to observers.
type Snapshot struct {
	Code  string                `json:"code"`
	Users map[string]users.User `json:"users"`
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{
		Code:  r.Code,
		Users: r.Users.Snapshot(),
	}
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}
