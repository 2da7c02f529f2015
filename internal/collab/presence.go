package collab

import (
	"sort"
	"sync"

	"github.com/drawroom/drawroom/internal/protocol"
)

// PresenceManager tracks who is connected to a room. A user with several
// open tabs is listed once.
type PresenceManager struct {
	mu      sync.RWMutex
	members map[string]protocol.Member // userID -> member
	conns   map[string]int             // userID -> open connections
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		members: make(map[string]protocol.Member),
		conns:   make(map[string]int),
	}
}

// Join reports whether this is the user's first connection.
func (pm *PresenceManager) Join(m protocol.Member) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.members[m.UserID] = m
	pm.conns[m.UserID]++
	return pm.conns[m.UserID] == 1
}

// Leave reports whether the user's last connection closed.
func (pm *PresenceManager) Leave(userID string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.conns[userID] == 0 {
		return false
	}
	pm.conns[userID]--
	if pm.conns[userID] > 0 {
		return false
	}
	delete(pm.conns, userID)
	delete(pm.members, userID)
	return true
}

// Members returns the roster ordered by display name.
func (pm *PresenceManager) Members() []protocol.Member {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make([]protocol.Member, 0, len(pm.members))
	for _, m := range pm.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
