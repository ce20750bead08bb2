package realtime

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// PresenceTracker holds the online flag per user. Pure in-memory state:
// everyone is offline after a restart until they reconnect.
//
// The flag is last-write-wins per user. A user with two open connections
// who closes one flips to offline even though the other connection is
// still live; known limitation, kept deliberately.
type PresenceTracker struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{online: make(map[string]struct{})}
}

func (p *PresenceTracker) SetOnline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = struct{}{}
}

func (p *PresenceTracker) SetOffline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

func (p *PresenceTracker) GetStatus(userID string) Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.online[userID]; ok {
		return StatusOnline
	}
	return StatusOffline
}

func (p *PresenceTracker) ListOnline() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := lo.Keys(p.online)
	sort.Strings(out)
	return out
}
