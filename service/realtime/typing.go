package realtime

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// TypingTracker holds the set of users currently composing in each chat.
// No TTL is enforced: a client that disconnects without sending a stop
// leaves a stale flag until another action clears it. That gap is part of
// the contract and pinned by tests.
type TypingTracker struct {
	mu     sync.RWMutex
	typing map[string]map[string]struct{} // chatID -> userIDs
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[string]map[string]struct{})}
}

func (t *TypingTracker) StartTyping(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.typing[chatID]
	if set == nil {
		set = make(map[string]struct{})
		t.typing[chatID] = set
	}
	set[userID] = struct{}{}
}

func (t *TypingTracker) StopTyping(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set := t.typing[chatID]; set != nil {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.typing, chatID)
		}
	}
}

func (t *TypingTracker) ListTyping(chatID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := lo.Keys(t.typing[chatID])
	sort.Strings(out)
	return out
}

// Clear drops the whole chat entry.
func (t *TypingTracker) Clear(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.typing, chatID)
}
