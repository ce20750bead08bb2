package realtime

import (
	"sync"

	"chathub/logger"
)

// Registry tracks live connections, who owns each, and which room topics
// each has joined. It owns the Connection records exclusively; the
// gateway only goes through this API.
//
// Chat rooms are joined only on explicit command. The single auto-join is
// the owner's personal user:<id> room at register time. Joining is
// trusted here: write authorization happens at message-creation time,
// not at join time.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Client            // connID -> client
	rooms  map[string]map[string]*Client // topic -> connID -> client
	joined map[string]map[string]struct{} // connID -> topics, for unregister cleanup
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Client),
		rooms:  make(map[string]map[string]*Client),
		joined: make(map[string]map[string]struct{}),
	}
}

// Register records the connection and auto-joins its owner's user room.
// Registering the same connection ID again is an idempotent overwrite:
// the previous record and its room memberships are dropped first.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[c.ConnID]; exists {
		r.removeLocked(c.ConnID)
	}
	r.conns[c.ConnID] = c
	r.joined[c.ConnID] = make(map[string]struct{})
	if c.UserID != "" {
		r.joinLocked(c, UserTopic(c.UserID))
	}
}

// Unregister drops the connection and all its room memberships. Presence
// and typing state are untouched; reconciling those is the caller's job.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connID)
}

// Join adds the connection to a room topic. Unknown connections and
// repeat joins are no-ops.
func (r *Registry) Join(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	r.joinLocked(c, topic)
}

// Leave removes the membership; leaving a room never joined is a no-op.
func (r *Registry) Leave(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room := r.rooms[topic]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, topic)
		}
	}
	if topics := r.joined[connID]; topics != nil {
		delete(topics, topic)
	}
}

// Broadcast delivers the event to every connection in the room.
// Fire-and-forget: no acknowledgment, no retry, and an empty or unknown
// room is a silent no-op.
func (r *Registry) Broadcast(topic, event string, payload any) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.rooms[topic]))
	for _, c := range r.rooms[topic] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	r.deliver(targets, event, payload)
}

// BroadcastToUser delivers to every connection the user holds, via the
// personal room they were auto-joined to.
func (r *Registry) BroadcastToUser(userID, event string, payload any) {
	r.Broadcast(UserTopic(userID), event, payload)
}

// BroadcastAll delivers to every registered connection regardless of
// rooms; used for global presence updates.
func (r *Registry) BroadcastAll(event string, payload any) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	r.deliver(targets, event, payload)
}

func (r *Registry) deliver(targets []*Client, event string, payload any) {
	if len(targets) == 0 {
		return
	}
	data, err := MarshalEvent(event, payload)
	if err != nil {
		logger.Errorf("marshal %s event: %v", event, err)
		return
	}
	for _, c := range targets {
		if !c.enqueue(data) {
			logger.Warnf("send queue full, dropping %s for conn=%s", event, c.ConnID)
		}
	}
}

func (r *Registry) joinLocked(c *Client, topic string) {
	room := r.rooms[topic]
	if room == nil {
		room = make(map[string]*Client)
		r.rooms[topic] = room
	}
	room[c.ConnID] = c
	if topics := r.joined[c.ConnID]; topics != nil {
		topics[topic] = struct{}{}
	}
}

func (r *Registry) removeLocked(connID string) {
	for topic := range r.joined[connID] {
		if room := r.rooms[topic]; room != nil {
			delete(room, connID)
			if len(room) == 0 {
				delete(r.rooms, topic)
			}
		}
	}
	delete(r.joined, connID)
	delete(r.conns, connID)
}
