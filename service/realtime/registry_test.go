package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type received struct {
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// drain pulls every frame currently queued for the client.
func drain(t *testing.T, c *Client) []received {
	t.Helper()
	var out []received
	for {
		select {
		case raw := <-c.Send:
			var r received
			require.NoError(t, json.Unmarshal(raw, &r))
			out = append(out, r)
		default:
			return out
		}
	}
}

func TestRegistryRoomRouting(t *testing.T) {
	t.Run("should deliver only to connections currently joined", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		b := NewClient("conn-b", "bob", nil, 8)
		r.Register(a)
		r.Register(b)

		r.Join("conn-a", ChatTopic("c1"))
		r.Broadcast(ChatTopic("c1"), EventMessageNew, map[string]string{"id": "m1"})

		got := drain(t, a)
		req.Len(got, 1)
		req.Equal(EventMessageNew, got[0].Event)
		req.Empty(drain(t, b))
	})

	t.Run("should stop delivering after leave", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		r.Register(a)

		r.Join("conn-a", ChatTopic("c1"))
		r.Leave("conn-a", ChatTopic("c1"))
		r.Broadcast(ChatTopic("c1"), EventMessageNew, nil)

		req.Empty(drain(t, a))
	})

	t.Run("should treat an empty room broadcast as a silent no-op", func(t *testing.T) {
		r := NewRegistry()
		require.NotPanics(t, func() {
			r.Broadcast(ChatTopic("nobody-here"), EventMessageNew, nil)
		})
	})

	t.Run("should auto-join the personal user room at register time", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a1 := NewClient("conn-a1", "alice", nil, 8)
		a2 := NewClient("conn-a2", "alice", nil, 8)
		r.Register(a1)
		r.Register(a2)

		r.BroadcastToUser("alice", EventChatCreated, map[string]string{"id": "c9"})

		req.Len(drain(t, a1), 1)
		req.Len(drain(t, a2), 1)
	})

	t.Run("should not auto-join chat rooms on connect", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		r.Register(a)

		r.Broadcast(ChatTopic("c1"), EventMessageNew, nil)

		req.Empty(drain(t, a))
	})

	t.Run("should overwrite on duplicate register without duplicating deliveries", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		r.Register(a)
		r.Join("conn-a", ChatTopic("c1"))
		r.Register(a) // idempotent overwrite drops old memberships

		r.Broadcast(ChatTopic("c1"), EventMessageNew, nil)
		req.Empty(drain(t, a))

		r.BroadcastToUser("alice", EventChatCreated, nil)
		req.Len(drain(t, a), 1)
	})

	t.Run("should tolerate repeat joins and leaves of rooms never joined", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		r.Register(a)

		r.Join("conn-a", ChatTopic("c1"))
		r.Join("conn-a", ChatTopic("c1"))
		r.Leave("conn-a", ChatTopic("never-joined"))

		r.Broadcast(ChatTopic("c1"), EventMessageNew, nil)
		req.Len(drain(t, a), 1)
	})

	t.Run("should drop all memberships on unregister", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		a := NewClient("conn-a", "alice", nil, 8)
		r.Register(a)
		r.Join("conn-a", ChatTopic("c1"))

		r.Unregister("conn-a")

		r.Broadcast(ChatTopic("c1"), EventMessageNew, nil)
		r.BroadcastToUser("alice", EventChatCreated, nil)
		r.BroadcastAll(EventPresenceUpdate, nil)
		req.Empty(drain(t, a))
	})

	t.Run("should skip a slow consumer instead of blocking others", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		slow := NewClient("conn-s", "sam", nil, 1)
		fast := NewClient("conn-f", "fay", nil, 8)
		r.Register(slow)
		r.Register(fast)
		r.Join("conn-s", ChatTopic("c1"))
		r.Join("conn-f", ChatTopic("c1"))

		r.Broadcast(ChatTopic("c1"), EventMessageNew, map[string]int{"n": 1})
		r.Broadcast(ChatTopic("c1"), EventMessageNew, map[string]int{"n": 2})

		req.Len(drain(t, slow), 1) // second frame dropped, queue size 1
		req.Len(drain(t, fast), 2)
	})
}
