package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	msgmodel "chathub/module/message/model"
)

func TestBus(t *testing.T) {
	t.Run("should deliver to every subscriber in subscription order", func(t *testing.T) {
		req := require.New(t)
		b := New()

		var order []string
		b.SubscribeMessageCreated(func(MessageCreated) { order = append(order, "first") })
		b.SubscribeMessageCreated(func(MessageCreated) { order = append(order, "second") })

		b.PublishMessageCreated(MessageCreated{ChatID: "c1"})

		req.Equal([]string{"first", "second"}, order)
	})

	t.Run("should deliver synchronously with the published value", func(t *testing.T) {
		req := require.New(t)
		b := New()

		var got *msgmodel.Message
		b.SubscribeMessageCreated(func(ev MessageCreated) { got = ev.Message })

		msg := &msgmodel.Message{ID: "m1", ChatID: "c1"}
		b.PublishMessageCreated(MessageCreated{ChatID: "c1", Message: msg})

		req.Same(msg, got)
	})

	t.Run("should keep the two event streams independent", func(t *testing.T) {
		req := require.New(t)
		b := New()

		var messages, chats int
		b.SubscribeMessageCreated(func(MessageCreated) { messages++ })
		b.SubscribeChatCreated(func(ChatCreated) { chats++ })

		b.PublishChatCreated(ChatCreated{MemberIDs: []string{"u1"}})

		req.Zero(messages)
		req.Equal(1, chats)
	})

	t.Run("should tolerate publishing with no subscribers", func(t *testing.T) {
		b := New()
		require.NotPanics(t, func() {
			b.PublishMessageCreated(MessageCreated{ChatID: "c1"})
			b.PublishChatCreated(ChatCreated{})
		})
	})
}
