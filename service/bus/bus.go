// Package bus is the single-process publish/subscribe seam between
// persistence-side producers and the realtime dispatcher. Delivery is
// synchronous and in publish order; there is no durability and no
// cross-process propagation.
package bus

import (
	"sync"

	chatmodel "chathub/module/chat/model"
	msgmodel "chathub/module/message/model"
)

// MessageCreated fires after a message has been persisted and hydrated.
type MessageCreated struct {
	ChatID  string
	Message *msgmodel.Message
}

// ChatCreated fires after a chat and its member rows are persisted.
type ChatCreated struct {
	Chat      *chatmodel.Chat
	MemberIDs []string
}

type Bus struct {
	mu        sync.RWMutex
	onMessage []func(MessageCreated)
	onChat    []func(ChatCreated)
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) SubscribeMessageCreated(fn func(MessageCreated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMessage = append(b.onMessage, fn)
}

func (b *Bus) SubscribeChatCreated(fn func(ChatCreated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChat = append(b.onChat, fn)
}

func (b *Bus) PublishMessageCreated(ev MessageCreated) {
	b.mu.RLock()
	subs := append([]func(MessageCreated){}, b.onMessage...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Bus) PublishChatCreated(ev ChatCreated) {
	b.mu.RLock()
	subs := append([]func(ChatCreated){}, b.onChat...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
