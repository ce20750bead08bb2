package realtime

import (
	"chathub/service/bus"
)

// Dispatcher is the single gateway for outbound realtime events. It
// shapes domain payloads into wire DTOs, resolves the target rooms and
// hands off to the registry. Producers publish to the bus and never
// touch the transport; the dispatcher is the sole subscriber.
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Attach subscribes the dispatcher to the domain event bus.
func (d *Dispatcher) Attach(b *bus.Bus) {
	b.SubscribeMessageCreated(d.OnMessageCreated)
	b.SubscribeChatCreated(d.OnChatCreated)
}

// OnMessageCreated fans a persisted message out to the chat room. The DTO
// projection whitelists sender fields; credentials never reach the wire.
func (d *Dispatcher) OnMessageCreated(ev bus.MessageCreated) {
	if ev.Message == nil {
		return
	}
	d.reg.Broadcast(ChatTopic(ev.ChatID), EventMessageNew, ev.Message.DTO())
}

// OnChatCreated notifies each member through their personal room, so
// every one of their connections hears about the new chat.
func (d *Dispatcher) OnChatCreated(ev bus.ChatCreated) {
	if ev.Chat == nil {
		return
	}
	dto := ev.Chat.DTO()
	for _, userID := range ev.MemberIDs {
		d.reg.BroadcastToUser(userID, EventChatCreated, dto)
	}
}

// EmitTyping re-broadcasts a typing flag change to the chat room.
func (d *Dispatcher) EmitTyping(chatID, userID string, isTyping bool) {
	d.reg.Broadcast(ChatTopic(chatID), EventTypingUpdate, TypingUpdate{UserID: userID, IsTyping: isTyping})
}

// EmitPresence broadcasts a presence change to every connection.
func (d *Dispatcher) EmitPresence(userID string, status Status) {
	d.reg.BroadcastAll(EventPresenceUpdate, PresenceUpdate{UserID: userID, Status: status})
}
