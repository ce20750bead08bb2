package realtime

// Inbound command names, matching what clients emit.
const (
	CmdMessageSend    = "message:send"
	CmdMessageTyping  = "message:typing"
	CmdPresenceUpdate = "presence:update"
	CmdChatJoin       = "chat:join"
	CmdChatLeave      = "chat:leave"
)

// Outbound event names.
const (
	EventMessageNew     = "message:new"
	EventTypingUpdate   = "typing:update"
	EventPresenceUpdate = "presence:update"
	EventChatCreated    = "chat:created"
)

// ChatTopic is the room key every connection interested in a chat joins
// explicitly.
func ChatTopic(chatID string) string { return "chat:" + chatID }

// UserTopic is the personal room every connection is placed into at
// register time.
func UserTopic(userID string) string { return "user:" + userID }

// TypingUpdate is broadcast to a chat room when a member's typing flag
// changes.
type TypingUpdate struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// PresenceUpdate is broadcast to every connection, not room-scoped.
type PresenceUpdate struct {
	UserID string `json:"userId"`
	Status Status `json:"status"`
}
