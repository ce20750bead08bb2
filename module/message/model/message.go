package model

import (
	"time"

	usermodel "chathub/module/user/model"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Message is the persisted chat message. Sender is hydrated by the store
// after creation so realtime consumers get a complete record.
type Message struct {
	ID        string        `bson:"_id" json:"id"`
	ChatID    string        `bson:"chat_id" json:"chatId"`
	SenderID  string        `bson:"sender_id" json:"senderId"`
	Content   string        `bson:"content" json:"content"`
	Status    MessageStatus `bson:"status" json:"status"`
	Deleted   bool          `bson:"deleted" json:"deleted"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`

	Sender *usermodel.User `bson:"-" json:"-"`
}

// MessageDTO is the wire shape broadcast as message:new and returned from
// the send ack. Sender goes through the user whitelist projection.
type MessageDTO struct {
	ID        string             `json:"id"`
	ChatID    string             `json:"chatId"`
	SenderID  string             `json:"senderId"`
	Content   string             `json:"content"`
	Status    MessageStatus      `json:"status"`
	Deleted   bool               `json:"deleted"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Sender    *usermodel.UserDTO `json:"sender"`
}

func (m *Message) DTO() MessageDTO {
	dto := MessageDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Status:    m.Status,
		Deleted:   m.Deleted,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Sender != nil {
		u := m.Sender.DTO()
		dto.Sender = &u
	}
	return dto
}
