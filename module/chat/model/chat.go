package model

import (
	"time"

	usermodel "chathub/module/user/model"
)

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type ChatRole string

const (
	RoleOwner  ChatRole = "owner"
	RoleAdmin  ChatRole = "admin"
	RoleMember ChatRole = "member"
)

// Chat is the persisted conversation record. Members are hydrated by the
// store, not stored inline.
type Chat struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Type        ChatType  `bson:"type" json:"type"`
	Description string    `bson:"description,omitempty" json:"description"`
	AvatarURL   string    `bson:"avatar_url,omitempty" json:"avatarUrl"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`

	Members []ChatMember `bson:"-" json:"members,omitempty"`
}

// ChatMember links a user to a chat with a role. Source of truth for
// membership decisions.
type ChatMember struct {
	ChatID   string    `bson:"chat_id" json:"chatId"`
	UserID   string    `bson:"user_id" json:"userId"`
	Role     ChatRole  `bson:"role" json:"role"`
	JoinedAt time.Time `bson:"joined_at" json:"joinedAt"`

	User *usermodel.User `bson:"-" json:"-"`
}

type ChatMemberDTO struct {
	UserID string             `json:"userId"`
	Role   ChatRole           `json:"role"`
	User   *usermodel.UserDTO `json:"user,omitempty"`
}

type ChatDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        ChatType        `json:"type"`
	Description string          `json:"description"`
	AvatarURL   string          `json:"avatarUrl"`
	Members     []ChatMemberDTO `json:"members"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (c *Chat) DTO() ChatDTO {
	members := make([]ChatMemberDTO, 0, len(c.Members))
	for _, m := range c.Members {
		dto := ChatMemberDTO{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			u := m.User.DTO()
			dto.User = &u
		}
		members = append(members, dto)
	}
	return ChatDTO{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Description: c.Description,
		AvatarURL:   c.AvatarURL,
		Members:     members,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
