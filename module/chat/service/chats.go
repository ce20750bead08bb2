package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"chathub/module/chat/model"
	usermodel "chathub/module/user/model"
	"chathub/service/bus"
	"chathub/tools/errs"
	"chathub/tools/ids"
)

// UserLoader is what the chat store needs from the user side to hydrate
// member records.
type UserLoader interface {
	FindByIDs(ctx context.Context, userIDs []string) (map[string]*usermodel.User, error)
}

// Store persists chats and their member rows and publishes ChatCreated
// so the realtime layer can notify members without this package knowing
// about the transport.
type Store struct {
	chats   *mongo.Collection
	members *mongo.Collection
	users   UserLoader
	events  *bus.Bus
}

func NewStore(db *mongo.Database, users UserLoader, events *bus.Bus) *Store {
	return &Store{
		chats:   db.Collection("chats"),
		members: db.Collection("chat_members"),
		users:   users,
		events:  events,
	}
}

type CreateChatInput struct {
	Name        string
	Type        model.ChatType
	Description string
	MemberIDs   []string
}

func (s *Store) CreateChat(ctx context.Context, creatorID string, in CreateChatInput) (*model.Chat, error) {
	if in.Type != model.ChatDirect && in.Type != model.ChatGroup {
		return nil, errs.ErrValidation.WithDetail("unknown chat type " + string(in.Type))
	}

	now := time.Now().UTC()
	chat := &model.Chat{
		ID:          ids.Generate(),
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		return nil, errors.Wrap(err, "insert chat")
	}

	rows := []interface{}{model.ChatMember{ChatID: chat.ID, UserID: creatorID, Role: model.RoleOwner, JoinedAt: now}}
	for _, memberID := range lo.Uniq(in.MemberIDs) {
		if memberID == creatorID {
			continue
		}
		rows = append(rows, model.ChatMember{ChatID: chat.ID, UserID: memberID, Role: model.RoleMember, JoinedAt: now})
	}
	if _, err := s.members.InsertMany(ctx, rows); err != nil {
		return nil, errors.Wrap(err, "insert chat members")
	}

	full, err := s.FindByID(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	memberIDs := lo.Map(full.Members, func(m model.ChatMember, _ int) string { return m.UserID })
	s.events.PublishChatCreated(bus.ChatCreated{Chat: full, MemberIDs: memberIDs})
	return full, nil
}

func (s *Store) FindByID(ctx context.Context, chatID string) (*model.Chat, error) {
	var chat model.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("chat " + chatID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find chat")
	}
	if chat.Members, err = s.loadMembers(ctx, chatID); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *Store) GetUserChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	cur, err := s.members.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "find memberships")
	}
	defer cur.Close(ctx)

	var chatIDs []string
	for cur.Next(ctx) {
		var m model.ChatMember
		if err := cur.Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decode membership")
		}
		chatIDs = append(chatIDs, m.ChatID)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate memberships")
	}

	out := make([]*model.Chat, 0, len(chatIDs))
	for _, id := range chatIDs {
		chat, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, chat)
	}
	return out, nil
}

func (s *Store) loadMembers(ctx context.Context, chatID string) ([]model.ChatMember, error) {
	cur, err := s.members.Find(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return nil, errors.Wrap(err, "find chat members")
	}
	defer cur.Close(ctx)

	var rows []model.ChatMember
	for cur.Next(ctx) {
		var m model.ChatMember
		if err := cur.Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decode chat member")
		}
		rows = append(rows, m)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate chat members")
	}

	userIDs := lo.Map(rows, func(m model.ChatMember, _ int) string { return m.UserID })
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].User = users[rows[i].UserID]
	}
	return rows, nil
}
