package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chathub/module/message/model"
	usermodel "chathub/module/user/model"
	"chathub/service/bus"
	"chathub/tools/errs"
	"chathub/tools/ids"
)

var ErrNotMember = errs.NewCodeError(errs.CodeForbidden, "you are not a member of this chat")

// MembershipChecker is the slice of the chat authority this store needs.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
}

// UserLoader hydrates sender records.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*usermodel.User, error)
	FindByIDs(ctx context.Context, userIDs []string) (map[string]*usermodel.User, error)
}

// Store persists messages. Create is the authorization choke point for
// writes: membership is checked here, not at room-join time.
type Store struct {
	coll      *mongo.Collection
	authority MembershipChecker
	users     UserLoader
	events    *bus.Bus
}

func NewStore(db *mongo.Database, authority MembershipChecker, users UserLoader, events *bus.Bus) *Store {
	return &Store{
		coll:      db.Collection("messages"),
		authority: authority,
		users:     users,
		events:    events,
	}
}

// Create persists the message, reloads it with the sender hydrated and
// publishes MessageCreated. The publish happens after the write commits;
// a crash in between loses the notification but never the message.
func (s *Store) Create(ctx context.Context, chatID, senderID, content string) (*model.Message, error) {
	if content == "" {
		return nil, errs.ErrValidation.WithDetail("content is required")
	}
	ok, err := s.authority.IsMember(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ID:        ids.Generate(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Status:    model.StatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	full, err := s.FindByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	s.events.PublishMessageCreated(bus.MessageCreated{ChatID: chatID, Message: full})
	return full, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("message " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find message")
	}
	if sender, err := s.users.FindByID(ctx, msg.SenderID); err == nil {
		msg.Sender = sender
	}
	return &msg, nil
}

// ListChatMessages returns non-deleted messages newest first. Reads are
// membership-gated like writes.
func (s *Store) ListChatMessages(ctx context.Context, chatID, userID string, limit, offset int64) ([]*model.Message, error) {
	ok, err := s.authority.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cur, err := s.coll.Find(ctx, bson.M{"chat_id": chatID, "deleted": false}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	defer cur.Close(ctx)

	var msgs []*model.Message
	senderIDs := make([]string, 0, limit)
	for cur.Next(ctx) {
		var m model.Message
		if err := cur.Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decode message")
		}
		msgs = append(msgs, &m)
		senderIDs = append(senderIDs, m.SenderID)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate messages")
	}

	senders, err := s.users.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		m.Sender = senders[m.SenderID]
	}
	return msgs, nil
}
