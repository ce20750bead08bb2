package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"chathub/logger"
	"chathub/module/chat/model"
	"chathub/tools/errs"
)

// Authority answers membership and role questions for a chat. It is the
// source of truth the message store consults before a write; a Redis
// cache sits in front of the member collection so hot chats don't hit
// Mongo on every send.
type Authority struct {
	members *mongo.Collection
	cache   *redis.Client // optional; nil disables caching
	ttl     time.Duration
}

func NewAuthority(db *mongo.Database, cache *redis.Client, ttl time.Duration) *Authority {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Authority{members: db.Collection("chat_members"), cache: cache, ttl: ttl}
}

func memberKey(chatID, userID string) string {
	return "member:" + chatID + ":" + userID
}

func (a *Authority) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	if a.cache != nil {
		if v, err := a.cache.Get(ctx, memberKey(chatID, userID)).Result(); err == nil {
			return v == "1", nil
		}
	}

	n, err := a.members.CountDocuments(ctx, bson.M{"chat_id": chatID, "user_id": userID})
	if err != nil {
		return false, errors.Wrap(err, "count membership")
	}
	isMember := n > 0

	if a.cache != nil {
		v := "0"
		if isMember {
			v = "1"
		}
		if err := a.cache.Set(ctx, memberKey(chatID, userID), v, a.ttl).Err(); err != nil {
			logger.Warnf("membership cache set failed: %v", err)
		}
	}
	return isMember, nil
}

// GetMember returns the member row with its role, Forbidden when the user
// is not in the chat.
func (a *Authority) GetMember(ctx context.Context, chatID, userID string) (*model.ChatMember, error) {
	var m model.ChatMember
	err := a.members.FindOne(ctx, bson.M{"chat_id": chatID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrForbidden.WithDetail("user " + userID + " not in chat " + chatID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find member")
	}
	return &m, nil
}

// Invalidate drops cached verdicts for a user in a chat, called when
// membership changes.
func (a *Authority) Invalidate(ctx context.Context, chatID, userID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, memberKey(chatID, userID)).Err(); err != nil {
		logger.Warnf("membership cache invalidate failed: %v", err)
	}
}
