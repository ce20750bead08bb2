package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"chathub/module/user/model"
	"chathub/tools/errs"
	"chathub/tools/ids"
)

var ErrEmailTaken = errs.NewCodeError(errs.CodeValidation, "email already registered")
var ErrBadCredentials = errs.NewCodeError(errs.CodeUnauthorized, "invalid email or password")

// Store persists user accounts in the users collection.
type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection("users")}
}

type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	AvatarURL string
}

func (s *Store) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, errs.ErrValidation.WithDetail("email and password are required")
	}
	if existing, err := s.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           ids.Generate(),
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		AvatarURL:    in.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user " + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

// FindByIDs batch-loads users keyed by ID; missing IDs are simply absent
// from the result.
func (s *Store) FindByIDs(ctx context.Context, userIDs []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, errors.Wrap(err, "decode user")
		}
		out[u.ID] = &u
	}
	return out, errors.Wrap(cur.Err(), "iterate users")
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("email " + email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// Authenticate verifies the credential pair. The same error comes back for
// an unknown email and a wrong password.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}
