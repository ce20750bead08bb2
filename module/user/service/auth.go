package service

import (
	"context"
	"time"

	"chathub/module/user/model"
	"chathub/tools/security"
)

// AuthService mints and checks the tokens the HTTP surface and the
// websocket handshake both accept.
type AuthService struct {
	users *Store
	opts  security.Options
}

func NewAuthService(users *Store, opts security.Options) *AuthService {
	return &AuthService{users: users, opts: opts}
}

type TokenResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      model.UserDTO `json:"user"`
}

func (a *AuthService) Register(ctx context.Context, in CreateUserInput) (*TokenResult, error) {
	u, err := a.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return a.issue(u)
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	u, err := a.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return a.issue(u)
}

// Verify resolves a handshake credential to a user ID.
func (a *AuthService) Verify(token string) (string, error) {
	return security.VerifyUserID(a.opts, token)
}

func (a *AuthService) issue(u *model.User) (*TokenResult, error) {
	token, exp, err := security.Generate(a.opts, u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, ExpiresAt: exp, User: u.DTO()}, nil
}
