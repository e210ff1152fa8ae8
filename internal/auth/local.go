package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

const localUserID = "local"

// LocalAuthProvider accepts tokens stored on users plus one static development
// token that maps to a single provisioned user.
type LocalAuthProvider struct {
	Token  string
	users  storage.UserRepository
	logger internal.Logger
}

func NewLocalAuthProvider(token string, users storage.UserRepository, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Token: token, users: users, logger: logger}
}

func (a *LocalAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	u, err := a.users.GetUserByToken(ctx, token)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, internal.ErrNotFound) {
		a.logger.Errorf("failed to look up token: %v", err)
		return nil, err
	}
	if a.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		a.logger.Warnf("invalid token")
		return nil, ErrUnauthorized
	}
	u, err = ensureUser(ctx, a.users, &internal.User{ID: localUserID, Token: a.Token, DisplayName: "Demo User"}, time.Now())
	if err != nil {
		a.logger.Errorf("failed to provision local user: %v", err)
		return nil, fmt.Errorf("auth: %w", err)
	}
	return u, nil
}

var _ Provider = (*LocalAuthProvider)(nil)
