package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

var ErrUnauthorized = errors.New("unauthorized")

// Provider resolves a bearer token to the user it belongs to.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.User, error)
}

// ensureUser loads id from users, creating it from tmpl on first sight.
func ensureUser(ctx context.Context, users storage.UserRepository, tmpl *internal.User, now time.Time) (*internal.User, error) {
	u, err := users.GetUser(ctx, tmpl.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}
	u = &internal.User{
		ID:          tmpl.ID,
		Token:       tmpl.Token,
		DisplayName: tmpl.DisplayName,
		Timezone:    internal.DefaultTimezone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := users.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("auth: provision user %s: %w", tmpl.ID, err)
	}
	return u, nil
}
