package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

// JWTAuthProvider validates HS256 tokens whose subject is the user id.
type JWTAuthProvider struct {
	secret []byte
	users  storage.UserRepository
	logger internal.Logger
}

func NewJWTAuthProvider(secret string, users storage.UserRepository, logger internal.Logger) *JWTAuthProvider {
	return &JWTAuthProvider{secret: []byte(secret), users: users, logger: logger}
}

func (a *JWTAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		a.logger.Warnf("invalid jwt: %v", err)
		return nil, ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	u, err := ensureUser(ctx, a.users, &internal.User{ID: claims.Subject}, time.Now())
	if err != nil {
		a.logger.Errorf("failed to load user %s: %v", claims.Subject, err)
		return nil, err
	}
	return u, nil
}

// Sign issues a token for userID valid for ttl.
func (a *JWTAuthProvider) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	s, err := tok.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return s, nil
}

var _ Provider = (*JWTAuthProvider)(nil)
