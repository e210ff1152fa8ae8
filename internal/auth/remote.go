package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
)

// RemoteAuthProvider asks an external service who owns a token. Profiles stay
// local: the first successful login provisions one.
type RemoteAuthProvider struct {
	AuthServiceURL string
	HTTPClient     *http.Client
	users          storage.UserRepository
	logger         internal.Logger
}

type remoteIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func NewRemoteAuthProvider(url string, users storage.UserRepository, logger internal.Logger) *RemoteAuthProvider {
	return &RemoteAuthProvider{
		AuthServiceURL: url,
		HTTPClient:     &http.Client{Timeout: 5 * time.Second},
		users:          users,
		logger:         logger,
	}
}

func (a *RemoteAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.AuthServiceURL, bytes.NewReader(body))
	if err != nil {
		a.logger.Errorf("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		a.logger.Errorf("failed to call auth service: %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Errorf("auth service returned %d", resp.StatusCode)
		return nil, errors.New("auth service returned non-200")
	}
	var id remoteIdentity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		a.logger.Errorf("failed to decode auth response: %v", err)
		return nil, err
	}
	if id.ID == "" {
		return nil, ErrUnauthorized
	}
	return ensureUser(ctx, a.users, &internal.User{ID: id.ID, DisplayName: id.DisplayName}, time.Now())
}

var _ Provider = (*RemoteAuthProvider)(nil)
