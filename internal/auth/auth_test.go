package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsers(t *testing.T) *storage.FileStorage {
	dir := t.TempDir()
	s, err := storage.NewFileStorage(filepath.Join(dir, "activities.json"), filepath.Join(dir, "users.json"), internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalProviderStaticToken(t *testing.T) {
	users := setupUsers(t)
	p := NewLocalAuthProvider("dev-token", users, internal.NewNopLogger())
	ctx := context.Background()

	u, err := p.Authenticate(ctx, "dev-token")
	require.NoError(t, err)
	assert.Equal(t, "local", u.ID)
	assert.Equal(t, internal.DefaultTimezone, u.Timezone)

	again, err := p.Authenticate(ctx, "dev-token")
	require.NoError(t, err)
	assert.Equal(t, u.CreatedAt, again.CreatedAt)

	_, err = p.Authenticate(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = p.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLocalProviderStoredToken(t *testing.T) {
	users := setupUsers(t)
	ctx := context.Background()
	require.NoError(t, users.SaveUser(ctx, &internal.User{ID: "u9", Token: "tok-9"}))

	p := NewLocalAuthProvider("", users, internal.NewNopLogger())
	u, err := p.Authenticate(ctx, "tok-9")
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
}

func TestRemoteProvider(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(remoteIdentity{ID: "r1", DisplayName: "Remote"})
	}))
	defer ts.Close()

	users := setupUsers(t)
	p := NewRemoteAuthProvider(ts.URL, users, internal.NewNopLogger())
	ctx := context.Background()

	u, err := p.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "r1", u.ID)
	assert.Equal(t, "Remote", u.DisplayName)

	stored, err := users.GetUser(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Remote", stored.DisplayName)

	_, err = p.Authenticate(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWTProvider(t *testing.T) {
	users := setupUsers(t)
	p := NewJWTAuthProvider("secret", users, internal.NewNopLogger())
	ctx := context.Background()

	tok, err := p.Sign("j1", time.Hour)
	require.NoError(t, err)
	u, err := p.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "j1", u.ID)

	expired, err := p.Sign("j1", -time.Minute)
	require.NoError(t, err)
	_, err = p.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewJWTAuthProvider("other-secret", users, internal.NewNopLogger())
	forged, err := other.Sign("j1", time.Hour)
	require.NoError(t, err)
	_, err = p.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Authenticate(ctx, noSub)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := setupUsers(t)
	p := NewLocalAuthProvider("dev-token", users, internal.NewNopLogger())

	r := gin.New()
	r.GET("/me", AuthMiddleware(p), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, u.ID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer dev-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":401`)
}
