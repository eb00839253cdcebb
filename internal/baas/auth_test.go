package baas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInWithPassword(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"bearer","expires_in":3600,"user":{"id":"`+userID.String()+`","email":"ana@example.com"}}`)
	})

	s, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	require.NotNil(t, s.User)
	assert.Equal(t, userID, s.User.ID)
}

func TestSignUpWithoutSession(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data SignUpMetadata `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana_01", body.Data.Username)
		_, _ = io.WriteString(w, `{"id":"`+userID.String()+`","email":"ana@example.com"}`)
	})

	s, err := c.SignUp(context.Background(), "ana@example.com", "secret1", SignUpMetadata{Username: "ana_01"})
	require.NoError(t, err)
	assert.Empty(t, s.AccessToken)
	require.NotNil(t, s.User)
	assert.Equal(t, userID, s.User.ID)
}

func TestVerifyTokenLocally(t *testing.T) {
	c := newTestClient(t, Options{JWTSecret: "top-secret"}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("local verification must not call the auth service")
	})

	userID := uuid.New()
	signed := signToken(t, "top-secret", userID.String(), time.Now().Add(time.Hour))
	u, err := c.VerifyToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = c.VerifyToken(context.Background(), signToken(t, "other-secret", userID.String(), time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyToken(context.Background(), signToken(t, "top-secret", userID.String(), time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRemotely(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, Options{}, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":401,"msg":"invalid JWT"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"`+userID.String()+`","email":"ana@example.com"}`)
	})

	u, err := c.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)

	_, err = c.VerifyToken(context.Background(), "bad")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: "ana@example.com",
		Role:  "authenticated",
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}
