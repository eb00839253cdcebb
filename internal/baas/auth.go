package baas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned by VerifyToken for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("baas: invalid access token")

// User is an account as the auth service reports it.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session is the token pair issued on sign-in or refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// SignUpMetadata is stored on the account and copied into the profile by the
// backend's signup trigger.
type SignUpMetadata struct {
	Username  string `json:"username"`
	DiscordID string `json:"discord_id,omitempty"`
}

// SignUp registers an account. When the project requires email confirmation the
// returned session has no tokens, only the user.
func (c *Client) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     meta,
	}
	resp, err := c.do(c.http.R().SetContext(ctx).SetBody(body), http.MethodPost, "/auth/v1/signup")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := decode(resp.Body(), &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		var user User
		if err := decode(resp.Body(), &user); err != nil {
			return nil, err
		}
		session.User = &user
	}
	return &session, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]any{"email": email, "password": password})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, grant string, body map[string]any) (*Session, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grant).
		SetBody(body)
	resp, err := c.do(req, http.MethodPost, "/auth/v1/token")
	if err != nil {
		return nil, err
	}
	var session Session
	if err := decode(resp.Body(), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken)
	_, err := c.do(req, http.MethodPost, "/auth/v1/logout")
	return err
}

// GetUser asks the auth service who accessToken belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken)
	resp, err := c.do(req, http.MethodGet, "/auth/v1/user")
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	var user User
	if err := decode(resp.Body(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Claims is the payload of an access token issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"` // Database role, "authenticated" for users; not the site role
	UserMetadata map[string]any `json:"user_metadata"`
}

// VerifyToken returns the user an access token was issued to. With a JWT secret
// configured the signature is checked locally; otherwise the auth service is asked.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*User, error) {
	if c.opts.JWTSecret == "" {
		return c.GetUser(ctx, accessToken)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(c.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return &User{ID: id, Email: claims.Email, UserMetadata: claims.UserMetadata}, nil
}
