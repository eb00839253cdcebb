// Package middleware contains the HTTP middleware for the Prime Esports API.
// Middleware sits between the HTTP server and route handlers and runs on every
// request that passes through it: authentication, role checks, request logging
// and metrics live here.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/session"
)

// Keys under which Auth stores the caller in c.Locals.
const (
	LocalUserID      = "userID"      // uuid.UUID
	LocalUserRole    = "userRole"    // string, read by RequireRole
	LocalIdentity    = "identity"    // session.Identity
	LocalAccessToken = "accessToken" // string
	LocalUser        = "user"        // *baas.User
)

// TokenVerifier checks an access token. Implemented by *baas.Client.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (*baas.User, error)
}

// IdentityResolver is implemented by *session.Resolver.
type IdentityResolver interface {
	Resolve(ctx context.Context, user *baas.User) session.Identity
}

// Auth returns a middleware that:
//  1. reads the access token from "Authorization: Bearer <token>" (or the
//     access_token query parameter on websocket upgrades, where browsers
//     cannot set headers)
//  2. verifies it with the auth service's signing secret
//  3. resolves the caller's role and username, both before the handler runs
//  4. stores the results in c.Locals and puts the token on the request context,
//     so data calls made by the handler run with the caller's row-level
//     permissions
func Auth(verifier TokenVerifier, resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		return authenticate(c, verifier, resolver, token)
	}
}

// OptionalAuth is Auth for routes that also serve anonymous visitors. A
// request without a token passes through untouched; a request with a bad token
// is still rejected.
func OptionalAuth(verifier TokenVerifier, resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}
		return authenticate(c, verifier, resolver, token)
	}
}

func authenticate(c *fiber.Ctx, verifier TokenVerifier, resolver IdentityResolver, token string) error {
	ctx := c.UserContext()
	user, err := verifier.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, baas.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}
		// The auth service could not be asked; not the caller's fault.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "auth service unavailable",
		})
	}

	ctx = baas.WithAccessToken(ctx, token)
	id := resolver.Resolve(ctx, user)

	c.SetUserContext(ctx)
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalUserRole, string(id.Role))
	c.Locals(LocalIdentity, id)
	c.Locals(LocalAccessToken, token)
	c.Locals(LocalUser, user)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		return c.Query("access_token")
	}
	return ""
}

// UserID returns the authenticated caller's id.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok
}

// IdentityOf returns the resolved identity of the caller, if any.
func IdentityOf(c *fiber.Ctx) (session.Identity, bool) {
	id, ok := c.Locals(LocalIdentity).(session.Identity)
	return id, ok
}

func AccessToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(LocalAccessToken).(string)
	return tok
}

// UserOf returns the verified account behind the request.
func UserOf(c *fiber.Ctx) *baas.User {
	u, _ := c.Locals(LocalUser).(*baas.User)
	return u
}
