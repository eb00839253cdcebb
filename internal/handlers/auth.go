package handlers

// auth.go: the /api/v1/auth routes. Credentials and tokens are handled by the
// hosted auth service; these handlers validate the forms, forward the call and
// hand the resulting session back together with the resolved identity.

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/session"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
)

// AuthService is the auth surface the API needs. Implemented by *baas.Client.
type AuthService interface {
	session.Authenticator
	Refresh(ctx context.Context, refreshToken string) (*baas.Session, error)
	VerifyToken(ctx context.Context, accessToken string) (*baas.User, error)
}

// SessionResponse is returned by sign-in, sign-up and refresh. Identity is
// absent when sign-up still waits for email confirmation.
type SessionResponse struct {
	Session  *baas.Session     `json:"session"`
	Identity *session.Identity `json:"identity,omitempty"`
}

func respondSession(c *fiber.Ctx, status int, resolver middleware.IdentityResolver, sess *baas.Session) error {
	resp := SessionResponse{Session: sess}
	if sess.AccessToken != "" && sess.User != nil {
		ctx := baas.WithAccessToken(c.UserContext(), sess.AccessToken)
		id := resolver.Resolve(ctx, sess.User)
		resp.Identity = &id
	}
	return c.Status(status).JSON(resp)
}

// SignUp handles POST /api/v1/auth/signup.
func SignUp(auth AuthService, resolver middleware.IdentityResolver, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.Signup
		if err := bind(c, v, &form); err != nil {
			return err
		}
		sess, err := auth.SignUp(c.UserContext(), form.Email, form.Password, baas.SignUpMetadata{
			Username:  form.Username,
			DiscordID: form.Discord,
		})
		if err != nil {
			return err
		}
		return respondSession(c, fiber.StatusCreated, resolver, sess)
	}
}

// SignIn handles POST /api/v1/auth/signin.
func SignIn(auth AuthService, resolver middleware.IdentityResolver, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.Login
		if err := bind(c, v, &form); err != nil {
			return err
		}
		sess, err := auth.SignInWithPassword(c.UserContext(), form.Email, form.Password)
		if err != nil {
			return err
		}
		return respondSession(c, fiber.StatusOK, resolver, sess)
	}
}

// Refresh handles POST /api/v1/auth/refresh.
func Refresh(auth AuthService, resolver middleware.IdentityResolver, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.Refresh
		if err := bind(c, v, &form); err != nil {
			return err
		}
		sess, err := auth.Refresh(c.UserContext(), form.RefreshToken)
		if err != nil {
			return err
		}
		return respondSession(c, fiber.StatusOK, resolver, sess)
	}
}

// SignOut handles POST /api/v1/auth/signout. Runs behind Auth.
func SignOut(auth AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.SignOut(c.UserContext(), middleware.AccessToken(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me handles GET /api/v1/auth/me: the verified account and its identity.
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := middleware.IdentityOf(c)
		return c.JSON(fiber.Map{
			"user":     middleware.UserOf(c),
			"identity": id,
		})
	}
}
