package handlers

// dashboard.go: what a signed-in member can do for themselves. Every route here
// sits behind middleware.Auth, so caller(c) always finds an id.

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
)

// IdentityStore resolves identities and drops cached ones after a role or
// username change. Implemented by *session.Resolver.
type IdentityStore interface {
	middleware.IdentityResolver
	Forget(ctx context.Context, userID uuid.UUID)
}

// GetProfile handles GET /api/v1/me/profile.
func GetProfile(profiles *store.Profiles) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		prof, err := profiles.ByUser(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(prof)
	}
}

// UpdateProfile handles PUT /api/v1/me/profile. The version is optional here;
// when sent, a stale edit is rejected like any admin edit.
func UpdateProfile(profiles *store.Profiles, identities IdentityStore, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		var form validation.Profile
		if err := bind(c, v, &form); err != nil {
			return err
		}
		prof, err := profiles.UpdateOwn(c.UserContext(), userID, form.Expected(), form.Values())
		if err != nil {
			return err
		}
		// The username is part of the cached identity.
		identities.Forget(c.UserContext(), userID)
		return c.JSON(prof)
	}
}

// MyApplications handles GET /api/v1/me/applications: the caller's scrim
// applications and roster requests, newest first.
func MyApplications(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		scrims, err := s.ScrimApplications.Mine(ctx, userID)
		if err != nil {
			return err
		}
		rosters, err := s.TeamApplications.Mine(ctx, userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"scrims": scrims, "rosters": rosters})
	}
}

// ApplyToScrim handles POST /api/v1/scrims/:id/applications.
func ApplyToScrim(apps *store.ScrimApplications, v *validation.Validator, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		scrimID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.ScrimApplication
		if err := bind(c, v, &form); err != nil {
			return err
		}
		app, err := apps.Apply(c.UserContext(), scrimID, userID, form.Message)
		if errors.Is(err, store.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, "You have already applied to this scrim!")
		}
		if err != nil {
			return err
		}
		n.Notify(c.UserContext(), events.New(events.ScrimApplicationSubmitted, app.ID, userID, map[string]any{
			"scrim_id": scrimID,
		}))
		return c.Status(fiber.StatusCreated).JSON(app)
	}
}

// ApplyToRoster handles POST /api/v1/teams/:id/applications.
func ApplyToRoster(apps *store.TeamApplications, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		teamID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		app, err := apps.Apply(c.UserContext(), teamID, userID)
		if errors.Is(err, store.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, "You have already applied for this roster!")
		}
		if err != nil {
			return err
		}
		n.Notify(c.UserContext(), events.New(events.TeamApplicationSubmitted, app.ID, userID, map[string]any{
			"team_id": teamID,
		}))
		return c.Status(fiber.StatusCreated).JSON(app)
	}
}

// ApplyToTryout handles POST /api/v1/tryouts/:id/applications.
func ApplyToTryout(s *store.Store, v *validation.Validator, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := caller(c)
		if err != nil {
			return err
		}
		tryoutID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.TryoutApplication
		if err := bind(c, v, &form); err != nil {
			return err
		}
		ctx := c.UserContext()
		tryout, err := s.Tryouts.Get(ctx, tryoutID)
		if err != nil {
			return err
		}
		if tryout.Status == models.TryoutStatusClosed {
			return fiber.NewError(fiber.StatusConflict, "This tryout is no longer accepting applications")
		}
		app, err := s.TryoutApplications.Create(ctx, tryoutID, userID, form.Values())
		if err != nil {
			return err
		}
		n.Notify(ctx, events.New(events.TryoutApplicationSubmitted, app.ID, userID, map[string]any{
			"tryout_id": tryoutID,
			"team_name": tryout.TeamName,
			"position":  tryout.Position,
		}))
		return c.Status(fiber.StatusCreated).JSON(app)
	}
}
