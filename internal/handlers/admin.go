package handlers

// admin.go: the /api/v1/admin back office. Every route here runs behind
// middleware.Auth + middleware.RequireRole(models.RoleAdmin).
//
// Most entities share the same create/update/delete shape, so those handlers
// are built from the generic helpers below. Updates always carry the version
// (updated_at) the admin's edit dialog loaded; the store refuses the write
// with ErrStale if someone else saved in between.

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
)

// editForm is a pointer to an admin form: it validates, yields column values
// and says which version it was loaded at.
type editForm[F any] interface {
	*F
	Values() map[string]any
	Expected() *time.Time
}

// editable is a repository with the common write methods.
type editable[T any] interface {
	Create(ctx context.Context, values store.Values) (T, error)
	Update(ctx context.Context, id uuid.UUID, expected *time.Time, values store.Values) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// afterSave runs once a record was written, e.g. to emit an event.
type afterSave[T any] func(c *fiber.Ctx, rec T)

func listAll[T any](fetch func(ctx context.Context) ([]T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := fetch(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

func create[T, F any, PF editForm[F]](repo editable[T], v *validation.Validator, after afterSave[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form := PF(new(F))
		if err := bind(c, v, form); err != nil {
			return err
		}
		rec, err := repo.Create(c.UserContext(), form.Values())
		if err != nil {
			return err
		}
		if after != nil {
			after(c, rec)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

func update[T, F any, PF editForm[F]](repo editable[T], v *validation.Validator, after afterSave[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		form := PF(new(F))
		if err := bind(c, v, form); err != nil {
			return err
		}
		if err := requireVersion(form.Expected()); err != nil {
			return err
		}
		rec, err := repo.Update(c.UserContext(), id, form.Expected(), form.Values())
		if err != nil {
			return err
		}
		if after != nil {
			after(c, rec)
		}
		return c.JSON(rec)
	}
}

func remove(del func(ctx context.Context, id uuid.UUID) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := del(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// toggle flips a boolean column (published, live) at a known version.
func toggle[T any](set func(ctx context.Context, id uuid.UUID, expected *time.Time, on bool) (T, error), v *validation.Validator, after afterSave[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.Toggle
		if err := bind(c, v, &form); err != nil {
			return err
		}
		if err := requireVersion(form.Expected()); err != nil {
			return err
		}
		rec, err := set(c.UserContext(), id, form.Expected(), *form.Value)
		if err != nil {
			return err
		}
		if after != nil {
			after(c, rec)
		}
		return c.JSON(rec)
	}
}

// setStatus approves or rejects one row of an application-like table.
func setStatus[T any](set func(ctx context.Context, id uuid.UUID, expected *time.Time, status models.ApplicationStatus) (T, error), v *validation.Validator, after afterSave[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.StatusChange
		if err := bind(c, v, &form); err != nil {
			return err
		}
		if err := requireVersion(form.Expected()); err != nil {
			return err
		}
		rec, err := set(c.UserContext(), id, form.Expected(), form.Normalized())
		if err != nil {
			return err
		}
		if after != nil {
			after(c, rec)
		}
		return c.JSON(rec)
	}
}

// --- Overview ---

// Overview handles GET /api/v1/admin/overview.
func Overview(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ov, err := s.Overview(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(ov)
	}
}

// --- Teams ---

// ListPlayers handles GET /api/v1/admin/team-players with an optional ?team_id=.
func ListPlayers(players *store.Players) fiber.Handler {
	return func(c *fiber.Ctx) error {
		teamID, err := optionalQueryID(c, "team_id")
		if err != nil {
			return err
		}
		rows, err := players.List(c.UserContext(), teamID)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// CreateGame handles POST /api/v1/admin/games.
func CreateGame(games *store.Games, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.Game
		if err := bind(c, v, &form); err != nil {
			return err
		}
		game, err := games.Create(c.UserContext(), form.Name)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(game)
	}
}

// --- Streams ---

// RegenerateStreamKey handles POST /api/v1/admin/streams/:id/key. The old key
// stops working as soon as this returns.
func RegenerateStreamKey(streams *store.Streams, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.Edit
		if err := bind(c, v, &form); err != nil {
			return err
		}
		if err := requireVersion(form.Expected()); err != nil {
			return err
		}
		stream, err := streams.RegenerateKey(c.UserContext(), id, form.Expected())
		if err != nil {
			return err
		}
		return c.JSON(stream)
	}
}

// --- Announcements ---

// announcementPublished emits an event whenever a save leaves the announcement
// published, so downstream consumers (Discord, mail) can pick it up.
func announcementPublished(n *events.Notifier) afterSave[models.Announcement] {
	return func(c *fiber.Ctx, a models.Announcement) {
		if !a.IsPublished {
			return
		}
		actor, _ := caller(c)
		n.Notify(c.UserContext(), events.New(events.AnnouncementPublished, a.ID, actor, map[string]any{
			"title": a.Title,
		}))
	}
}

// --- Applications ---

var filterableStatuses = map[string]bool{"pending": true, "approved": true, "rejected": true, "accepted": true}

// ListApplications handles GET /api/v1/admin/applications[?status=].
func ListApplications(apps *store.ScrimApplications) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("status")
		if raw != "" && !filterableStatuses[raw] {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		rows, err := apps.List(c.UserContext(), models.NormalizeApplicationStatus(raw))
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

func statusChanged[T any](n *events.Notifier, t events.Type, subject func(T) (uuid.UUID, models.ApplicationStatus)) afterSave[T] {
	return func(c *fiber.Ctx, rec T) {
		id, status := subject(rec)
		actor, _ := caller(c)
		n.Notify(c.UserContext(), events.New(t, id, actor, map[string]any{"status": status}))
	}
}

// ListRegistrations handles GET /api/v1/admin/registrations[?scrim_id=].
func ListRegistrations(regs *store.Registrations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scrimID, err := optionalQueryID(c, "scrim_id")
		if err != nil {
			return err
		}
		rows, err := regs.List(c.UserContext(), scrimID)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// ListTryoutApplications handles GET /api/v1/admin/tryout-applications[?tryout_id=].
func ListTryoutApplications(apps *store.TryoutApplications) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tryoutID, err := optionalQueryID(c, "tryout_id")
		if err != nil {
			return err
		}
		rows, err := apps.List(c.UserContext(), tryoutID)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// --- Accounts ---

// ListAccounts handles GET /api/v1/admin/players[?q=&role=].
func ListAccounts(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var role models.Role
		if raw := c.Query("role"); raw != "" {
			role = models.ParseRole(raw)
			if string(role) != raw {
				return fiber.NewError(fiber.StatusBadRequest, "invalid role")
			}
		}
		rows, err := s.PlayerAccounts(c.UserContext(), c.Query("q"), role)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// SetRole handles PUT /api/v1/admin/players/:userId/role. The user's cached
// identity is dropped so the new role applies on their next request.
func SetRole(roles *store.Roles, identities IdentityStore, v *validation.Validator, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := paramID(c, "userId")
		if err != nil {
			return err
		}
		var form validation.RoleChange
		if err := bind(c, v, &form); err != nil {
			return err
		}
		ctx := c.UserContext()
		assignment, err := roles.Set(ctx, userID, form.Role)
		if err != nil {
			return err
		}
		identities.Forget(ctx, userID)

		actor, _ := caller(c)
		n.Notify(ctx, events.New(events.RoleChanged, userID, actor, map[string]any{"role": form.Role}))
		return c.JSON(assignment)
	}
}

// ListContact handles GET /api/v1/admin/contact.
func ListContact(contact *store.Contact) fiber.Handler {
	return listAll(contact.List)
}
