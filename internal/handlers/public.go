package handlers

// public.go: pages anyone can read (home, teams, tryouts, scrims, streams,
// news, announcements) plus the two public forms (contact, scrim team
// registration).

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
)

// Home sizes, as the landing page shows them.
const (
	homeTeams        = 6
	homeNews         = 4
	homeAchievements = 6
)

// HomeResponse is everything the landing page renders.
type HomeResponse struct {
	Teams        []models.TeamWithCount   `json:"teams"`
	News         []models.NewsItem        `json:"news"`
	Achievements []models.AchievementView `json:"achievements"`
	Sponsors     []models.Sponsor         `json:"sponsors"`
}

// Home handles GET /api/v1/home. The four sections load concurrently.
func Home(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var resp HomeResponse
		g, ctx := errgroup.WithContext(c.UserContext())
		g.Go(func() (err error) {
			resp.Teams, err = s.Teams.WithPlayerCounts(ctx, homeTeams)
			return err
		})
		g.Go(func() (err error) {
			resp.News, err = s.News.Published(ctx, homeNews)
			return err
		})
		g.Go(func() (err error) {
			resp.Achievements, err = s.Achievements.Recent(ctx, homeAchievements)
			return err
		})
		g.Go(func() (err error) {
			resp.Sponsors, err = s.Sponsors.List(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// ListTeams handles GET /api/v1/teams with an optional ?category= filter. The
// category list comes along so the page can render its filter tabs.
func ListTeams(teams *store.Teams) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		list, err := teams.List(ctx, c.Query("category"))
		if err != nil {
			return err
		}
		cats, err := teams.Categories(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"teams": list, "categories": cats})
	}
}

// GetTeam handles GET /api/v1/teams/:id with roster and achievements.
func GetTeam(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		team, err := s.Teams.Get(ctx, id)
		if err != nil {
			return err
		}
		players, err := s.Players.List(ctx, &id)
		if err != nil {
			return err
		}
		achievements, err := s.Achievements.ByTeam(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"team": team, "players": players, "achievements": achievements})
	}
}

// ListOpenTryouts handles GET /api/v1/tryouts.
func ListOpenTryouts(tryouts *store.Tryouts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := tryouts.Open(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// ListActiveScrims handles GET /api/v1/scrims.
func ListActiveScrims(scrims *store.Scrims) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := scrims.Active(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// LiveStreams handles GET /api/v1/streams/live. It reads the public view, so
// stream keys never leave the database.
func LiveStreams(streams *store.Streams) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := streams.Live(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// ListNews handles GET /api/v1/news.
func ListNews(news *store.News) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := news.Published(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GetNews handles GET /api/v1/news/:id. Drafts are reported as missing.
func GetNews(news *store.News) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		item, err := news.GetPublished(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// AnnouncementSource is the live announcement list.
type AnnouncementSource interface {
	Items() []models.Announcement
}

// ListAnnouncements handles GET /api/v1/announcements from the reconciled feed
// instead of querying on every request.
func ListAnnouncements(feed AnnouncementSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(feed.Items())
	}
}

// ListGames handles GET /api/v1/games.
func ListGames(games *store.Games) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := games.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// SubmitContact handles POST /api/v1/contact.
func SubmitContact(contact *store.Contact, v *validation.Validator, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.Contact
		if err := bind(c, v, &form); err != nil {
			return err
		}
		msg, err := contact.Create(c.UserContext(), form.Values())
		if err != nil {
			return err
		}
		n.Notify(c.UserContext(), events.New(events.ContactSubmitted, msg.ID, uuid.Nil, map[string]any{
			"subject": msg.Subject,
		}))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": msg.ID})
	}
}

// RegisterTeam handles POST /api/v1/scrims/:id/registrations: a captain
// entering a whole team. Signing in is optional.
func RegisterTeam(regs *store.Registrations, v *validation.Validator, n *events.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scrimID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var form validation.Registration
		if err := bind(c, v, &form); err != nil {
			return err
		}
		values := form.Values()
		actor, signedIn := middleware.UserID(c)
		if signedIn {
			values["user_id"] = actor
		}
		reg, err := regs.Create(c.UserContext(), scrimID, values)
		if err != nil {
			return err
		}
		n.Notify(c.UserContext(), events.New(events.RegistrationSubmitted, reg.ID, actor, map[string]any{
			"scrim_id":  scrimID,
			"team_name": reg.TeamName,
		}))
		return c.Status(fiber.StatusCreated).JSON(reg)
	}
}
