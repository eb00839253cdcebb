package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
	wshub "github.com/muhammadsaim216/prime-esports/internal/websocket"
)

// Deps is everything the routes need. cmd/server builds it once at startup.
type Deps struct {
	Store     *store.Store
	Auth      AuthService
	Identity  IdentityStore
	Validator *validation.Validator
	Feed      AnnouncementSource
	Hub       *wshub.Hub
	Notifier  *events.Notifier
	Sockets   SocketObserver
	Log       *logrus.Logger
	Started   time.Time
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	s, v, n := d.Store, d.Validator, d.Notifier
	auth := middleware.Auth(d.Auth, d.Identity)
	optional := middleware.OptionalAuth(d.Auth, d.Identity)

	app.Get("/health", HealthCheck(d.Started, d.Feed))

	// --- Dashboard socket ---
	// OptionalAuth reads the token from ?access_token= on upgrade requests,
	// since browsers cannot set headers on a websocket handshake.
	app.Get("/ws", RequireUpgrade, optional, Socket(d.Auth, d.Identity, d.Feed, d.Hub, d.Sockets, d.Log))

	api := app.Group("/api/v1")

	// --- Public ---
	api.Get("/home", Home(s))
	api.Get("/teams", ListTeams(s.Teams))
	api.Get("/teams/:id", GetTeam(s))
	api.Get("/tryouts", ListOpenTryouts(s.Tryouts))
	api.Get("/scrims", ListActiveScrims(s.Scrims))
	api.Get("/streams/live", LiveStreams(s.Streams))
	api.Get("/news", ListNews(s.News))
	api.Get("/news/:id", GetNews(s.News))
	api.Get("/announcements", ListAnnouncements(d.Feed))
	api.Get("/games", ListGames(s.Games))
	api.Post("/contact", SubmitContact(s.Contact, v, n))
	api.Post("/scrims/:id/registrations", optional, RegisterTeam(s.Registrations, v, n))

	// --- Auth ---
	api.Post("/auth/signup", SignUp(d.Auth, d.Identity, v))
	api.Post("/auth/signin", SignIn(d.Auth, d.Identity, v))
	api.Post("/auth/refresh", Refresh(d.Auth, d.Identity, v))
	api.Post("/auth/signout", auth, SignOut(d.Auth))
	api.Get("/auth/me", auth, Me())

	// --- Dashboard ---
	api.Get("/me/profile", auth, GetProfile(s.Profiles))
	api.Put("/me/profile", auth, UpdateProfile(s.Profiles, d.Identity, v))
	api.Get("/me/applications", auth, MyApplications(s))
	api.Post("/scrims/:id/applications", auth, ApplyToScrim(s.ScrimApplications, v, n))
	api.Post("/teams/:id/applications", auth, ApplyToRoster(s.TeamApplications, n))
	api.Post("/tryouts/:id/applications", auth, ApplyToTryout(s, v, n))

	// --- Admin ---
	admin := api.Group("/admin", auth, middleware.RequireRole(models.RoleAdmin))
	admin.Get("/overview", Overview(s))

	admin.Get("/teams", listAll(func(ctx context.Context) ([]models.Team, error) { return s.Teams.List(ctx, "") }))
	admin.Post("/teams", create[models.Team, validation.Team](s.Teams, v, nil))
	admin.Put("/teams/:id", update[models.Team, validation.Team](s.Teams, v, nil))
	admin.Delete("/teams/:id", remove(s.Teams.Delete))

	// Roster entries. /admin/players is the account list below.
	admin.Get("/team-players", ListPlayers(s.Players))
	admin.Post("/team-players", create[models.Player, validation.Player](s.Players, v, nil))
	admin.Put("/team-players/:id", update[models.Player, validation.Player](s.Players, v, nil))
	admin.Delete("/team-players/:id", remove(s.Players.Delete))

	admin.Get("/achievements", listAll(func(ctx context.Context) ([]models.AchievementView, error) { return s.Achievements.Recent(ctx, 0) }))
	admin.Post("/achievements", create[models.Achievement, validation.Achievement](s.Achievements, v, nil))
	admin.Put("/achievements/:id", update[models.Achievement, validation.Achievement](s.Achievements, v, nil))
	admin.Delete("/achievements/:id", remove(s.Achievements.Delete))

	admin.Get("/sponsors", listAll(s.Sponsors.List))
	admin.Post("/sponsors", create[models.Sponsor, validation.Sponsor](s.Sponsors, v, nil))
	admin.Put("/sponsors/:id", update[models.Sponsor, validation.Sponsor](s.Sponsors, v, nil))
	admin.Delete("/sponsors/:id", remove(s.Sponsors.Delete))

	admin.Get("/tryouts", listAll(s.Tryouts.All))
	admin.Post("/tryouts", create[models.Tryout, validation.Tryout](s.Tryouts, v, nil))
	admin.Put("/tryouts/:id", update[models.Tryout, validation.Tryout](s.Tryouts, v, nil))
	admin.Delete("/tryouts/:id", remove(s.Tryouts.Delete))

	admin.Get("/scrims", listAll(s.Scrims.All))
	admin.Post("/scrims", create[models.Scrim, validation.Scrim](s.Scrims, v, nil))
	admin.Put("/scrims/:id", update[models.Scrim, validation.Scrim](s.Scrims, v, nil))
	admin.Delete("/scrims/:id", remove(s.Scrims.Delete))

	admin.Get("/streams", listAll(s.Streams.All))
	admin.Post("/streams", create[models.Stream, validation.Stream](s.Streams, v, nil))
	admin.Put("/streams/:id", update[models.Stream, validation.Stream](s.Streams, v, nil))
	admin.Delete("/streams/:id", remove(s.Streams.Delete))
	admin.Patch("/streams/:id/live", toggle(s.Streams.SetLive, v, nil))
	admin.Post("/streams/:id/key", RegenerateStreamKey(s.Streams, v))

	published := announcementPublished(n)
	admin.Get("/announcements", listAll(s.Announcements.All))
	admin.Post("/announcements", create[models.Announcement, validation.Announcement](s.Announcements, v, published))
	admin.Put("/announcements/:id", update[models.Announcement, validation.Announcement](s.Announcements, v, published))
	admin.Delete("/announcements/:id", remove(s.Announcements.Delete))
	admin.Patch("/announcements/:id/publish", toggle(s.Announcements.SetPublished, v, published))

	admin.Get("/news", listAll(s.News.All))
	admin.Post("/news", create[models.NewsItem, validation.News](s.News, v, nil))
	admin.Put("/news/:id", update[models.NewsItem, validation.News](s.News, v, nil))
	admin.Delete("/news/:id", remove(s.News.Delete))
	admin.Patch("/news/:id/publish", toggle(s.News.SetPublished, v, nil))

	admin.Get("/games", listAll(s.Games.List))
	admin.Post("/games", CreateGame(s.Games, v))
	admin.Delete("/games/:id", remove(s.Games.Delete))

	admin.Get("/applications", ListApplications(s.ScrimApplications))
	admin.Patch("/applications/:id", setStatus(s.ScrimApplications.SetStatus, v,
		statusChanged(n, events.ApplicationStatusChanged, func(a models.ScrimApplication) (uuid.UUID, models.ApplicationStatus) {
			return a.ID, a.Status
		})))

	admin.Get("/rosters", listAll(s.TeamApplications.Pending))
	admin.Patch("/rosters/:id", setStatus(s.TeamApplications.SetStatus, v,
		statusChanged(n, events.TeamApplicationStatusChange, func(a models.TeamApplication) (uuid.UUID, models.ApplicationStatus) {
			return a.ID, a.Status
		})))

	admin.Get("/registrations", ListRegistrations(s.Registrations))
	admin.Patch("/registrations/:id", setStatus(s.Registrations.SetStatus, v, nil))

	admin.Get("/tryout-applications", ListTryoutApplications(s.TryoutApplications))
	admin.Patch("/tryout-applications/:id", setStatus(s.TryoutApplications.SetStatus, v, nil))

	admin.Get("/players", ListAccounts(s))
	admin.Put("/players/:userId/role", SetRole(s.Roles, d.Identity, v, n))
	admin.Get("/contact", ListContact(s.Contact))
}
