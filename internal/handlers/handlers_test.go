package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/handlers"
	"github.com/muhammadsaim216/prime-esports/internal/logging"
	"github.com/muhammadsaim216/prime-esports/internal/metrics"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/session"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/store/storetest"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
	"github.com/muhammadsaim216/prime-esports/internal/websocket"
)

// fakeAuth accepts the tokens it was seeded with and one password.
type fakeAuth struct {
	users map[string]*baas.User
}

func (a *fakeAuth) VerifyToken(_ context.Context, token string) (*baas.User, error) {
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, baas.ErrInvalidToken
}

func (a *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*baas.Session, error) {
	for token, u := range a.users {
		if u.Email == email && password == "hunter22" {
			return &baas.Session{AccessToken: token, RefreshToken: "r-" + token, User: u}, nil
		}
	}
	return nil, &baas.Error{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
}

func (a *fakeAuth) SignUp(context.Context, string, string, baas.SignUpMetadata) (*baas.Session, error) {
	// Email confirmation pending: no tokens yet.
	return &baas.Session{User: &baas.User{ID: uuid.New()}}, nil
}

func (a *fakeAuth) SignOut(context.Context, string) error { return nil }

func (a *fakeAuth) Refresh(context.Context, string) (*baas.Session, error) {
	return nil, baas.ErrInvalidToken
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.got))
	for i, ev := range p.got {
		out[i] = ev.Type
	}
	return out
}

type staticFeed []models.Announcement

func (f staticFeed) Items() []models.Announcement { return f }

type harness struct {
	app    *fiber.App
	store  *store.Store
	mem    *storetest.Memory
	pub    *recordingPublisher
	admin  *baas.User
	member *baas.User
}

func newHarness(t *testing.T, feed handlers.AnnouncementSource) *harness {
	t.Helper()
	log := logging.Discard()
	mem := storetest.NewMemory().
		Unique(store.TableTeamApplications, "team_id", "user_id").
		Unique(store.TableScrimApplications, "scrim_id", "user_id").
		View(store.ViewStreamsPublic, store.TableStreams)
	s := store.New(mem)

	h := &harness{
		store:  s,
		mem:    mem,
		pub:    &recordingPublisher{},
		admin:  &baas.User{ID: uuid.New(), Email: "boss@prime.gg"},
		member: &baas.User{ID: uuid.New(), Email: "rookie@prime.gg"},
	}
	_, err := s.Roles.Set(context.Background(), h.admin.ID, models.RoleAdmin)
	require.NoError(t, err)

	if feed == nil {
		feed = staticFeed{}
	}
	h.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(log)})
	handlers.Register(h.app, handlers.Deps{
		Store:     s,
		Auth:      &fakeAuth{users: map[string]*baas.User{"admin-token": h.admin, "member-token": h.member}},
		Identity:  session.NewResolver(s.Roles, s.Profiles, log),
		Validator: validation.New(),
		Feed:      feed,
		Hub:       websocket.NewHub(),
		Notifier:  events.NewNotifier(h.pub, log),
		Sockets:   metrics.New(),
		Log:       log,
		Started:   time.Now(),
	})
	return h
}

// do sends a JSON request and decodes the JSON answer into out (when non-nil).
func (h *harness) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, staticFeed{{ID: uuid.New(), IsPublished: true}})
	var body map[string]any
	assert.Equal(t, fiber.StatusOK, h.do(t, "GET", "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["announcements"])
}

func TestHomeShowsOnlyPublishedNews(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	_, err := h.store.Teams.Create(ctx, store.Values{"name": "Prime Blue", "game": "Valorant", "category": "FPS"})
	require.NoError(t, err)
	_, err = h.store.News.Create(ctx, store.Values{"title": "Roster reveal", "content": "...", "category": "Team", "is_published": true})
	require.NoError(t, err)
	_, err = h.store.News.Create(ctx, store.Values{"title": "Draft", "content": "...", "category": "Team", "is_published": false})
	require.NoError(t, err)

	var home handlers.HomeResponse
	require.Equal(t, fiber.StatusOK, h.do(t, "GET", "/api/v1/home", "", nil, &home))
	require.Len(t, home.Teams, 1)
	assert.Equal(t, "Prime Blue", home.Teams[0].Name)
	require.Len(t, home.News, 1)
	assert.Equal(t, "Roster reveal", home.News[0].Title)
	assert.Empty(t, home.Sponsors)
}

func TestAnnouncementsComeFromFeed(t *testing.T) {
	a := models.Announcement{ID: uuid.New(), Title: "Maintenance", IsPublished: true}
	h := newHarness(t, staticFeed{a})

	var got []models.Announcement
	require.Equal(t, fiber.StatusOK, h.do(t, "GET", "/api/v1/announcements", "", nil, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Maintenance", got[0].Title)
}

func TestContactValidation(t *testing.T) {
	h := newHarness(t, nil)

	var bad struct {
		Fields map[string]string `json:"fields"`
	}
	status := h.do(t, "POST", "/api/v1/contact", "", map[string]any{
		"name": "Sam", "email": "not-an-email", "subject": "Hi", "message": "short",
	}, &bad)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "Invalid email address", bad.Fields["email"])
	assert.Equal(t, "Please provide at least 10 characters", bad.Fields["message"])

	status = h.do(t, "POST", "/api/v1/contact", "", map[string]any{
		"name": "Sam", "email": "sam@example.com", "subject": "Sponsorship", "message": "We would like to talk.",
	}, nil)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Len(t, h.mem.Rows(store.TableContactMessages), 1)
	assert.Equal(t, []events.Type{events.ContactSubmitted}, h.pub.types())
}

func TestRosterRequestTwiceIsConflict(t *testing.T) {
	h := newHarness(t, nil)
	team, err := h.store.Teams.Create(context.Background(), store.Values{"name": "Prime Blue", "game": "Valorant", "category": "FPS"})
	require.NoError(t, err)
	path := "/api/v1/teams/" + team.ID.String() + "/applications"

	assert.Equal(t, fiber.StatusUnauthorized, h.do(t, "POST", path, "", nil, nil))
	assert.Equal(t, fiber.StatusCreated, h.do(t, "POST", path, "member-token", nil, nil))

	var body map[string]any
	assert.Equal(t, fiber.StatusConflict, h.do(t, "POST", path, "member-token", nil, &body))
	assert.Equal(t, "You have already applied for this roster!", body["error"])
	assert.Len(t, h.mem.Rows(store.TableTeamApplications), 1)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, fiber.StatusUnauthorized, h.do(t, "GET", "/api/v1/admin/overview", "", nil, nil))
	assert.Equal(t, fiber.StatusForbidden, h.do(t, "GET", "/api/v1/admin/overview", "member-token", nil, nil))

	var ov store.Overview
	assert.Equal(t, fiber.StatusOK, h.do(t, "GET", "/api/v1/admin/overview", "admin-token", nil, &ov))
	assert.Empty(t, ov.RecentApplications)
}

func TestAdminEditRequiresCurrentVersion(t *testing.T) {
	h := newHarness(t, nil)

	var team models.Team
	require.Equal(t, fiber.StatusCreated, h.do(t, "POST", "/api/v1/admin/teams", "admin-token",
		map[string]any{"name": "Prime Blue", "game": "Valorant", "category": "FPS"}, &team))
	path := "/api/v1/admin/teams/" + team.ID.String()
	loaded := team.UpdatedAt

	var missing struct {
		Fields map[string]string `json:"fields"`
	}
	assert.Equal(t, fiber.StatusUnprocessableEntity, h.do(t, "PUT", path, "admin-token",
		map[string]any{"name": "Prime Azure", "game": "Valorant", "category": "FPS"}, &missing))
	assert.Contains(t, missing.Fields, "version")

	time.Sleep(time.Millisecond)
	var saved models.Team
	require.Equal(t, fiber.StatusOK, h.do(t, "PUT", path, "admin-token",
		map[string]any{"name": "Prime Azure", "game": "Valorant", "category": "FPS", "version": loaded}, &saved))
	assert.Equal(t, "Prime Azure", saved.Name)

	// A second dialog still holding the first version loses.
	var stale map[string]any
	assert.Equal(t, fiber.StatusConflict, h.do(t, "PUT", path, "admin-token",
		map[string]any{"name": "Prime Red", "game": "Valorant", "category": "FPS", "version": loaded}, &stale))
	assert.Equal(t, true, stale["stale"])

	got, err := h.store.Teams.Get(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prime Azure", got.Name)
}

func TestApproveApplicationAcceptsLegacySpelling(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	scrim, err := h.store.Scrims.Create(ctx, store.Values{
		"title": "Friday scrim", "game": "Valorant", "scheduled_at": time.Now().Add(time.Hour),
		"max_players": 10, "status": models.ScrimStatusUpcoming,
	})
	require.NoError(t, err)
	app, err := h.store.ScrimApplications.Apply(ctx, scrim.ID, h.member.ID, "I play Sova every day")
	require.NoError(t, err)

	var out models.ScrimApplication
	require.Equal(t, fiber.StatusOK, h.do(t, "PATCH", "/api/v1/admin/applications/"+app.ID.String(), "admin-token",
		map[string]any{"status": "accepted", "version": app.UpdatedAt}, &out))
	assert.Equal(t, models.ApplicationStatusApproved, out.Status)
	assert.Contains(t, h.pub.types(), events.ApplicationStatusChanged)

	var approved []models.ScrimApplicationView
	require.Equal(t, fiber.StatusOK, h.do(t, "GET", "/api/v1/admin/applications?status=approved", "admin-token", nil, &approved))
	assert.Len(t, approved, 1)
	assert.Equal(t, fiber.StatusBadRequest, h.do(t, "GET", "/api/v1/admin/applications?status=maybe", "admin-token", nil, nil))
}

func TestSetRoleTakesEffect(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, fiber.StatusForbidden, h.do(t, "GET", "/api/v1/admin/overview", "member-token", nil, nil))

	path := "/api/v1/admin/players/" + h.member.ID.String() + "/role"
	assert.Equal(t, fiber.StatusUnprocessableEntity, h.do(t, "PUT", path, "admin-token", map[string]any{"role": "owner"}, nil))
	assert.Equal(t, fiber.StatusOK, h.do(t, "PUT", path, "admin-token", map[string]any{"role": "admin"}, nil))

	assert.Equal(t, fiber.StatusOK, h.do(t, "GET", "/api/v1/admin/overview", "member-token", nil, nil))
	assert.Contains(t, h.pub.types(), events.RoleChanged)
}

func TestSignInReturnsIdentity(t *testing.T) {
	h := newHarness(t, nil)

	var resp handlers.SessionResponse
	require.Equal(t, fiber.StatusOK, h.do(t, "POST", "/api/v1/auth/signin", "",
		map[string]any{"email": "boss@prime.gg", "password": "hunter22"}, &resp))
	require.NotNil(t, resp.Identity)
	assert.True(t, resp.Identity.IsAdmin)
	assert.Equal(t, "admin-token", resp.Session.AccessToken)

	var body map[string]any
	assert.Equal(t, fiber.StatusBadRequest, h.do(t, "POST", "/api/v1/auth/signin", "",
		map[string]any{"email": "boss@prime.gg", "password": "wrong-password"}, &body))
	assert.Equal(t, "Invalid login credentials", body["error"])
}

func TestSignUpWithoutTokensHasNoIdentity(t *testing.T) {
	h := newHarness(t, nil)

	var resp handlers.SessionResponse
	require.Equal(t, fiber.StatusCreated, h.do(t, "POST", "/api/v1/auth/signup", "", map[string]any{
		"username": "new_player", "email": "new@prime.gg", "password": "secret1",
		"confirmPassword": "secret1", "terms": true,
	}, &resp))
	assert.Nil(t, resp.Identity)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logging.Discard())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: connection reset") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "something went wrong", body["error"])
}
