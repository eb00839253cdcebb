package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/logging"
	"github.com/muhammadsaim216/prime-esports/internal/models"
)

func TestWhereRendersFilters(t *testing.T) {
	id := uuid.New()
	q := Query{}.
		Eq("id", id).
		Eq("team_id", nil).
		In("status", []string{"open", "closing_soon"}).
		Where("username", OpILike, "ana")

	cond, args := where(q)
	assert.Equal(t, "id = ? AND team_id IS NULL AND status IN ? AND username ILIKE ?", cond)
	require.Len(t, args, 3)
	assert.Equal(t, id, args[0])
	assert.Equal(t, []string{"open", "closing_soon"}, args[1])
	assert.Equal(t, "%ana%", args[2])
}

func TestFormatValue(t *testing.T) {
	id := uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a")
	ts := time.Date(2025, 3, 1, 12, 0, 0, 500, time.FixedZone("CET", 3600))

	assert.Equal(t, "8a6e0804-2bd0-4672-b79d-d97027f9071a", formatValue(id))
	assert.Equal(t, "2025-03-01T11:00:00.0000005Z", formatValue(ts))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "upcoming", formatValue(models.ScrimStatusUpcoming))
	assert.Equal(t, "null", formatValue(nil))
	assert.Equal(t, "10", formatValue(10))

	list, err := formatList([]models.TryoutStatus{models.TryoutStatusOpen, models.TryoutStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "closed"}, list)

	_, err = formatList("open")
	assert.Error(t, err)
}

func restBackend(t *testing.T, h http.HandlerFunc) *RestBackend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := baas.New(baas.Options{URL: srv.URL, AnonKey: "anon", Timeout: 5 * time.Second}, logging.Discard())
	return NewRestBackend(c)
}

func TestRestBackendMapsUniqueViolation(t *testing.T) {
	b := restBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint \"team_applications_team_id_user_id_key\""}`)
	})

	s := New(b)
	_, err := s.TeamApplications.t.Create(context.Background(), Values{"team_id": uuid.New(), "user_id": uuid.New()})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRestBackendStaleUpdate(t *testing.T) {
	id := uuid.New()
	b := restBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			// The version filter matched nothing.
			assert.NotEmpty(t, r.URL.Query().Get("updated_at"))
			_, _ = io.WriteString(w, `[]`)
		case http.MethodHead:
			w.Header().Set("Content-Range", "0-0/1")
		default:
			t.Errorf("unexpected %s", r.Method)
		}
	})

	tbl := NewVersionedTable[models.Announcement](b, TableAnnouncements)
	v := time.Now()
	_, err := tbl.Update(context.Background(), id, &v, Values{"title": "x"})
	assert.ErrorIs(t, err, ErrStale)
}

func TestRestBackendForbidden(t *testing.T) {
	b := restBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"code":"42501","message":"new row violates row-level security policy"}`)
	})

	tbl := NewTable[models.Game](b, TableGames)
	_, err := tbl.Create(context.Background(), Values{"name": "Valorant"})
	assert.ErrorIs(t, err, ErrForbidden)
}
