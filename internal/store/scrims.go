package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

var activeScrimStatuses = []models.ScrimStatus{models.ScrimStatusUpcoming, models.ScrimStatusLive}

type Scrims struct {
	t Table[models.Scrim]
}

// Active returns upcoming and live scrims, soonest first.
func (r *Scrims) Active(ctx context.Context) ([]models.Scrim, error) {
	return r.t.List(ctx, Query{}.In("status", activeScrimStatuses).OrderBy("scheduled_at", false))
}

// All returns every scrim, latest schedule first, for the admin screen.
func (r *Scrims) All(ctx context.Context) ([]models.Scrim, error) {
	return r.t.List(ctx, Query{}.OrderBy("scheduled_at", true))
}

func (r *Scrims) Get(ctx context.Context, id uuid.UUID) (models.Scrim, error) {
	return r.t.Get(ctx, id)
}

func (r *Scrims) CountActive(ctx context.Context) (int64, error) {
	return r.t.Count(ctx, Query{}.In("status", activeScrimStatuses))
}

func (r *Scrims) Create(ctx context.Context, values Values) (models.Scrim, error) {
	return r.t.Create(ctx, values)
}

func (r *Scrims) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Scrim, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Scrims) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

func (r *Scrims) summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ScrimSummary, error) {
	out := make(map[uuid.UUID]models.ScrimSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.t.List(ctx, Query{}.In("id", ids))
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = models.ScrimSummary{ID: s.ID, Title: s.Title, Game: s.Game, ScheduledAt: s.ScheduledAt, Status: s.Status}
	}
	return out, nil
}

// ScrimApplications are individual requests to join a scrim.
type ScrimApplications struct {
	t        Table[models.ScrimApplication]
	scrims   *Scrims
	profiles *Profiles
}

// Apply files a pending application. Applying twice to one scrim returns ErrDuplicate.
func (r *ScrimApplications) Apply(ctx context.Context, scrimID, userID uuid.UUID, message string) (models.ScrimApplication, error) {
	if _, err := r.scrims.Get(ctx, scrimID); err != nil {
		return models.ScrimApplication{}, err
	}
	return r.t.Create(ctx, Values{
		"scrim_id": scrimID,
		"user_id":  userID,
		"message":  message,
		"status":   models.ApplicationStatusPending,
	})
}

// Mine returns the caller's applications, newest first.
func (r *ScrimApplications) Mine(ctx context.Context, userID uuid.UUID) ([]models.ScrimApplicationView, error) {
	return r.view(ctx, Query{}.Eq("user_id", userID).OrderBy("created_at", true))
}

// List returns applications newest first, optionally with one status.
func (r *ScrimApplications) List(ctx context.Context, status models.ApplicationStatus) ([]models.ScrimApplicationView, error) {
	q := Query{}.OrderBy("created_at", true)
	if status != "" {
		q = q.Eq("status", status)
	}
	return r.view(ctx, q)
}

// Recent returns the n newest applications.
func (r *ScrimApplications) Recent(ctx context.Context, n int) ([]models.ScrimApplicationView, error) {
	return r.view(ctx, Query{}.OrderBy("created_at", true).Take(n))
}

func (r *ScrimApplications) CountPending(ctx context.Context) (int64, error) {
	return r.t.Count(ctx, Query{}.Eq("status", models.ApplicationStatusPending))
}

func (r *ScrimApplications) SetStatus(ctx context.Context, id uuid.UUID, expected *time.Time, status models.ApplicationStatus) (models.ScrimApplication, error) {
	return r.t.Update(ctx, id, expected, Values{"status": status})
}

func (r *ScrimApplications) view(ctx context.Context, q Query) ([]models.ScrimApplicationView, error) {
	rows, err := r.t.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScrimApplicationView, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	scrims, err := r.scrims.summaries(ctx, uniqueIDs(rows, func(a models.ScrimApplication) uuid.UUID { return a.ScrimID }))
	if err != nil {
		return nil, err
	}
	applicants, err := r.profiles.Summaries(ctx, uniqueIDs(rows, func(a models.ScrimApplication) uuid.UUID { return a.UserID }))
	if err != nil {
		return nil, err
	}

	for i, a := range rows {
		v := models.ScrimApplicationView{ScrimApplication: a}
		if s, ok := scrims[a.ScrimID]; ok {
			v.Scrim = &s
		}
		if p, ok := applicants[a.UserID]; ok {
			v.Applicant = &p
		}
		out[i] = v
	}
	return out, nil
}

// Registrations enter whole teams into a scrim.
type Registrations struct {
	t      Table[models.Registration]
	scrims *Scrims
}

func (r *Registrations) Create(ctx context.Context, scrimID uuid.UUID, values Values) (models.Registration, error) {
	if _, err := r.scrims.Get(ctx, scrimID); err != nil {
		return models.Registration{}, err
	}
	values["scrim_id"] = scrimID
	values["status"] = models.ApplicationStatusPending
	return r.t.Create(ctx, values)
}

// List returns registrations newest first, optionally for one scrim.
func (r *Registrations) List(ctx context.Context, scrimID *uuid.UUID) ([]models.Registration, error) {
	q := Query{}.OrderBy("created_at", true)
	if scrimID != nil {
		q = q.Eq("scrim_id", *scrimID)
	}
	return r.t.List(ctx, q)
}

func (r *Registrations) SetStatus(ctx context.Context, id uuid.UUID, expected *time.Time, status models.ApplicationStatus) (models.Registration, error) {
	return r.t.Update(ctx, id, expected, Values{"status": status})
}
