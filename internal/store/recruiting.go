package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

type Tryouts struct {
	t Table[models.Tryout]
}

// Open returns listings still taking applicants, nearest deadline first.
func (r *Tryouts) Open(ctx context.Context) ([]models.Tryout, error) {
	q := Query{}.
		In("status", []models.TryoutStatus{models.TryoutStatusOpen, models.TryoutStatusClosingSoon}).
		OrderBy("deadline", false)
	return r.t.List(ctx, q)
}

// All returns every listing by deadline, for the admin screen.
func (r *Tryouts) All(ctx context.Context) ([]models.Tryout, error) {
	return r.t.List(ctx, Query{}.OrderBy("deadline", false))
}

func (r *Tryouts) Get(ctx context.Context, id uuid.UUID) (models.Tryout, error) {
	return r.t.Get(ctx, id)
}

func (r *Tryouts) Create(ctx context.Context, values Values) (models.Tryout, error) {
	return r.t.Create(ctx, values)
}

func (r *Tryouts) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Tryout, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Tryouts) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type TryoutApplications struct {
	t Table[models.TryoutApplication]
}

func (r *TryoutApplications) Create(ctx context.Context, tryoutID, userID uuid.UUID, values Values) (models.TryoutApplication, error) {
	values["tryout_id"] = tryoutID
	values["user_id"] = userID
	values["status"] = models.ApplicationStatusPending
	return r.t.Create(ctx, values)
}

// List returns applications newest first, optionally for one listing.
func (r *TryoutApplications) List(ctx context.Context, tryoutID *uuid.UUID) ([]models.TryoutApplication, error) {
	q := Query{}.OrderBy("created_at", true)
	if tryoutID != nil {
		q = q.Eq("tryout_id", *tryoutID)
	}
	return r.t.List(ctx, q)
}

func (r *TryoutApplications) SetStatus(ctx context.Context, id uuid.UUID, expected *time.Time, status models.ApplicationStatus) (models.TryoutApplication, error) {
	return r.t.Update(ctx, id, expected, Values{"status": status})
}

// TeamApplications are roster requests: one per (team, user).
type TeamApplications struct {
	t        Table[models.TeamApplication]
	teams    Table[models.Team]
	profiles *Profiles
}

// Apply files a pending roster request. A second request for the same team
// returns ErrDuplicate.
func (r *TeamApplications) Apply(ctx context.Context, teamID, userID uuid.UUID) (models.TeamApplication, error) {
	if _, err := r.teams.Get(ctx, teamID); err != nil {
		return models.TeamApplication{}, err
	}
	return r.t.Create(ctx, Values{
		"team_id": teamID,
		"user_id": userID,
		"status":  models.ApplicationStatusPending,
	})
}

// Pending returns open roster requests, newest first, with team and applicant.
func (r *TeamApplications) Pending(ctx context.Context) ([]models.TeamApplicationView, error) {
	rows, err := r.t.List(ctx, Query{}.Eq("status", models.ApplicationStatusPending).OrderBy("created_at", true))
	if err != nil {
		return nil, err
	}
	return r.join(ctx, rows)
}

// Mine returns the caller's roster requests, newest first.
func (r *TeamApplications) Mine(ctx context.Context, userID uuid.UUID) ([]models.TeamApplicationView, error) {
	rows, err := r.t.List(ctx, Query{}.Eq("user_id", userID).OrderBy("created_at", true))
	if err != nil {
		return nil, err
	}
	return r.join(ctx, rows)
}

func (r *TeamApplications) join(ctx context.Context, rows []models.TeamApplication) ([]models.TeamApplicationView, error) {
	out := make([]models.TeamApplicationView, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	teams, err := r.teams.List(ctx, Query{}.In("id", uniqueIDs(rows, func(a models.TeamApplication) uuid.UUID { return a.TeamID })))
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	applicants, err := r.profiles.Summaries(ctx, uniqueIDs(rows, func(a models.TeamApplication) uuid.UUID { return a.UserID }))
	if err != nil {
		return nil, err
	}

	for i, a := range rows {
		v := models.TeamApplicationView{TeamApplication: a}
		if name, ok := names[a.TeamID]; ok {
			v.TeamName = &name
		}
		if p, ok := applicants[a.UserID]; ok {
			v.Applicant = &p
		}
		out[i] = v
	}
	return out, nil
}

func (r *TeamApplications) SetStatus(ctx context.Context, id uuid.UUID, expected *time.Time, status models.ApplicationStatus) (models.TeamApplication, error) {
	return r.t.Update(ctx, id, expected, Values{"status": status})
}
