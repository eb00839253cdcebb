package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

type Teams struct {
	t       Table[models.Team]
	players Table[models.Player]
}

// List returns teams by name, optionally narrowed to one category.
func (r *Teams) List(ctx context.Context, category string) ([]models.Team, error) {
	q := Query{}.OrderBy("name", false)
	if category != "" {
		q = q.Eq("category", category)
	}
	return r.t.List(ctx, q)
}

func (r *Teams) Get(ctx context.Context, id uuid.UUID) (models.Team, error) {
	return r.t.Get(ctx, id)
}

// Categories returns the distinct categories in use, sorted.
func (r *Teams) Categories(ctx context.Context) ([]string, error) {
	teams, err := r.t.List(ctx, Query{})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, t := range teams {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// WithPlayerCounts returns up to limit teams, oldest first, with roster sizes.
func (r *Teams) WithPlayerCounts(ctx context.Context, limit int) ([]models.TeamWithCount, error) {
	teams, err := r.t.List(ctx, Query{}.OrderBy("created_at", false).Take(limit))
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamWithCount, len(teams))
	if len(teams) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	players, err := r.players.List(ctx, Query{}.In("team_id", ids))
	if err != nil {
		return nil, err
	}
	counts := map[uuid.UUID]int{}
	for _, p := range players {
		counts[p.TeamID]++
	}
	for i, t := range teams {
		out[i] = models.TeamWithCount{Team: t, PlayerCount: counts[t.ID]}
	}
	return out, nil
}

func (r *Teams) Create(ctx context.Context, values Values) (models.Team, error) {
	return r.t.Create(ctx, values)
}

func (r *Teams) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Team, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Teams) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type Players struct {
	t Table[models.Player]
}

// List returns every player by name, or one team's roster when teamID is set.
func (r *Players) List(ctx context.Context, teamID *uuid.UUID) ([]models.Player, error) {
	q := Query{}.OrderBy("name", false)
	if teamID != nil {
		q = q.Eq("team_id", *teamID)
	}
	return r.t.List(ctx, q)
}

func (r *Players) Create(ctx context.Context, values Values) (models.Player, error) {
	return r.t.Create(ctx, values)
}

func (r *Players) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Player, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Players) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type Achievements struct {
	t     Table[models.Achievement]
	teams Table[models.Team]
}

// Recent returns the newest achievements joined with their team's name and game.
func (r *Achievements) Recent(ctx context.Context, limit int) ([]models.AchievementView, error) {
	rows, err := r.t.List(ctx, Query{}.OrderBy("created_at", true).Take(limit))
	if err != nil {
		return nil, err
	}
	return r.join(ctx, rows)
}

func (r *Achievements) ByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Achievement, error) {
	return r.t.List(ctx, Query{}.Eq("team_id", teamID).OrderBy("year", true))
}

func (r *Achievements) join(ctx context.Context, rows []models.Achievement) ([]models.AchievementView, error) {
	out := make([]models.AchievementView, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	teams, err := r.teams.List(ctx, Query{}.In("id", uniqueIDs(rows, func(a models.Achievement) uuid.UUID { return a.TeamID })))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	for i, a := range rows {
		t := byID[a.TeamID]
		out[i] = models.AchievementView{Achievement: a, TeamName: t.Name, TeamGame: t.Game}
	}
	return out, nil
}

func (r *Achievements) Create(ctx context.Context, values Values) (models.Achievement, error) {
	return r.t.Create(ctx, values)
}

func (r *Achievements) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Achievement, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Achievements) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type Sponsors struct {
	t Table[models.Sponsor]
}

// List returns sponsors headline tier first.
func (r *Sponsors) List(ctx context.Context) ([]models.Sponsor, error) {
	return r.t.List(ctx, Query{}.OrderBy("tier", false).OrderBy("name", false))
}

func (r *Sponsors) Create(ctx context.Context, values Values) (models.Sponsor, error) {
	return r.t.Create(ctx, values)
}

func (r *Sponsors) Update(ctx context.Context, id uuid.UUID, expected *time.Time, values Values) (models.Sponsor, error) {
	return r.t.Update(ctx, id, expected, values)
}

func (r *Sponsors) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

type Games struct {
	t Table[models.Game]
}

func (r *Games) List(ctx context.Context) ([]models.Game, error) {
	return r.t.List(ctx, Query{}.OrderBy("name", false))
}

func (r *Games) Create(ctx context.Context, name string) (models.Game, error) {
	return r.t.Create(ctx, Values{"name": name})
}

func (r *Games) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.Delete(ctx, id)
}

// uniqueIDs collects the distinct ids key extracts from rows, in first-seen order.
func uniqueIDs[T any](rows []T, key func(T) uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(rows))
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		id := key(r)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
