package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// Profiles reads and edits the public profile attached to each account.
type Profiles struct {
	t Table[models.Profile]
}

func (p *Profiles) ByUser(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	return p.t.First(ctx, Query{}.Eq("user_id", userID))
}

// UsernameOf returns the chosen username, or nil when the account has no profile
// row or has not picked one.
func (p *Profiles) UsernameOf(ctx context.Context, userID uuid.UUID) (*string, error) {
	prof, err := p.ByUser(ctx, userID)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prof.Username, nil
}

// UpdateOwn edits the caller's profile. expected may be nil.
func (p *Profiles) UpdateOwn(ctx context.Context, userID uuid.UUID, expected *time.Time, values Values) (models.Profile, error) {
	prof, err := p.ByUser(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return p.t.Update(ctx, prof.ID, expected, values)
}

// List returns profiles newest first, optionally narrowed by a username search.
func (p *Profiles) List(ctx context.Context, search string) ([]models.Profile, error) {
	q := Query{}.OrderBy("created_at", true)
	if search != "" {
		q = q.Where("username", OpILike, search)
	}
	return p.t.List(ctx, q)
}

func (p *Profiles) Count(ctx context.Context) (int64, error) {
	return p.t.Count(ctx, Query{})
}

// Summaries loads the applicant slice of the given accounts' profiles.
func (p *Profiles) Summaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSummary, error) {
	out := make(map[uuid.UUID]models.ProfileSummary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := p.t.List(ctx, Query{}.In("user_id", userIDs))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.UserID] = models.ProfileSummary{UserID: r.UserID, Username: r.Username, DiscordID: r.DiscordID}
	}
	return out, nil
}

// Roles reads and replaces role assignments.
type Roles struct {
	t Table[models.RoleAssignment]
}

// RoleOf returns the user's role. A missing assignment is RoleUser, not an error.
func (r *Roles) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	a, err := r.t.First(ctx, Query{}.Eq("user_id", userID))
	if IsNotFound(err) {
		return models.RoleUser, nil
	}
	if err != nil {
		return models.RoleUser, err
	}
	return models.ParseRole(string(a.Role)), nil
}

// Set replaces whatever assignment the user had with role.
func (r *Roles) Set(ctx context.Context, userID uuid.UUID, role models.Role) (models.RoleAssignment, error) {
	if _, err := r.t.DeleteWhere(ctx, Query{}.Eq("user_id", userID)); err != nil {
		return models.RoleAssignment{}, err
	}
	return r.t.Create(ctx, Values{"user_id": userID, "role": role})
}

// Map returns the role of every listed user; users without a row are RoleUser.
func (r *Roles) Map(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Role, error) {
	out := make(map[uuid.UUID]models.Role, len(userIDs))
	for _, id := range userIDs {
		out[id] = models.RoleUser
	}
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.t.List(ctx, Query{}.In("user_id", userIDs))
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.UserID] = models.ParseRole(string(a.Role))
	}
	return out, nil
}

// PlayerAccounts backs the admin players screen: profiles merged with roles,
// optionally filtered to one role.
func (s *Store) PlayerAccounts(ctx context.Context, search string, role models.Role) ([]models.PlayerAccount, error) {
	profiles, err := s.Profiles.List(ctx, search)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	roles, err := s.Roles.Map(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PlayerAccount, 0, len(profiles))
	for _, p := range profiles {
		r, ok := roles[p.UserID]
		if !ok {
			r = models.RoleUser
		}
		acct := models.PlayerAccount{Profile: p, Role: r}
		if role != "" && acct.Role != role {
			continue
		}
		out = append(out, acct)
	}
	return out, nil
}
