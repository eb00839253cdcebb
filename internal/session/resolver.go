// Package session turns an authenticated account into the identity the rest of
// the site reads: role, admin flag and display name.
//
// Two pieces live here. Resolver answers "who is this user" for a single
// account by joining the role and profile lookups. Manager is the long-lived
// state object for one signed-in client; it drives the
// uninitialized → loading → ready lifecycle as auth events arrive.
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// Identity is the resolved view of an account.
type Identity struct {
	UserID   uuid.UUID   `json:"user_id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	IsAdmin  bool        `json:"is_admin"`
	Username *string     `json:"username"`
}

// RoleSource looks up a user's role. Implemented by store.Roles.
type RoleSource interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// UsernameSource looks up a user's display name. Implemented by store.Profiles.
type UsernameSource interface {
	UsernameOf(ctx context.Context, userID uuid.UUID) (*string, error)
}

// Cache stores resolved identities between requests.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (Identity, bool)
	Set(ctx context.Context, id Identity)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Resolver joins the role and username lookups for an account.
type Resolver struct {
	roles RoleSource
	names UsernameSource
	cache Cache
	log   *logrus.Logger
}

func NewResolver(roles RoleSource, names UsernameSource, log *logrus.Logger) *Resolver {
	return &Resolver{roles: roles, names: names, log: log}
}

// WithCache puts c in front of the lookups.
func (r *Resolver) WithCache(c Cache) *Resolver {
	r.cache = c
	return r
}

// Resolve never fails. Both lookups run at the same time and Resolve returns
// only after both have settled. A failed or empty role lookup yields RoleUser,
// a failed or empty profile lookup yields a nil Username.
func (r *Resolver) Resolve(ctx context.Context, user *baas.User) Identity {
	if r.cache != nil {
		if id, ok := r.cache.Get(ctx, user.ID); ok {
			return id
		}
	}

	var (
		role     = models.RoleUser
		username *string
		complete = true
	)

	// A plain Group: one lookup failing must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		got, err := r.roles.RoleOf(ctx, user.ID)
		if err != nil {
			r.log.WithError(err).WithField("user_id", user.ID).Warn("role lookup failed, treating as user")
			return err
		}
		role = got
		return nil
	})
	g.Go(func() error {
		got, err := r.names.UsernameOf(ctx, user.ID)
		if err != nil {
			r.log.WithError(err).WithField("user_id", user.ID).Warn("username lookup failed")
			return err
		}
		username = got
		return nil
	})
	if err := g.Wait(); err != nil {
		complete = false
	}

	id := Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     role,
		IsAdmin:  role == models.RoleAdmin,
		Username: username,
	}
	// Fallbacks are not cached so the next request retries the lookups.
	if complete && r.cache != nil {
		r.cache.Set(ctx, id)
	}
	return id
}

// Forget drops any cached identity for userID. Call it after a role change or
// a profile edit.
func (r *Resolver) Forget(ctx context.Context, userID uuid.UUID) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, userID)
	}
}
