package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/logging"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/store/storetest"
)

type roleFunc func(ctx context.Context, id uuid.UUID) (models.Role, error)

func (f roleFunc) RoleOf(ctx context.Context, id uuid.UUID) (models.Role, error) { return f(ctx, id) }

type nameFunc func(ctx context.Context, id uuid.UUID) (*string, error)

func (f nameFunc) UsernameOf(ctx context.Context, id uuid.UUID) (*string, error) { return f(ctx, id) }

func strptr(s string) *string { return &s }

func TestResolveRunsLookupsConcurrently(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Each lookup waits for the other to start; run in sequence they would
	// both time out.
	roleStarted, nameStarted := make(chan struct{}), make(chan struct{})
	roles := roleFunc(func(ctx context.Context, _ uuid.UUID) (models.Role, error) {
		close(roleStarted)
		select {
		case <-nameStarted:
			return models.RoleAdmin, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	names := nameFunc(func(ctx context.Context, _ uuid.UUID) (*string, error) {
		close(nameStarted)
		select {
		case <-roleStarted:
			return strptr("boss"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	id := NewResolver(roles, names, logging.Discard()).Resolve(ctx, &baas.User{ID: uuid.New()})
	assert.True(t, id.IsAdmin)
	assert.Equal(t, models.RoleAdmin, id.Role)
	require.NotNil(t, id.Username)
	assert.Equal(t, "boss", *id.Username)
}

func TestResolveFailsOpen(t *testing.T) {
	ctx := context.Background()
	mem := storetest.NewMemory()
	s := store.New(mem)
	r := NewResolver(s.Roles, s.Profiles, logging.Discard())
	user := &baas.User{ID: uuid.New(), Email: "ana@example.com"}

	// No rows at all.
	id := r.Resolve(ctx, user)
	assert.False(t, id.IsAdmin)
	assert.Equal(t, models.RoleUser, id.Role)
	assert.Nil(t, id.Username)
	assert.Equal(t, "ana@example.com", id.Email)

	// An admin whose role lookup errors is still not an admin.
	_, err := s.Roles.Set(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	mem.Seed(store.TableProfiles, models.Profile{ID: uuid.New(), UserID: user.ID, Username: strptr("ana")})
	mem.Fail(store.TableUserRoles, errors.New("connection reset"))

	id = r.Resolve(ctx, user)
	assert.False(t, id.IsAdmin)
	assert.Equal(t, models.RoleUser, id.Role)
	require.NotNil(t, id.Username)
	assert.Equal(t, "ana", *id.Username)

	mem.Fail(store.TableUserRoles, nil)
	assert.True(t, r.Resolve(ctx, user).IsAdmin)
}

type mapCache struct {
	mu sync.Mutex
	m  map[uuid.UUID]Identity
}

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[id]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id.UserID] = id
}

func (c *mapCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
}

func TestResolveCachesCompleteResults(t *testing.T) {
	ctx := context.Background()
	calls := 0
	var fail bool
	roles := roleFunc(func(context.Context, uuid.UUID) (models.Role, error) {
		calls++
		if fail {
			return "", errors.New("down")
		}
		return models.RoleAdmin, nil
	})
	names := nameFunc(func(context.Context, uuid.UUID) (*string, error) { return nil, nil })

	cache := &mapCache{m: map[uuid.UUID]Identity{}}
	r := NewResolver(roles, names, logging.Discard()).WithCache(cache)
	user := &baas.User{ID: uuid.New()}

	fail = true
	assert.False(t, r.Resolve(ctx, user).IsAdmin)
	_, cached := cache.Get(ctx, user.ID)
	assert.False(t, cached, "fallback identities are not cached")

	fail = false
	assert.True(t, r.Resolve(ctx, user).IsAdmin)
	assert.True(t, r.Resolve(ctx, user).IsAdmin)
	assert.Equal(t, 2, calls)

	r.Forget(ctx, user.ID)
	r.Resolve(ctx, user)
	assert.Equal(t, 3, calls)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedisCache(rdb, time.Minute, logging.Discard())
	id := Identity{UserID: uuid.New(), Role: models.RoleAdmin, IsAdmin: true, Username: strptr("boss")}
	c.Set(ctx, id)

	got, ok := c.Get(ctx, id.UserID)
	require.True(t, ok)
	assert.Equal(t, id, got)

	c.Invalidate(ctx, id.UserID)
	_, ok = c.Get(ctx, id.UserID)
	assert.False(t, ok)
}
