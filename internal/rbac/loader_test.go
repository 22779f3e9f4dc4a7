package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	roles     []string
	perms     []Permission
	rolesErr  error
	permsErr  error
	loadCount int

	// onFetch runs before returning, used to simulate a concurrent
	// invalidation racing the load.
	onFetch func()
}

func (s *stubRepo) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	s.loadCount++
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.rolesErr != nil {
		return nil, s.rolesErr
	}
	return s.roles, nil
}

func (s *stubRepo) PermissionsForUser(ctx context.Context, userID int64) ([]Permission, error) {
	if s.permsErr != nil {
		return nil, s.permsErr
	}
	return s.perms, nil
}

func newTestLoader(t *testing.T, repo Repository) (*Loader, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := NewLoader(LoaderConfig{
		Repository:  repo,
		Redis:       client,
		LoadTimeout: time.Second,
		CacheTTL:    time.Minute,
	})
	return loader, client
}

func TestLoaderBuildsAndCachesSnapshot(t *testing.T) {
	repo := &stubRepo{
		roles: []string{"estimator"},
		perms: []Permission{{Resource: "quotes", Action: "update"}},
	}
	loader, _ := newTestLoader(t, repo)
	ctx := context.Background()

	snap := loader.Snapshot(ctx, 42)
	require.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Allow("quotes", "update"))
	assert.Equal(t, 1, repo.loadCount)

	// Second call is served from cache.
	again := loader.Snapshot(ctx, 42)
	assert.Equal(t, snap.Roles, again.Roles)
	assert.Equal(t, 1, repo.loadCount)
}

func TestLoaderInvalidateForcesReload(t *testing.T) {
	repo := &stubRepo{roles: []string{"estimator"}}
	loader, _ := newTestLoader(t, repo)
	ctx := context.Background()

	loader.Snapshot(ctx, 7)
	require.Equal(t, 1, repo.loadCount)

	loader.Invalidate(ctx, 7)
	repo.roles = []string{RoleManager}

	snap := loader.Snapshot(ctx, 7)
	assert.Equal(t, 2, repo.loadCount)
	assert.True(t, snap.IsManager)
}

func TestLoaderInvalidateAllForcesReload(t *testing.T) {
	repo := &stubRepo{roles: []string{"estimator"}}
	loader, _ := newTestLoader(t, repo)
	ctx := context.Background()

	loader.Snapshot(ctx, 7)
	loader.Snapshot(ctx, 9)
	require.Equal(t, 2, repo.loadCount)

	loader.InvalidateAll(ctx)

	loader.Snapshot(ctx, 7)
	loader.Snapshot(ctx, 9)
	assert.Equal(t, 4, repo.loadCount)
}

func TestLoaderFailureFallsBackToDenied(t *testing.T) {
	repo := &stubRepo{rolesErr: errors.New("connection refused")}
	loader, _ := newTestLoader(t, repo)

	snap := loader.Snapshot(context.Background(), 42)
	assert.Equal(t, StateReady, snap.State)
	assert.False(t, snap.Allow("invoices", "read"))
	assert.False(t, snap.IsAdmin)
	assert.False(t, snap.IsManager)
}

func TestLoaderFailureIsNotCached(t *testing.T) {
	repo := &stubRepo{rolesErr: errors.New("connection refused")}
	loader, _ := newTestLoader(t, repo)
	ctx := context.Background()

	loader.Snapshot(ctx, 42)
	require.Equal(t, 1, repo.loadCount)

	// Backend recovers; the next check sees fresh data instead of a cached
	// denial.
	repo.rolesErr = nil
	repo.roles = []string{RoleAdmin}
	snap := loader.Snapshot(ctx, 42)
	assert.Equal(t, 2, repo.loadCount)
	assert.True(t, snap.IsAdmin)
}

func TestLoaderDropsStaleLoad(t *testing.T) {
	repo := &stubRepo{roles: []string{"estimator"}}
	loader, _ := newTestLoader(t, repo)
	ctx := context.Background()

	// Invalidate mid-fetch on the first attempt only: the loader must not
	// install that result, and the retry picks up the fresh role set.
	fired := false
	repo.onFetch = func() {
		if !fired {
			fired = true
			loader.Invalidate(ctx, 42)
			repo.roles = []string{RoleManager}
		}
	}

	snap := loader.Snapshot(ctx, 42)
	assert.True(t, snap.IsManager, "stale load result must not win over the invalidated state")
	assert.Equal(t, 2, repo.loadCount)
}
