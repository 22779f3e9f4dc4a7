package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader builds Snapshots from storage and caches them in Redis per
// principal. It is the only component that mutates authorization state;
// everything else consumes immutable Snapshot values.
//
// Two failure modes from rapid auth-state changes are handled here:
// duplicate concurrent loads collapse through singleflight, and a load that
// raced with an invalidation is detected by a generation counter and never
// installed, so a stale response cannot overwrite fresher data.
type Loader struct {
	repo        Repository
	redis       *redis.Client
	logger      *slog.Logger
	loadTimeout time.Duration
	cacheTTL    time.Duration
	group       singleflight.Group
}

// LoaderConfig groups Loader dependencies.
type LoaderConfig struct {
	Repository  Repository
	Redis       *redis.Client
	Logger      *slog.Logger
	LoadTimeout time.Duration
	CacheTTL    time.Duration
}

// NewLoader constructs a Loader. Zero timeouts fall back to defaults.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Loader{
		repo:        cfg.Repository,
		redis:       cfg.Redis,
		logger:      cfg.Logger,
		loadTimeout: cfg.LoadTimeout,
		cacheTTL:    cfg.CacheTTL,
	}
}

type cachedSnapshot struct {
	UserGen   int64    `json:"user_gen"`
	GlobalGen int64    `json:"global_gen"`
	Snapshot  Snapshot `json:"snapshot"`
}

const maxLoadAttempts = 2

// Snapshot returns the effective authorization snapshot for the user.
// It never returns an error: any storage failure is logged and degrades to
// the fully-denied snapshot.
func (l *Loader) Snapshot(ctx context.Context, userID int64) Snapshot {
	if cached, ok := l.cached(ctx, userID); ok {
		return cached
	}

	key := fmt.Sprintf("rbac:load:%d", userID)
	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.load(ctx, userID), nil
	})
	if err != nil {
		// Unreachable with the closure above, but fail closed regardless.
		l.warn("rbac load group", err)
		return DeniedSnapshot(userID)
	}
	return v.(Snapshot)
}

// Invalidate drops the cached snapshot for one user, e.g. after sign-out or
// a role assignment change.
func (l *Loader) Invalidate(ctx context.Context, userID int64) {
	if err := l.redis.Incr(ctx, genKey(userID)).Err(); err != nil {
		l.warn("rbac invalidate gen", err)
	}
	if err := l.redis.Del(ctx, snapshotKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.warn("rbac invalidate snapshot", err)
	}
}

// InvalidateAll drops every cached snapshot, e.g. after a role's permission
// set was rewritten.
func (l *Loader) InvalidateAll(ctx context.Context) {
	if err := l.redis.Incr(ctx, globalGenKey).Err(); err != nil {
		l.warn("rbac invalidate all", err)
	}
}

func (l *Loader) load(ctx context.Context, userID int64) Snapshot {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		userGen := l.generation(ctx, genKey(userID))
		globalGen := l.generation(ctx, globalGenKey)

		snap, err := l.fetch(ctx, userID)
		if err != nil {
			l.warn("rbac fetch permissions", err)
			return DeniedSnapshot(userID)
		}

		// A generation bump during the fetch means the data may already be
		// stale: discard and retry instead of installing it.
		if l.generation(ctx, genKey(userID)) != userGen || l.generation(ctx, globalGenKey) != globalGen {
			continue
		}

		l.install(ctx, userID, cachedSnapshot{UserGen: userGen, GlobalGen: globalGen, Snapshot: snap})
		return snap
	}
	return DeniedSnapshot(userID)
}

func (l *Loader) fetch(ctx context.Context, userID int64) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.loadTimeout)
	defer cancel()

	roles, err := l.repo.RoleNamesForUser(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load roles: %w", err)
	}
	perms, err := l.repo.PermissionsForUser(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load permissions: %w", err)
	}
	return NewSnapshot(userID, roles, perms), nil
}

func (l *Loader) cached(ctx context.Context, userID int64) (Snapshot, bool) {
	data, err := l.redis.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.warn("rbac cache get", err)
		}
		return Snapshot{}, false
	}
	var cached cachedSnapshot
	if err := json.Unmarshal(data, &cached); err != nil {
		l.warn("rbac cache decode", err)
		return Snapshot{}, false
	}
	if cached.UserGen != l.generation(ctx, genKey(userID)) || cached.GlobalGen != l.generation(ctx, globalGenKey) {
		return Snapshot{}, false
	}
	return cached.Snapshot, true
}

func (l *Loader) install(ctx context.Context, userID int64, cached cachedSnapshot) {
	data, err := json.Marshal(cached)
	if err != nil {
		l.warn("rbac cache encode", err)
		return
	}
	if err := l.redis.Set(ctx, snapshotKey(userID), data, l.cacheTTL).Err(); err != nil {
		l.warn("rbac cache set", err)
	}
}

func (l *Loader) generation(ctx context.Context, key string) int64 {
	gen, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.warn("rbac generation get", err)
		}
		return 0
	}
	return gen
}

func (l *Loader) warn(msg string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, slog.Any("error", err))
	}
}

const globalGenKey = "rbac:gen:global"

func genKey(userID int64) string {
	return fmt.Sprintf("rbac:gen:%d", userID)
}

func snapshotKey(userID int64) string {
	return fmt.Sprintf("rbac:snapshot:%d", userID)
}
