// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/usecase"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultNamespace = "user"

	// lookupTimeout bounds a shared store lookup, which outlives any single caller's context.
	lookupTimeout = 5 * time.Second
)

// CachingUserRepository decorates a UserRepository with Redis caching of lookups by id.
// Every authenticated request resolves the caller by id, so that path is the one cached.
// Lookups by email always go to the store.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	group     singleflight.Group
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// cachedUser mirrors entity.User including the password hash, which entity.User never serialises.
type cachedUser struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash"`
	Role         entity.Role `json:"role"`
	Formation    string      `json:"formation,omitempty"`
	Disciplines  []string    `json:"disciplines,omitempty"`
	Bio          string      `json:"bio,omitempty"`
	ProfileImage string      `json:"profileImage,omitempty"`
	Demo         bool        `json:"demo,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "user".
// A nil rdb disables caching entirely.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create persists the user. A freshly created id has no cache entry, but a stale one is dropped anyway.
func (c *CachingUserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := c.inner.Create(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.ID)
	return nil
}

// FindByEmail is not cached.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

// FindByID checks the cache first, then falls back to the store.
// Concurrent misses for the same id share one store lookup. The shared lookup
// is detached from the first caller's cancellation so other waiters are not
// failed by it.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cu cachedUser
		if err := json.Unmarshal(b, &cu); err == nil {
			return cu.toEntity(), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && err != redis.Nil {
		slog.Warn("user cache read failed", "key", key, "error", err)
	}

	// 2) Fallback to store, deduplicated per key
	v, err, _ := c.group.Do(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		user, err := c.inner.FindByID(lookupCtx, id)
		if err != nil {
			return nil, err
		}
		// 3) Store in cache (best effort)
		if b, err := json.Marshal(fromEntity(user)); err == nil {
			_ = c.rdb.Set(lookupCtx, key, b, c.ttl).Err()
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneUser(v.(*entity.User)), nil
}

// UpdateProfile updates the store and invalidates the cached entry.
func (c *CachingUserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	if err := c.inner.UpdateProfile(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.ID)
	return nil
}

func (c *CachingUserRepository) invalidate(ctx context.Context, id string) {
	if c.rdb == nil || id == "" {
		return
	}
	if err := c.rdb.Del(ctx, c.cacheKey(id)).Err(); err != nil {
		slog.Warn("user cache invalidation failed", "user_id", id, "error", err)
	}
}

// cacheKey generates a cache key for a user id.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(id))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// cloneUser copies a shared lookup result, including its slice, so callers never alias each other.
func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Disciplines = slices.Clone(u.Disciplines)
	return &c
}

func fromEntity(u *entity.User) cachedUser {
	return cachedUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Formation:    u.Formation,
		Disciplines:  u.Disciplines,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		Demo:         u.Demo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (cu cachedUser) toEntity() *entity.User {
	return &entity.User{
		ID:           cu.ID,
		Name:         cu.Name,
		Email:        cu.Email,
		PasswordHash: cu.PasswordHash,
		Role:         cu.Role,
		Formation:    cu.Formation,
		Disciplines:  cu.Disciplines,
		Bio:          cu.Bio,
		ProfileImage: cu.ProfileImage,
		Demo:         cu.Demo,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
	}
}
