package drivers

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Cache stores the serialised directory. *redis.Client implements it.
type Cache interface {
	CacheDrivers(ctx context.Context, data []byte, ttl time.Duration) error
	CachedDrivers(ctx context.Context) ([]byte, error)
}

// Directory is the read side of the drivers table with an optional cache in front.
type Directory struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewDirectory creates a driver directory. cache may be nil.
func NewDirectory(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Directory {
	return &Directory{repo: repo, cache: cache, ttl: ttl, log: log.With("component", "drivers")}
}

// List returns all drivers sorted by name.
func (d *Directory) List(ctx context.Context) ([]Driver, error) {
	if d.cache != nil {
		if b, err := d.cache.CachedDrivers(ctx); err == nil {
			var out []Driver
			if err := json.Unmarshal(b, &out); err == nil {
				return out, nil
			}
		}
	}

	list, err := d.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	SortByName(list)

	if d.cache != nil {
		if b, err := json.Marshal(list); err == nil {
			if err := d.cache.CacheDrivers(ctx, b, d.ttl); err != nil {
				d.log.Warn("cache drivers", "error", err)
			}
		}
	}
	return list, nil
}

// ByEmail resolves the driver linked to an authenticated identity.
func (d *Directory) ByEmail(ctx context.Context, email string) (*Driver, error) {
	if all, err := d.List(ctx); err == nil {
		for _, drv := range all {
			if strings.EqualFold(drv.Email, email) {
				drv := drv
				return &drv, nil
			}
		}
	}
	return d.repo.ByEmail(ctx, email)
}

func (d *Directory) ByID(ctx context.Context, id string) (*Driver, error) {
	return d.repo.ByID(ctx, id)
}

// SortByName orders drivers by name, case-insensitive.
func SortByName(list []Driver) {
	slices.SortStableFunc(list, func(a, b Driver) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// Chauffeurs returns the drivers with the chauffeur role in board column order.
// list is not modified.
func Chauffeurs(list []Driver) []Driver {
	out := FilterRole(list, RoleChauffeur)
	SortByName(out)
	return out
}

// FilterRole keeps drivers with role r.
func FilterRole(list []Driver, r Role) []Driver {
	out := make([]Driver, 0, len(list))
	for _, d := range list {
		if d.Role == r {
			out = append(out, d)
		}
	}
	return out
}
