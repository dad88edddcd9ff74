// Package directory decorates appointment data with display names owned by the
// profile service. Lookups never authorize anything.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Source interface {
	Profile(ctx context.Context, email string) (*models.Profile, error)
}

// Cached keeps recently resolved profiles in an LRU cache. Misses are not cached
// so a profile created later becomes visible on the next lookup.
type Cached struct {
	src   Source
	cache *lru.Cache[string, models.Profile]
	log   *slog.Logger
}

func NewCached(log *slog.Logger, src Source, size int) (*Cached, error) {
	const op = "directory.NewCached"

	if size <= 0 {
		size = 1
	}

	cache, err := lru.New[string, models.Profile](size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Cached{
		src:   src,
		cache: cache,
		log:   log.With(slog.String("component", "directory")),
	}, nil
}

// Lookup always returns a profile; unknown emails are shown as themselves.
func (c *Cached) Lookup(ctx context.Context, email string) models.Profile {
	email = models.NormalizeEmail(email)

	if p, ok := c.cache.Get(email); ok {
		return p
	}

	p, err := c.src.Profile(ctx, email)
	if err != nil {
		if !errors.Is(err, response.ErrNotFound) {
			c.log.Warn("profile lookup failed", slog.String("email", email), sl.Err(err))
		}
		return models.Profile{Email: email, DisplayName: email}
	}

	if p.DisplayName == "" {
		p.DisplayName = email
	}

	c.cache.Add(email, *p)
	return *p
}
