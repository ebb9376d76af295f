package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bunkasai/festival/internal/logging"
)

// ErrRateLimited is returned by RequestRefresh when called too often.
var ErrRateLimited = errors.New("listing refresh rate limited")

// Cache shares one listing between all page sessions. It implements
// Source, so engines can read through it.
type Cache struct {
	src     Source
	timeout time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	log     zerolog.Logger

	// Clock stamps FetchedAt. Defaults to the real clock.
	Clock clockwork.Clock

	mu        sync.RWMutex
	items     []Item
	loaded    bool
	fetchedAt time.Time

	cron *cron.Cron
}

// NewCache wraps src. On-demand refreshes are allowed at most once per
// minInterval; timeout bounds every fetch.
func NewCache(src Source, minInterval, timeout time.Duration) *Cache {
	return &Cache{
		src:     src,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		log:     logging.Component("gallery"),
		Clock:   clockwork.NewRealClock(),
	}
}

// Fetch returns the cached listing, fetching through on first use.
func (c *Cache) Fetch(ctx context.Context) ([]Item, error) {
	c.mu.RLock()
	if c.loaded {
		items := append([]Item(nil), c.items...)
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// Snapshot returns the last good listing without fetching.
func (c *Cache) Snapshot() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

// FetchedAt is the time of the last successful refresh.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Refresh fetches the listing now. Concurrent callers share one request,
// which runs detached from any single caller and is bounded by the cache
// timeout. A caller whose ctx ends stops waiting without cancelling the
// others. A failure keeps the previous listing.
func (c *Cache) Refresh(ctx context.Context) error {
	ch := c.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		items, err := c.src.Fetch(fetchCtx)
		if err != nil {
			c.log.Warn().Err(err).Msg("listing refresh failed, keeping previous listing")
			return nil, err
		}
		c.mu.Lock()
		c.items = items
		c.loaded = true
		c.fetchedAt = c.Clock.Now()
		c.mu.Unlock()
		c.log.Debug().Int("items", len(items)).Msg("listing refreshed")
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestRefresh is Refresh behind the on-demand rate limit.
func (c *Cache) RequestRefresh(ctx context.Context) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	return c.Refresh(ctx)
}

// Schedule starts periodic refreshes on a standard five-field cron spec.
func (c *Cache) Schedule(spec string) error {
	if c.cron != nil {
		return errors.New("listing refresh already scheduled")
	}
	cr := cron.New()
	if _, err := cr.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		_ = c.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling listing refresh %q: %w", spec, err)
	}
	c.cron = cr
	cr.Start()
	c.log.Info().Str("schedule", spec).Msg("listing refresh scheduled")
	return nil
}

// Stop halts scheduled refreshes and waits for a running one to finish.
func (c *Cache) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
	c.cron = nil
}
