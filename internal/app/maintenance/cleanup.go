package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/agegate/internal/cache"
	"github.com/charlesng35/agegate/internal/services"
	"github.com/charlesng35/agegate/pkg/logger"
)

const (
	defaultConsentSpec = "@hourly"
	defaultCacheSpec   = "@every 10m"
)

// Cleaner coordinates background maintenance tasks such as purging expired
// consent records and removing stale cache entries.
type Cleaner struct {
	consents *services.ConsentService
	dbCache  *cache.DatabaseStore
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	enabled  bool

	consentSchedule string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithConsentSchedule overrides the cron specification for consent record cleanup.
func WithConsentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.consentSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache entry cleanup.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(consents *services.ConsentService, dbCache *cache.DatabaseStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		consents:        consents,
		dbCache:         dbCache,
		now:             time.Now,
		consentSchedule: defaultConsentSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.consents != nil || cleaner.dbCache != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.consents != nil {
		if _, err := c.cron.AddFunc(c.consentSchedule, func() {
			ctx := context.Background()
			if _, err := c.consents.CleanupExpired(ctx); err != nil {
				c.log.Warn("consent cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.dbCache != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			ctx := context.Background()
			if _, err := c.dbCache.PurgeExpired(ctx, c.now()); err != nil {
				c.log.Warn("cache cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.consents != nil {
		if _, err := c.consents.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.dbCache != nil {
		if _, err := c.dbCache.PurgeExpired(ctx, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
