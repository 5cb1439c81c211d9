package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/agegate/internal/cache"
	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/models"
	appErrors "github.com/charlesng35/agegate/pkg/errors"
)

// consentCacheTTL bounds how long the cache fast path may answer for a
// visitor before falling back to the database.
const consentCacheTTL = 24 * time.Hour

// ConsentService is the durable leg of the gate: it persists consent records
// in the primary database with an optional cache write-through. It implements
// gate.ConsentStore.
type ConsentService struct {
	db        *gorm.DB
	cache     cache.Store
	retention time.Duration // 0 = records never expire
	now       func() time.Time
}

// ConsentOption customises the ConsentService.
type ConsentOption func(*ConsentService)

// WithCache enables the cache write-through for consent lookups.
func WithCache(store cache.Store) ConsentOption {
	return func(s *ConsentService) {
		s.cache = store
	}
}

// WithRetention sets how long durable records remain valid. Zero keeps them
// indefinitely, matching the original gate's durable-storage behaviour.
func WithRetention(ttl time.Duration) ConsentOption {
	return func(s *ConsentService) {
		if ttl >= 0 {
			s.retention = ttl
		}
	}
}

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) ConsentOption {
	return func(s *ConsentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewConsentService constructs a ConsentService using the provided database handle.
func NewConsentService(db *gorm.DB, opts ...ConsentOption) (*ConsentService, error) {
	if db == nil {
		return nil, errors.New("consent service: db is required")
	}

	svc := &ConsentService{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Grant upserts the consent record for a visitor. Repeated grants refresh the
// timestamps rather than accumulating rows.
func (s *ConsentService) Grant(ctx context.Context, visitorID string, meta gate.Metadata) error {
	ctx = ensureContext(ctx)
	if visitorID == "" {
		return errors.New("consent service: visitor id is required")
	}

	now := s.now()

	var expiresAt *time.Time
	if s.retention > 0 {
		expiry := now.Add(s.retention)
		expiresAt = &expiry
	}

	payload, err := json.Marshal(map[string]string{
		"ip_address": meta.IPAddress,
		"user_agent": meta.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("consent service: marshal metadata: %w", err)
	}

	record := models.ConsentRecord{
		VisitorID: visitorID,
		Key:       models.ConsentKey,
		Value:     models.ConsentGranted,
		GrantedAt: now,
		ExpiresAt: expiresAt,
		Metadata:  datatypes.JSON(payload),
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "granted_at", "expires_at", "metadata", "updated_at"}),
		}).Create(&record).Error
	if err != nil {
		return appErrors.ErrConsentStore.WithInternal(fmt.Errorf("save record: %w", err))
	}

	if s.cache != nil {
		ttl := consentCacheTTL
		if s.retention > 0 && s.retention < ttl {
			ttl = s.retention
		}
		// Cache errors are not worth failing a successful grant over.
		_ = s.cache.Set(ctx, consentCacheKey(visitorID), []byte(models.ConsentGranted), ttl)
	}

	return nil
}

// HasConsent reports whether a durable record grants consent right now.
func (s *ConsentService) HasConsent(ctx context.Context, visitorID string) (bool, error) {
	ctx = ensureContext(ctx)
	if visitorID == "" {
		return false, nil
	}

	if s.cache != nil {
		value, ok, err := s.cache.Get(ctx, consentCacheKey(visitorID))
		if err == nil && ok && string(value) == models.ConsentGranted {
			return true, nil
		}
	}

	var record models.ConsentRecord
	err := s.db.WithContext(ctx).Take(&record, "visitor_id = ?", visitorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, appErrors.ErrConsentStore.WithInternal(fmt.Errorf("lookup record: %w", err))
	}

	return record.Active(s.now()), nil
}

// CleanupExpired removes records whose expiry has passed. Records without an
// expiry are never touched. Returns the number of rows removed.
func (s *ConsentService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", s.now()).
		Delete(&models.ConsentRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("consent service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func consentCacheKey(visitorID string) string {
	return "consent:" + visitorID + ":" + models.ConsentKey
}
