package models

import (
	"time"

	"gorm.io/datatypes"
)

// Storage contract shared by both persistence legs of the gate: the durable
// record and the cookie carry the same key and sentinel value.
const (
	// ConsentKey is the storage key under which consent is recorded.
	ConsentKey = "age_ok"
	// ConsentGranted is the sentinel value meaning "consent granted".
	ConsentGranted = "1"
)

// ConsentRecord is the durable half of a visitor's age acknowledgement. The
// cookie written alongside it expires after 30 days; the record persists until
// the retention job removes it (or forever when no retention TTL is set).
type ConsentRecord struct {
	BaseModel
	VisitorID string         `gorm:"uniqueIndex;size:64;not null" json:"visitor_id"`
	Key       string         `gorm:"size:32;not null;default:age_ok" json:"key"`
	Value     string         `gorm:"size:8;not null" json:"value"`
	GrantedAt time.Time      `gorm:"index;not null" json:"granted_at"`
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
}

// Active reports whether the record grants consent at the given instant.
func (c ConsentRecord) Active(now time.Time) bool {
	if c.Value != ConsentGranted {
		return false
	}
	if c.ExpiresAt == nil {
		return true
	}
	return now.Before(*c.ExpiresAt)
}
