package gate

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/charlesng35/agegate/pkg/logger"
	"github.com/charlesng35/agegate/pkg/metrics"
)

// DenyRedirect is where denying visitors are sent.
const DenyRedirect = "/"

// OverlayElementID is the DOM id of the gate overlay in served pages. Pages
// without the element are unaffected by the gate.
const OverlayElementID = "ageGate"

// ConsentStore is the durable persistence port for visitor consent. The
// relational database implements it in production; tests inject fakes.
type ConsentStore interface {
	HasConsent(ctx context.Context, visitorID string) (bool, error)
	Grant(ctx context.Context, visitorID string, meta Metadata) error
}

// Metadata captures request context recorded alongside a durable grant.
type Metadata struct {
	IPAddress string
	UserAgent string
}

// Source identifies which persistence leg satisfied a consent check.
type Source string

const (
	SourceCookie Source = "cookie"
	SourceStore  Source = "store"
	SourceNone   Source = "none"
)

// Controller enforces the consent gate. Two redundant persistence legs back
// it: the consent cookie and the durable store. Either one alone satisfies a
// check, so the gate keeps working when one mechanism is unavailable.
type Controller struct {
	store ConsentStore
	log   *zap.Logger
}

// NewController builds a gate controller over the supplied durable store.
// A nil store disables the durable leg; the cookie leg always works.
func NewController(store ConsentStore) *Controller {
	return &Controller{
		store: store,
		log:   logger.WithModule("gate"),
	}
}

// Check reports whether the visitor has already passed the gate. The cookie
// is consulted first (no I/O); the durable store second. A store read error
// is logged and treated as "leg absent" rather than failing the check.
func (g *Controller) Check(ctx context.Context, r *http.Request, visitorID string) (bool, Source) {
	if HasConsentCookie(r) {
		metrics.ConsentChecks.WithLabelValues(string(SourceCookie)).Inc()
		return true, SourceCookie
	}

	if g.store != nil && visitorID != "" {
		granted, err := g.store.HasConsent(ctx, visitorID)
		if err != nil {
			g.log.Warn("consent store read failed; relying on cookie leg",
				zap.String("visitor_id", visitorID),
				zap.Error(err),
			)
		} else if granted {
			metrics.ConsentChecks.WithLabelValues(string(SourceStore)).Inc()
			return true, SourceStore
		}
	}

	metrics.ConsentChecks.WithLabelValues(string(SourceNone)).Inc()
	return false, SourceNone
}

// Allow records the visitor's consent. The durable write is best effort: a
// failure is logged and counted but never surfaced, because the cookie write
// below provides the fallback persistence path and the gate flow must not be
// interrupted by a storage error. Calling Allow repeatedly is harmless.
func (g *Controller) Allow(ctx context.Context, w http.ResponseWriter, r *http.Request, visitorID string, meta Metadata) {
	if g.store != nil && visitorID != "" {
		if err := g.store.Grant(ctx, visitorID, meta); err != nil {
			metrics.StoreWriteFailures.Inc()
			g.log.Warn("durable consent write failed; cookie leg still applies",
				zap.String("visitor_id", visitorID),
				zap.Error(err),
			)
		}
	}

	SetConsentCookie(w, r)
	metrics.GateDecisions.WithLabelValues("allow").Inc()
}

// Deny persists nothing and returns the location the visitor should be sent
// to. The gate state is untouched; navigation is the only effect.
func (g *Controller) Deny() string {
	metrics.GateDecisions.WithLabelValues("deny").Inc()
	return DenyRedirect
}
