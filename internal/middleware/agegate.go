package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/visitor"
	"github.com/charlesng35/agegate/pkg/logger"
)

const (
	contextVisitorID     = "agegate.visitor_id"
	contextConsentActive = "agegate.consent"
	contextConsentSource = "agegate.consent_source"
)

// AgeGate resolves the anonymous visitor identity and the visitor's consent
// state, then stores both on the request context for handlers downstream.
// It never blocks a request itself; handlers decide what a gated visitor sees.
func AgeGate(visitors *visitor.Service, controller *gate.Controller) gin.HandlerFunc {
	log := logger.WithModule("middleware.agegate")

	return func(c *gin.Context) {
		visitorID, err := visitors.Ensure(c.Writer, c.Request)
		if err != nil {
			// The cookie leg of the gate still works without an identity.
			log.Warn("failed to establish visitor identity", zap.Error(err))
		}

		allowed, source := controller.Check(c.Request.Context(), c.Request, visitorID)

		c.Set(contextVisitorID, visitorID)
		c.Set(contextConsentActive, allowed)
		c.Set(contextConsentSource, string(source))

		c.Next()
	}
}

// VisitorID returns the visitor identifier resolved for this request, if any.
func VisitorID(c *gin.Context) string {
	id, _ := c.Get(contextVisitorID)
	s, _ := id.(string)
	return s
}

// HasConsent reports whether the current visitor has an active consent.
func HasConsent(c *gin.Context) bool {
	v, _ := c.Get(contextConsentActive)
	allowed, _ := v.(bool)
	return allowed
}

// ConsentSource names where the consent decision came from (cookie, store or none).
func ConsentSource(c *gin.Context) string {
	v, _ := c.Get(contextConsentSource)
	s, _ := v.(string)
	return s
}
