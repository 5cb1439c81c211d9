package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/middleware"
	"github.com/charlesng35/agegate/pkg/response"
)

// GateHandler exposes the consent gate over HTTP.
type GateHandler struct {
	controller *gate.Controller
}

func NewGateHandler(controller *gate.Controller) *GateHandler {
	return &GateHandler{controller: controller}
}

// GET /api/gate/status
func (h *GateHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"gated":  !middleware.HasConsent(c),
		"source": middleware.ConsentSource(c),
	})
}

// POST /api/gate/allow
func (h *GateHandler) Allow(c *gin.Context) {
	meta := gate.Metadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	h.controller.Allow(requestContext(c), c.Writer, c.Request, middleware.VisitorID(c), meta)

	response.Success(c, http.StatusOK, gin.H{"granted": true})
}

// POST /api/gate/deny
func (h *GateHandler) Deny(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, h.controller.Deny())
}
