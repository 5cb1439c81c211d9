package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/agegate/internal/middleware"
)

// PageHandler renders the gated site pages. The template is registered on the
// engine by the router; handlers only pick the view and its data.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// GET /
//
// The overlay markup is always present in the page; the server decides its
// initial visibility from the visitor's consent state. Visitors who already
// passed the gate get the overlay hidden, everyone else sees it immediately.
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Gated":  !middleware.HasConsent(c),
		"Source": middleware.ConsentSource(c),
	})
}
