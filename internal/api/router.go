package api

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/agegate/internal/app"
	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/handlers"
	"github.com/charlesng35/agegate/internal/middleware"
	"github.com/charlesng35/agegate/internal/visitor"
	"github.com/charlesng35/agegate/web"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(cfg *app.Config, controller *gate.Controller, visitors *visitor.Service, rateStore middleware.RateStore) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if controller == nil {
		return nil, fmt.Errorf("gate controller must be provided")
	}
	if visitors == nil {
		return nil, fmt.Errorf("visitor service must be provided")
	}

	r := gin.New()

	tmpl, err := template.ParseFS(web.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	if cfg.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(rateStore, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.StaticFS("/static", http.FS(web.Static()))

	gated := r.Group("/")
	gated.Use(middleware.AgeGate(visitors, controller))

	pageHandler := handlers.NewPageHandler()
	gated.GET("", pageHandler.Index)

	gateHandler := handlers.NewGateHandler(controller)
	gateRoutes := gated.Group("api/gate")
	{
		gateRoutes.GET("/status", gateHandler.Status)
		gateRoutes.POST("/allow", gateHandler.Allow)
		gateRoutes.POST("/deny", gateHandler.Deny)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
