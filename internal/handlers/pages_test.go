package handlers

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/middleware"
	"github.com/charlesng35/agegate/internal/visitor"
	"github.com/charlesng35/agegate/web"
)

func newPageTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	visitors, err := visitor.NewService(visitor.Config{Secret: "page-test-secret"})
	require.NoError(t, err)

	tmpl, err := template.ParseFS(web.Templates(), "*.html")
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.AgeGate(visitors, gate.NewController(nil)))
	r.GET("/", NewPageHandler().Index)
	return r
}

func TestIndexShowsOverlayForNewVisitor(t *testing.T) {
	r := newPageTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `id="ageGate"`)
	require.Contains(t, body, `class="gate-overlay"`)
	require.NotContains(t, body, `class="gate-overlay hidden"`)
}

func TestIndexHidesOverlayWithConsentCookie(t *testing.T) {
	r := newPageTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: gate.CookieName, Value: "1"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `class="gate-overlay hidden"`)
}
