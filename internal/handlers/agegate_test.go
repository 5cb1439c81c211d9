package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/middleware"
	"github.com/charlesng35/agegate/internal/visitor"
)

type fakeConsentStore struct {
	granted  map[string]bool
	writeErr error
}

func (s *fakeConsentStore) HasConsent(_ context.Context, visitorID string) (bool, error) {
	return s.granted[visitorID], nil
}

func (s *fakeConsentStore) Grant(_ context.Context, visitorID string, _ gate.Metadata) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.granted == nil {
		s.granted = make(map[string]bool)
	}
	s.granted[visitorID] = true
	return nil
}

func newGateTestRouter(t *testing.T, store gate.ConsentStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	visitors, err := visitor.NewService(visitor.Config{Secret: "handler-test-secret"})
	require.NoError(t, err)

	controller := gate.NewController(store)
	handler := NewGateHandler(controller)

	r := gin.New()
	r.Use(middleware.AgeGate(visitors, controller))
	r.GET("/api/gate/status", handler.Status)
	r.POST("/api/gate/allow", handler.Allow)
	r.POST("/api/gate/deny", handler.Deny)
	return r
}

func TestGateStatusReportsGatedVisitor(t *testing.T) {
	r := newGateTestRouter(t, &fakeConsentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/gate/status", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"gated":true`)
	require.Contains(t, w.Body.String(), `"source":"none"`)
}

func TestGateAllowSetsConsentCookie(t *testing.T) {
	store := &fakeConsentStore{}
	r := newGateTestRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"granted":true`)

	resp := w.Result()
	defer resp.Body.Close()

	var consentCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == gate.CookieName {
			consentCookie = c
		}
	}
	require.NotNil(t, consentCookie)
	require.Equal(t, "1", consentCookie.Value)
	require.Equal(t, 2592000, consentCookie.MaxAge)
	require.Len(t, store.granted, 1, "durable grant recorded for the visitor")
}

func TestGateAllowSurvivesStoreWriteFailure(t *testing.T) {
	store := &fakeConsentStore{writeErr: errors.New("disk full")}
	r := newGateTestRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)
	r.ServeHTTP(w, req)

	// The failed durable write is invisible to the client; the cookie leg
	// still records the decision.
	require.Equal(t, http.StatusOK, w.Code)

	resp := w.Result()
	defer resp.Body.Close()

	found := false
	for _, c := range resp.Cookies() {
		if c.Name == gate.CookieName && c.Value == "1" {
			found = true
		}
	}
	require.True(t, found)
}

func TestGateDenyRedirectsAndPersistsNothing(t *testing.T) {
	store := &fakeConsentStore{}
	r := newGateTestRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/deny", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	require.Empty(t, store.granted)

	resp := w.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		require.NotEqual(t, gate.CookieName, c.Name)
	}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health", Health())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}
