package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/agegate/internal/gate"
	"github.com/charlesng35/agegate/internal/visitor"
)

type stubConsentStore struct {
	granted map[string]bool
}

func (s *stubConsentStore) HasConsent(_ context.Context, visitorID string) (bool, error) {
	return s.granted[visitorID], nil
}

func (s *stubConsentStore) Grant(_ context.Context, visitorID string, _ gate.Metadata) error {
	if s.granted == nil {
		s.granted = make(map[string]bool)
	}
	s.granted[visitorID] = true
	return nil
}

func newAgeGateRouter(t *testing.T, store gate.ConsentStore) (*gin.Engine, *visitor.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	visitors, err := visitor.NewService(visitor.Config{Secret: "test-secret"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(AgeGate(visitors, gate.NewController(store)))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"visitor": VisitorID(c),
			"consent": HasConsent(c),
			"source":  ConsentSource(c),
		})
	})
	return r, visitors
}

func TestAgeGateEstablishesVisitorIdentity(t *testing.T) {
	r, _ := newAgeGateRouter(t, &stubConsentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	resp := w.Result()
	defer resp.Body.Close()

	var visitorCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == visitor.CookieName {
			visitorCookie = c
		}
	}
	require.NotNil(t, visitorCookie)
	require.NotEmpty(t, visitorCookie.Value)
	require.Contains(t, w.Body.String(), `"consent":false`)
	require.Contains(t, w.Body.String(), `"source":"none"`)
}

func TestAgeGateSeesConsentCookie(t *testing.T) {
	r, _ := newAgeGateRouter(t, &stubConsentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: gate.CookieName, Value: "1"})
	r.ServeHTTP(w, req)

	require.Contains(t, w.Body.String(), `"consent":true`)
	require.Contains(t, w.Body.String(), `"source":"cookie"`)
}

func TestAgeGateFallsBackToDurableStore(t *testing.T) {
	store := &stubConsentStore{}
	r, visitors := newAgeGateRouter(t, store)

	token, visitorID, err := visitors.Issue()
	require.NoError(t, err)
	require.NoError(t, store.Grant(context.Background(), visitorID, gate.Metadata{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: visitor.CookieName, Value: token})
	r.ServeHTTP(w, req)

	require.Contains(t, w.Body.String(), `"consent":true`)
	require.Contains(t, w.Body.String(), `"source":"store"`)
}
