package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	granted   map[string]bool
	readErr   error
	writeErr  error
	grantedTo []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{granted: make(map[string]bool)}
}

func (f *fakeStore) HasConsent(_ context.Context, visitorID string) (bool, error) {
	if f.readErr != nil {
		return false, f.readErr
	}
	return f.granted[visitorID], nil
}

func (f *fakeStore) Grant(_ context.Context, visitorID string, _ Metadata) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.granted[visitorID] = true
	f.grantedTo = append(f.grantedTo, visitorID)
	return nil
}

func requestWithConsentCookie(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "1"})
	return req
}

func TestCheckFreshVisitorIsGated(t *testing.T) {
	ctrl := NewController(newFakeStore())
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	granted, source := ctrl.Check(context.Background(), req, "v1")
	require.False(t, granted)
	require.Equal(t, SourceNone, source)
}

func TestCheckCookieLegAlone(t *testing.T) {
	// Durable store empty, cookie present: the OR-redundancy must grant.
	ctrl := NewController(newFakeStore())

	granted, source := ctrl.Check(context.Background(), requestWithConsentCookie(t), "v1")
	require.True(t, granted)
	require.Equal(t, SourceCookie, source)
}

func TestCheckStoreLegAlone(t *testing.T) {
	// Cookie cleared, durable record present: still granted.
	store := newFakeStore()
	store.granted["v1"] = true
	ctrl := NewController(store)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	granted, source := ctrl.Check(context.Background(), req, "v1")
	require.True(t, granted)
	require.Equal(t, SourceStore, source)
}

func TestCheckIgnoresWrongCookieValue(t *testing.T) {
	ctrl := NewController(newFakeStore())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "yes"})

	granted, _ := ctrl.Check(context.Background(), req, "v1")
	require.False(t, granted)
}

func TestCheckSurvivesStoreReadError(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("store offline")
	ctrl := NewController(store)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	granted, source := ctrl.Check(context.Background(), req, "v1")
	require.False(t, granted)
	require.Equal(t, SourceNone, source)

	// The cookie leg keeps working while the store is down.
	granted, source = ctrl.Check(context.Background(), requestWithConsentCookie(t), "v1")
	require.True(t, granted)
	require.Equal(t, SourceCookie, source)
}

func TestAllowWritesBothLegs(t *testing.T) {
	store := newFakeStore()
	ctrl := NewController(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)
	ctrl.Allow(context.Background(), rec, req, "v1", Metadata{IPAddress: "203.0.113.9"})

	require.True(t, store.granted["v1"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, CookieName, cookie.Name)
	require.Equal(t, "1", cookie.Value)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 2592000, cookie.MaxAge)
}

func TestAllowIsIdempotent(t *testing.T) {
	store := newFakeStore()
	ctrl := NewController(store)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)
		ctrl.Allow(context.Background(), rec, req, "v1", Metadata{})
	}

	req := requestWithConsentCookie(t)
	granted, _ := ctrl.Check(context.Background(), req, "v1")
	require.True(t, granted)
}

func TestAllowSwallowsStoreWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.writeErr = errors.New("quota exceeded")
	ctrl := NewController(store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)

	require.NotPanics(t, func() {
		ctrl.Allow(context.Background(), rec, req, "v1", Metadata{})
	})

	// The cookie must still be written even though the durable write failed.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CookieName, cookies[0].Name)
	require.Equal(t, 2592000, cookies[0].MaxAge)
}

func TestAllowWithoutStoreStillSetsCookie(t *testing.T) {
	ctrl := NewController(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gate/allow", nil)
	ctrl.Allow(context.Background(), rec, req, "", Metadata{})

	require.Len(t, rec.Result().Cookies(), 1)
}

func TestDenyPersistsNothing(t *testing.T) {
	store := newFakeStore()
	ctrl := NewController(store)

	location := ctrl.Deny()
	require.Equal(t, "/", location)
	require.Empty(t, store.grantedTo)
}

func TestSecureFlagFollowsRequestScheme(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	SetConsentCookie(rec, req)
	require.True(t, rec.Result().Cookies()[0].Secure)
}
