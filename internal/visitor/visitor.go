package visitor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/charlesng35/agegate/pkg/errors"
)

// CookieName carries the signed visitor token between requests.
const CookieName = "age_visitor"

// DefaultTokenTTL keeps anonymous visitor identities for a year, comfortably
// outliving the 30-day consent cookie so the durable leg stays addressable.
const DefaultTokenTTL = 365 * 24 * time.Hour

const issuer = "agegate"

// Config bundles the configuration required to build a Service.
type Config struct {
	Secret string
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims embeds only registered claims; the subject is the visitor ID. No
// account data and no PII travel in the token.
type Claims struct {
	jwt.RegisteredClaims
}

// Service issues and validates anonymous visitor tokens. The token exists
// purely to key the durable consent store; it proves nothing about age.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService constructs a visitor token service.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("visitor: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &Service{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue mints a fresh visitor ID wrapped in a signed token.
func (s *Service) Issue() (token string, visitorID string, err error) {
	visitorID = uuid.NewString()

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitorID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("visitor: sign token: %w", err)
	}

	return signed, visitorID, nil
}

// Parse validates a token and returns the visitor ID it carries. Failures
// are typed as ErrVisitorToken so callers can distinguish a bad token from
// infrastructure errors.
func (s *Service) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", appErrors.ErrVisitorToken.WithInternal(errors.New("empty token"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(issuer),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", appErrors.ErrVisitorToken.WithInternal(err)
	}

	if claims.Subject == "" {
		return "", appErrors.ErrVisitorToken.WithInternal(errors.New("missing subject claim"))
	}

	return claims.Subject, nil
}

// Ensure returns the visitor ID from the request cookie, minting and setting
// a replacement when the cookie is absent, expired, or tampered with.
func (s *Service) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if id, parseErr := s.Parse(cookie.Value); parseErr == nil {
			return id, nil
		}
		// Fall through: an invalid token is replaced silently.
	}

	token, id, err := s.Issue()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		Secure:   r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id, nil
}
