package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"membership-portal/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew tolerates small drift on iat/exp between API replicas.
const clockSkew = 30 * time.Second

// Manager mints and verifies HS256 session tokens and builds the cookie
// directives that carry them.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	name := cfg.CookieName
	if name == "" {
		name = config.DefaultSessionCookieName
	}
	return &Manager{
		secret:     []byte(cfg.Secret),
		ttl:        ttl,
		cookieName: name,
		secure:     cfg.Secure,
	}, nil
}

// Session is the result of issuing a token: the opaque token plus the cookie
// the HTTP layer should set. The core never writes to a response itself.
type Session struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Cookie    *http.Cookie
}

/* ===================== ISSUE ===================== */

// Issue mints a session for an identity whose password has already been verified.
func (m *Manager) Issue(now time.Time, userID, email string) (Session, error) {
	if userID == "" {
		return Session{}, errors.New("auth: user id required")
	}
	// iat is second precision on the wire; keep the returned value consistent.
	now = now.Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		Email:  email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("auth: sign session: %w", err)
	}
	return Session{
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Cookie:    m.sessionCookie(token),
	}, nil
}

/* ===================== VERIFY ===================== */

// Verify checks structure, algorithm, signature and lifetime. It never touches
// the credential store.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrMissingToken
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("%w: id missing", ErrMalformedToken)
	}
	if claims.IssuedAt == nil {
		return Claims{}, fmt.Errorf("%w: iat missing", ErrMalformedToken)
	}
	// Lifetime is enforced from iat with the server's TTL, not only from exp,
	// so shortening SESSION_TTL takes effect for tokens already in the wild.
	if now.After(claims.IssuedAt.Add(m.ttl)) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

/* ===================== COOKIES ===================== */

// CookieName is the name of the session cookie.
func (m *Manager) CookieName() string { return m.cookieName }

// TTL is the absolute session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns the directive that removes the session cookie
// (serialized as Max-Age=0).
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
