package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"membership-portal/internal/audit"
	"membership-portal/internal/identity"
	"membership-portal/internal/password"
)

// Throttle bounds login attempts per key. A nil Throttle disables limiting.
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Service runs the login and logout flows on top of Manager, the credential
// store, the root account and the password hasher.
type Service struct {
	tokens   *Manager
	store    identity.Store
	hasher   *password.Hasher
	root     *Root
	throttle Throttle
	audit    *audit.Service
	log      *slog.Logger
	clock    func() time.Time

	dummyOnce sync.Once
	dummy     string
}

type ServiceDeps struct {
	Tokens   *Manager
	Store    identity.Store
	Hasher   *password.Hasher
	Root     *Root
	Throttle Throttle
	Audit    *audit.Service
	Logger   *slog.Logger
}

func NewService(d ServiceDeps) *Service {
	s := &Service{
		tokens:   d.Tokens,
		store:    d.Store,
		hasher:   d.Hasher,
		root:     d.Root,
		throttle: d.Throttle,
		audit:    d.Audit,
		log:      d.Logger,
		clock:    time.Now,
	}
	if s.hasher == nil {
		s.hasher = password.NewHasher(password.DefaultCost)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

type LoginRequest struct {
	Email    string
	Password string
	IP       string
}

type LoginResult struct {
	Session   Session
	SubjectID string
	Email     string
	Root      bool
}

// Login verifies credentials and issues a session.
//
// Every credential failure is ErrInvalidCredentials. ErrTooManyAttempts and
// ErrStoreUnavailable are the only other outcomes a caller sees.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !s.allow(ctx, email, req.IP) {
		return LoginResult{}, ErrTooManyAttempts
	}

	if s.root.IsRootEmail(email) {
		return s.loginRoot(ctx, email, req)
	}

	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// Spend the same bcrypt time as a real check.
			s.hasher.Verify(req.Password, s.dummyDigest())
			s.failed(ctx, email, req.IP, "unknown_email")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.log.ErrorContext(ctx, "login lookup failed", "err", err)
		return LoginResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !s.hasher.Verify(req.Password, ident.PasswordHash) {
		s.failed(ctx, email, req.IP, "bad_password")
		return LoginResult{}, ErrInvalidCredentials
	}
	if !ident.IsActive() {
		s.failed(ctx, email, req.IP, "status_"+ident.Status)
		return LoginResult{}, ErrInvalidCredentials
	}

	sess, err := s.IssueSession(ident)
	if err != nil {
		return LoginResult{}, err
	}
	s.succeeded(ctx, email)
	s.record(ctx, audit.EventTypeLoginSucceeded, func(a *audit.Service) error {
		return a.LoginSucceeded(ctx, ident.ID, ident.Email, req.IP)
	})
	return LoginResult{Session: sess, SubjectID: ident.ID, Email: ident.Email}, nil
}

func (s *Service) loginRoot(ctx context.Context, email string, req LoginRequest) (LoginResult, error) {
	if !s.root.Authenticate(email, req.Password) {
		s.failed(ctx, email, req.IP, "bad_root_password")
		return LoginResult{}, ErrInvalidCredentials
	}
	p := s.root.Principal()
	sess, err := s.tokens.Issue(s.clock(), p.ID, p.Email)
	if err != nil {
		return LoginResult{}, err
	}
	s.succeeded(ctx, email)
	s.log.WarnContext(ctx, "break-glass root login", "ip", req.IP)
	s.record(ctx, audit.EventTypeRootLogin, func(a *audit.Service) error {
		return a.RootLogin(ctx, p.ID, p.Email, req.IP)
	})
	return LoginResult{Session: sess, SubjectID: p.ID, Email: p.Email, Root: true}, nil
}

// IssueSession mints a session for an identity the caller has already
// authenticated, e.g. at the end of a password reset.
func (s *Service) IssueSession(ident identity.Identity) (Session, error) {
	return s.tokens.Issue(s.clock(), ident.ID, ident.Email)
}

// Logout returns the directive that clears the session cookie. There is no
// server-side state to destroy.
func (s *Service) Logout(ctx context.Context, p Principal, ip string) *http.Cookie {
	if p != nil {
		s.record(ctx, audit.EventTypeLogout, func(a *audit.Service) error {
			return a.Logout(ctx, p.SubjectID(), ip)
		})
	}
	return s.tokens.ClearCookie()
}

// allow fails open: a Redis outage must not lock every member out.
func (s *Service) allow(ctx context.Context, email, ip string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, email)
	if err != nil {
		s.log.WarnContext(ctx, "login throttle unavailable", "err", err)
		return true
	}
	if !ok {
		s.record(ctx, audit.EventTypeLoginThrottled, func(a *audit.Service) error {
			return a.LoginThrottled(ctx, email, ip)
		})
	}
	return ok
}

func (s *Service) succeeded(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.WarnContext(ctx, "login throttle reset failed", "err", err)
	}
}

func (s *Service) failed(ctx context.Context, email, ip, reason string) {
	s.log.InfoContext(ctx, "login rejected", "reason", reason, "ip", ip)
	s.record(ctx, audit.EventTypeLoginFailed, func(a *audit.Service) error {
		return a.LoginFailed(ctx, email, ip, reason)
	})
}

// record appends an audit event without ever failing the flow it describes.
func (s *Service) record(ctx context.Context, t audit.EventType, fn func(*audit.Service) error) {
	if s.audit == nil {
		return
	}
	if err := fn(s.audit); err != nil {
		s.log.WarnContext(ctx, "audit append failed", "type", string(t), "err", err)
	}
}

func (s *Service) dummyDigest() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.hasher.Hash("membership-portal-timing-equalizer")
	})
	return s.dummy
}
