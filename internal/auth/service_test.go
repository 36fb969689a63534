package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-portal/internal/audit"
	"membership-portal/internal/identity"
)

const memberPassword = "correct horse battery"

type fakeThrottle struct {
	allow  bool
	err    error
	resets []string
}

func (f *fakeThrottle) Allow(ctx context.Context, key string) (bool, error) {
	return f.allow, f.err
}

func (f *fakeThrottle) Reset(ctx context.Context, key string) error {
	f.resets = append(f.resets, key)
	return nil
}

func memberStore(t *testing.T, status string) *identity.MemoryStore {
	t.Helper()
	digest, err := newTestHasher().Hash(memberPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s := identity.NewMemoryStore()
	s.Put(identity.Identity{
		ID:           "u1",
		Email:        "a@b.com",
		PasswordHash: digest,
		Status:       status,
		UpdatedAt:    t0.Add(-time.Hour),
		Roles:        []identity.HeldRole{{Role: identity.Role{Name: "member", Weight: 10}}},
	})
	return s
}

func newTestService(t *testing.T, store identity.Store, th Throttle) (*Service, *audit.MemoryRepo) {
	t.Helper()
	repo := audit.NewMemoryRepo()
	h := newTestHasher()
	s := NewService(ServiceDeps{
		Tokens:   newTestManager(t),
		Store:    store,
		Hasher:   h,
		Root:     newTestRoot(h),
		Throttle: th,
		Audit:    audit.NewService(repo),
	})
	s.clock = func() time.Time { return t0 }
	return s, repo
}

func eventTypes(repo *audit.MemoryRepo) []audit.EventType {
	var out []audit.EventType
	for _, e := range repo.Events() {
		out = append(out, e.Type)
	}
	return out
}

func TestLogin_Succeeds(t *testing.T) {
	store := memberStore(t, identity.StatusActive)
	s, repo := newTestService(t, store, nil)

	res, err := s.Login(context.Background(), LoginRequest{Email: " A@B.com ", Password: memberPassword, IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.SubjectID != "u1" || res.Email != "a@b.com" || res.Root {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Session.Cookie == nil || res.Session.Cookie.MaxAge != 604800 {
		t.Fatalf("expected session cookie, got %+v", res.Session.Cookie)
	}

	r := NewResolver(s.tokens, store, s.root, 0, nil)
	r.clock = func() time.Time { return t0.Add(time.Minute) }
	p, err := r.Resolve(context.Background(), res.Session.Token)
	if err != nil || p == nil || p.SubjectID() != "u1" {
		t.Fatalf("issued token did not resolve: (%v, %v)", p, err)
	}

	got := eventTypes(repo)
	if len(got) != 1 || got[0] != audit.EventTypeLoginSucceeded {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	cases := []struct {
		name   string
		status string
		req    LoginRequest
	}{
		{"wrong password", identity.StatusActive, LoginRequest{Email: "a@b.com", Password: "nope"}},
		{"unknown email", identity.StatusActive, LoginRequest{Email: "x@b.com", Password: memberPassword}},
		{"disabled account", identity.StatusDisabled, LoginRequest{Email: "a@b.com", Password: memberPassword}},
		{"pending account", identity.StatusPending, LoginRequest{Email: "a@b.com", Password: memberPassword}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, repo := newTestService(t, memberStore(t, tc.status), nil)

			_, err := s.Login(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			got := eventTypes(repo)
			if len(got) != 1 || got[0] != audit.EventTypeLoginFailed {
				t.Fatalf("unexpected audit trail: %v", got)
			}
		})
	}
}

func TestLogin_EmptyFields(t *testing.T) {
	s, _ := newTestService(t, memberStore(t, identity.StatusActive), nil)
	for _, req := range []LoginRequest{{Email: "a@b.com"}, {Password: memberPassword}, {Email: "   ", Password: "x"}} {
		if _, err := s.Login(context.Background(), req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%+v: expected ErrInvalidCredentials, got %v", req, err)
		}
	}
}

func TestLogin_StoreDown(t *testing.T) {
	s, _ := newTestService(t, &downStore{}, nil)

	_, err := s.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: memberPassword})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("store outage must not look like bad credentials")
	}
}

func TestLogin_RootBypassesStore(t *testing.T) {
	store := &downStore{}
	s, repo := newTestService(t, store, nil)

	res, err := s.Login(context.Background(), LoginRequest{Email: "Root@Example.org", Password: "break-glass"})
	if err != nil {
		t.Fatalf("root login: %v", err)
	}
	if !res.Root || res.SubjectID != "root" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := s.Login(context.Background(), LoginRequest{Email: "root@example.org", Password: "guess"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.calls.Load() != 0 {
		t.Fatalf("root login touched the store %d times", store.calls.Load())
	}

	got := eventTypes(repo)
	if len(got) != 2 || got[0] != audit.EventTypeRootLogin || got[1] != audit.EventTypeLoginFailed {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestLogin_Throttled(t *testing.T) {
	th := &fakeThrottle{allow: false}
	s, repo := newTestService(t, memberStore(t, identity.StatusActive), th)

	_, err := s.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: memberPassword})
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	got := eventTypes(repo)
	if len(got) != 1 || got[0] != audit.EventTypeLoginThrottled {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestLogin_ThrottleFailsOpen(t *testing.T) {
	th := &fakeThrottle{err: errors.New("redis: connection refused")}
	s, _ := newTestService(t, memberStore(t, identity.StatusActive), th)

	if _, err := s.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: memberPassword}); err != nil {
		t.Fatalf("expected login despite limiter outage, got %v", err)
	}
	if len(th.resets) != 1 || th.resets[0] != "a@b.com" {
		t.Fatalf("expected counter reset after success, got %v", th.resets)
	}
}

func TestLogout(t *testing.T) {
	s, repo := newTestService(t, memberStore(t, identity.StatusActive), nil)

	c := s.Logout(context.Background(), RegularPrincipal{ID: "u1", Email: "a@b.com"}, "10.0.0.1")
	if c.Name != "session" || c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("unexpected logout cookie: %+v", c)
	}
	if c = s.Logout(context.Background(), nil, ""); c.MaxAge >= 0 {
		t.Fatalf("anonymous logout should still clear the cookie")
	}

	got := eventTypes(repo)
	if len(got) != 1 || got[0] != audit.EventTypeLogout {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}
