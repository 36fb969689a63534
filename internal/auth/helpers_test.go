package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"membership-portal/internal/config"
	"membership-portal/internal/identity"
	"membership-portal/internal/password"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret"

var t0 = time.Unix(1700000000, 0).UTC()

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.SessionConfig{Secret: testSecret, TTL: 7 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func newTestHasher() *password.Hasher {
	return password.NewHasher(bcrypt.MinCost)
}

func newTestRoot(h *password.Hasher) *Root {
	return NewRoot(config.RootConfig{
		Enabled:  true,
		ID:       "root",
		Email:    "root@example.org",
		Password: "break-glass",
	}, h)
}

func newTestResolver(t *testing.T, store identity.Store, now time.Time) (*Resolver, *Manager) {
	t.Helper()
	m := newTestManager(t)
	r := NewResolver(m, store, newTestRoot(newTestHasher()), 5*time.Minute, nil)
	r.clock = func() time.Time { return now }
	return r, m
}

// seededStore holds one member with a low and a high weight role.
func seededStore(updatedAt time.Time) *identity.MemoryStore {
	s := identity.NewMemoryStore()
	s.Put(identity.Identity{
		ID:        "u1",
		Email:     "a@b.com",
		Status:    identity.StatusActive,
		UpdatedAt: updatedAt,
		Roles: []identity.HeldRole{
			{Role: identity.Role{Name: "member", Weight: 10}},
			{Role: identity.Role{Name: "admin", Weight: 90, Permissions: []identity.Permission{{Name: "admin.users.edit"}}}},
		},
	})
	return s
}

// downStore fails every call the way an unreachable database would.
type downStore struct {
	calls atomic.Int32
}

func (s *downStore) err(op string) error {
	s.calls.Add(1)
	return errors.Join(identity.ErrUnavailable, errors.New(op+": connection refused"))
}

func (s *downStore) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	return identity.Identity{}, s.err("find by email")
}

func (s *downStore) FindByID(ctx context.Context, id string, withRoles bool) (identity.Identity, error) {
	return identity.Identity{}, s.err("find by id")
}

func (s *downStore) ListPermissions(ctx context.Context) ([]identity.Permission, error) {
	return nil, s.err("list permissions")
}
