package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store useful for tests and local development.
// It is not intended for production use.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]Identity
	permissions map[string]Permission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]Identity),
		permissions: make(map[string]Permission),
	}
}

// Put inserts or replaces an identity. Permissions carried by its roles are
// registered in the permission catalog.
func (s *MemoryStore) Put(i Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i.Email = normalizeEmail(i.Email)
	i.Roles = cloneRoles(i.Roles)
	s.byID[i.ID] = i
	for _, hr := range i.Roles {
		for _, p := range hr.Role.Permissions {
			s.permissions[p.Name] = p
		}
	}
}

// AddPermission registers a permission that no role grants yet.
func (s *MemoryStore) AddPermission(p Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[p.Name] = p
}

// Touch moves an identity's UpdatedAt, the way a password or profile write would.
func (s *MemoryStore) Touch(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	i.UpdatedAt = at
	s.byID[id] = i
	return true
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, unavailable("find by email", err)
	}
	email = normalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range s.byID {
		if i.Email == email {
			i.Roles = nil
			return i, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (s *MemoryStore) FindByID(ctx context.Context, id string, withRoles bool) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, unavailable("find by id", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	if withRoles {
		i.Roles = cloneRoles(i.Roles)
	} else {
		i.Roles = nil
	}
	return i, nil
}

func (s *MemoryStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list permissions", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func cloneRoles(in []HeldRole) []HeldRole {
	if in == nil {
		return nil
	}
	out := make([]HeldRole, len(in))
	for i, hr := range in {
		out[i] = hr
		out[i].Role.Permissions = append([]Permission(nil), hr.Role.Permissions...)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Store = (*MemoryStore)(nil)
