package rbac

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"membership-portal/internal/auth"
	"membership-portal/internal/identity"
)

// Grant is the authorization view of a principal: the role shown in the UI
// and the effective permission set.
type Grant struct {
	// DisplayRole is empty when the principal holds no roles.
	DisplayRole string
	FullAccess  bool
	Permissions map[string]struct{}
}

// Has reports whether perm is granted.
func (g Grant) Has(perm string) bool {
	if g.FullAccess {
		return true
	}
	_, ok := g.Permissions[normalize(perm)]
	return ok
}

func (g Grant) HasAny(perms ...string) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if g.Has(p) {
			return true
		}
	}
	return false
}

func (g Grant) HasAll(perms ...string) bool {
	for _, p := range perms {
		if !g.Has(p) {
			return false
		}
	}
	return true
}

// List returns the granted permissions sorted by name.
func (g Grant) List() []string {
	out := make([]string, 0, len(g.Permissions))
	for p := range g.Permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DisplayRoleOr substitutes fallback for a principal without roles.
func (g Grant) DisplayRoleOr(fallback string) string {
	if g.DisplayRole == "" {
		return fallback
	}
	return g.DisplayRole
}

// Evaluator computes grants against a fixed permission universe.
// It is immutable after construction and safe for concurrent use.
type Evaluator struct {
	universe map[string]struct{}
}

func NewEvaluator(universe ...identity.Permission) *Evaluator {
	e := &Evaluator{universe: make(map[string]struct{}, len(universe))}
	for _, p := range universe {
		if n := normalize(p.Name); n != "" {
			e.universe[n] = struct{}{}
		}
	}
	return e
}

// LoadUniverse builds an Evaluator from the catalog plus every permission the
// store knows about. If the store is unreachable the catalog alone is used.
func LoadUniverse(ctx context.Context, store identity.Store, log *slog.Logger) *Evaluator {
	perms := Catalog()
	stored, err := store.ListPermissions(ctx)
	if err != nil {
		if log != nil {
			log.WarnContext(ctx, "permission universe limited to catalog", "err", err)
		}
		return NewEvaluator(perms...)
	}
	return NewEvaluator(append(perms, stored...)...)
}

// Universe lists every known permission sorted by name.
func (e *Evaluator) Universe() []string {
	out := make([]string, 0, len(e.universe))
	for p := range e.universe {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Compute resolves a principal into a Grant. It is a pure function of the
// principal and the universe.
func (e *Evaluator) Compute(p auth.Principal) Grant {
	switch v := p.(type) {
	case auth.RootPrincipal:
		return Grant{DisplayRole: RootDisplayRole, FullAccess: true, Permissions: e.all()}
	case auth.RegularPrincipal:
		return e.computeRegular(v)
	default:
		return Grant{Permissions: map[string]struct{}{}}
	}
}

func (e *Evaluator) computeRegular(p auth.RegularPrincipal) Grant {
	g := Grant{Permissions: make(map[string]struct{})}
	if primary, ok := PrimaryRole(p.Roles); ok {
		g.DisplayRole = primary.Name
	}
	if p.IsFullAccess {
		g.FullAccess = true
		g.Permissions = e.all()
		return g
	}
	for _, r := range p.Roles {
		for _, perm := range r.Permissions {
			if n := normalize(perm.Name); n != "" {
				g.Permissions[n] = struct{}{}
			}
		}
	}
	return g
}

func (e *Evaluator) all() map[string]struct{} {
	out := make(map[string]struct{}, len(e.universe))
	for p := range e.universe {
		out[p] = struct{}{}
	}
	return out
}

// PrimaryRole picks the role with the highest weight. Ties go to the
// lexicographically smallest name so the choice is stable across requests.
func PrimaryRole(roles []identity.Role) (identity.Role, bool) {
	if len(roles) == 0 {
		return identity.Role{}, false
	}
	best := roles[0]
	for _, r := range roles[1:] {
		if r.Weight > best.Weight || (r.Weight == best.Weight && r.Name < best.Name) {
			best = r
		}
	}
	return best, true
}

func normalize(perm string) string {
	return strings.ToLower(strings.TrimSpace(perm))
}
