package rbac

import (
	"context"
	"testing"

	"membership-portal/internal/auth"
	"membership-portal/internal/identity"
)

func role(name string, weight int, perms ...string) identity.Role {
	r := identity.Role{Name: name, Weight: weight}
	for _, p := range perms {
		r.Permissions = append(r.Permissions, identity.Permission{Name: p})
	}
	return r
}

func TestCompute_HighestWeightAndUnion(t *testing.T) {
	e := NewEvaluator(Catalog()...)
	p := auth.RegularPrincipal{
		ID: "u1",
		Roles: []identity.Role{
			role("A", 10),
			role("B", 90, PermUsersEdit),
		},
	}

	g := e.Compute(p)
	if g.DisplayRole != "B" {
		t.Fatalf("expected display role B, got %q", g.DisplayRole)
	}
	if !g.Has(PermUsersEdit) {
		t.Fatalf("expected %s granted, got %v", PermUsersEdit, g.List())
	}
	if g.Has(PermRolesEdit) {
		t.Fatalf("did not expect %s", PermRolesEdit)
	}
}

func TestCompute_UnionAcrossRoles(t *testing.T) {
	e := NewEvaluator(Catalog()...)
	p := auth.RegularPrincipal{Roles: []identity.Role{
		role("editor", 40, PermContentEdit, PermUploadsManage),
		role("mailer", 30, PermNewsletterSend, PermContentEdit),
	}}

	got := e.Compute(p).List()
	want := []string{PermContentEdit, PermNewsletterSend, PermUploadsManage}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCompute_FullAccessGetsUniverse(t *testing.T) {
	e := NewEvaluator(append(Catalog(), identity.Permission{Name: "admin.venues.edit"})...)
	g := e.Compute(auth.RegularPrincipal{ID: "u1", IsFullAccess: true})

	if !g.FullAccess {
		t.Fatalf("expected full access")
	}
	if len(g.Permissions) != len(e.Universe()) {
		t.Fatalf("expected universe of %d, got %d", len(e.Universe()), len(g.Permissions))
	}
	if !g.Has("admin.venues.edit") {
		t.Fatalf("expected stored permission in universe")
	}
	if g.DisplayRole != "" {
		t.Fatalf("expected no display role without roles, got %q", g.DisplayRole)
	}
	if g.DisplayRoleOr(DefaultDisplayRole) != "member" {
		t.Fatalf("expected member fallback")
	}
}

func TestCompute_RootBypassesGraph(t *testing.T) {
	e := NewEvaluator(Catalog()...)
	g := e.Compute(auth.RootPrincipal{ID: "root", Email: "root@example.org"})
	if !g.FullAccess || g.DisplayRole != RootDisplayRole {
		t.Fatalf("unexpected root grant: %+v", g)
	}
	if !g.HasAll(PermUsersEdit, PermRolesEdit, "anything.at.all") {
		t.Fatalf("expected root to pass every check")
	}
}

func TestCompute_NoRoles(t *testing.T) {
	e := NewEvaluator(Catalog()...)
	g := e.Compute(auth.RegularPrincipal{ID: "u1"})
	if g.DisplayRole != "" || len(g.Permissions) != 0 || g.FullAccess {
		t.Fatalf("expected empty grant, got %+v", g)
	}
	if g.HasAny(PermAdminAccess) {
		t.Fatalf("expected no permissions")
	}
}

func TestPrimaryRole_TieBreaksByName(t *testing.T) {
	r, ok := PrimaryRole([]identity.Role{role("zeta", 50), role("alpha", 50), role("low", 1)})
	if !ok || r.Name != "alpha" {
		t.Fatalf("expected alpha, got %q", r.Name)
	}
	r, ok = PrimaryRole([]identity.Role{role("alpha", 50), role("zeta", 50)})
	if !ok || r.Name != "alpha" {
		t.Fatalf("expected alpha regardless of order, got %q", r.Name)
	}
	if _, ok := PrimaryRole(nil); ok {
		t.Fatalf("expected no primary role")
	}
}

func TestGrant_PermissionNamesAreNormalized(t *testing.T) {
	e := NewEvaluator()
	g := e.Compute(auth.RegularPrincipal{Roles: []identity.Role{role("r", 1, " Admin.Users.Edit ")}})
	if !g.Has("admin.users.edit") || !g.Has("ADMIN.USERS.EDIT") {
		t.Fatalf("expected case-insensitive match, got %v", g.List())
	}
}

func TestLoadUniverse_FallsBackToCatalog(t *testing.T) {
	store := identity.NewMemoryStore()
	store.AddPermission(identity.Permission{Name: "admin.bands.edit"})

	e := LoadUniverse(context.Background(), store, nil)
	if len(e.Universe()) != len(Catalog())+1 {
		t.Fatalf("expected catalog plus stored permission, got %v", e.Universe())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e = LoadUniverse(ctx, store, nil)
	if len(e.Universe()) != len(Catalog()) {
		t.Fatalf("expected catalog only, got %v", e.Universe())
	}
}
