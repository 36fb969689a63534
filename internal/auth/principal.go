package auth

import "membership-portal/internal/identity"

// Principal is the resolved caller: either RootPrincipal or RegularPrincipal.
// The unexported marker keeps the set closed so authorization code can switch
// on it exhaustively and never mistake root for a database row.
type Principal interface {
	SubjectID() string
	EmailAddress() string
	IsRoot() bool
	IsAdmin() bool
	FullAccess() bool

	principal()
}

// RootPrincipal is the configured break-glass identity. It has no roles and is
// never read from or written to the credential store.
type RootPrincipal struct {
	ID    string
	Email string
}

func (p RootPrincipal) SubjectID() string { return p.ID }
func (p RootPrincipal) EmailAddress() string { return p.Email }
func (RootPrincipal) IsRoot() bool { return true }
func (RootPrincipal) IsAdmin() bool { return true }
func (RootPrincipal) FullAccess() bool { return true }
func (RootPrincipal) principal() {}

// RegularPrincipal is a store-backed identity hydrated with its held roles.
type RegularPrincipal struct {
	ID           string
	Email        string
	Roles        []identity.Role
	IsFullAccess bool
	Admin        bool
}

func (p RegularPrincipal) SubjectID() string { return p.ID }
func (p RegularPrincipal) EmailAddress() string { return p.Email }
func (RegularPrincipal) IsRoot() bool { return false }
func (p RegularPrincipal) IsAdmin() bool { return p.Admin }
func (p RegularPrincipal) FullAccess() bool { return p.IsFullAccess }
func (RegularPrincipal) principal() {}

// RoleNames lists the held role names in storage order.
func (p RegularPrincipal) RoleNames() []string {
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, r.Name)
	}
	return out
}

func hydrate(i identity.Identity) RegularPrincipal {
	p := RegularPrincipal{
		ID:           i.ID,
		Email:        i.Email,
		Roles:        make([]identity.Role, 0, len(i.Roles)),
		IsFullAccess: i.IsFullAccess,
		Admin:        i.IsFullAccess,
	}
	for _, hr := range i.Roles {
		p.Roles = append(p.Roles, hr.Role)
		if identity.IsAdminRole(hr.Role.Name) {
			p.Admin = true
		}
	}
	return p
}
