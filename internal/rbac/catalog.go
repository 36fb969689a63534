package rbac

import "membership-portal/internal/identity"

// Permission names checked by the application. Keep these stable; they are
// stored in the permissions table and referenced by route guards.
const (
	PermAdminAccess    = "admin.access"
	PermUsersView      = "admin.users.view"
	PermUsersEdit      = "admin.users.edit"
	PermRolesEdit      = "admin.roles.edit"
	PermNewsletterSend = "admin.newsletter.send"
	PermThemeEdit      = "admin.theme.edit"
	PermContentEdit    = "admin.content.edit"
	PermUploadsManage  = "admin.uploads.manage"
)

// Display roles that do not come from the role table.
const (
	RootDisplayRole    = "root"
	DefaultDisplayRole = "member"
)

// Catalog is the built-in permission universe. Permissions created through
// the admin UI are merged in by LoadUniverse.
func Catalog() []identity.Permission {
	return []identity.Permission{
		{Name: PermAdminAccess, Description: "Open the admin area"},
		{Name: PermUsersView, Description: "List and view members"},
		{Name: PermUsersEdit, Description: "Edit members and their roles"},
		{Name: PermRolesEdit, Description: "Edit roles and their permissions"},
		{Name: PermNewsletterSend, Description: "Compose and send newsletters"},
		{Name: PermThemeEdit, Description: "Edit site colors and theme"},
		{Name: PermContentEdit, Description: "Edit pages and listings"},
		{Name: PermUploadsManage, Description: "Upload and delete files"},
	}
}
