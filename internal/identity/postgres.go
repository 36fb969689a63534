package identity

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
)

// Schema is the DDL PGStore and the audit repository expect.
//
//go:embed schema.sql
var Schema string

// NOTE: This store assumes the following tables exist (see schema.sql):
// - users
// - roles
// - permissions
// - user_roles (users <-> roles)
// - role_permissions (roles <-> permissions)
//
// It only reads. Writes belong to the admin and profile flows, which must bump
// users.updated_at on every credential-relevant change.

// PGStore implements Store over database/sql with the pgx stdlib driver.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	const q = `
SELECT id::text, email, password_hash, status, is_full_access, updated_at
FROM users
WHERE lower(email) = lower($1)
`
	var i Identity
	if err := s.db.QueryRowContext(ctx, q, normalizeEmail(email)).Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Status,
		&i.IsFullAccess,
		&i.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, unavailable("find by email", err)
	}
	return i, nil
}

func (s *PGStore) FindByID(ctx context.Context, id string, withRoles bool) (Identity, error) {
	const q = `
SELECT id::text, email, password_hash, status, is_full_access, updated_at
FROM users
WHERE id::text = $1
`
	var i Identity
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Status,
		&i.IsFullAccess,
		&i.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, unavailable("find by id", err)
	}
	if !withRoles {
		return i, nil
	}

	roles, err := s.heldRoles(ctx, i.ID)
	if err != nil {
		return Identity{}, err
	}
	i.Roles = roles
	return i, nil
}

func (s *PGStore) heldRoles(ctx context.Context, userID string) ([]HeldRole, error) {
	// One row per (role, permission); roles without permissions yield a single
	// row with NULL permission columns.
	const q = `
SELECT r.name, r.weight, r.is_core, p.name, p.description
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id::text = $1
ORDER BY r.name, p.name
`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, unavailable("held roles", err)
	}
	defer rows.Close()

	var out []HeldRole
	index := make(map[string]int)
	for rows.Next() {
		var (
			role     Role
			permName sql.NullString
			permDesc sql.NullString
		)
		if err := rows.Scan(&role.Name, &role.Weight, &role.IsCore, &permName, &permDesc); err != nil {
			return nil, unavailable("scan held role", err)
		}
		pos, ok := index[role.Name]
		if !ok {
			pos = len(out)
			index[role.Name] = pos
			out = append(out, HeldRole{Role: role})
		}
		if permName.Valid {
			out[pos].Role.Permissions = append(out[pos].Role.Permissions, Permission{
				Name:        permName.String,
				Description: permDesc.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("held roles", err)
	}
	return out, nil
}

func (s *PGStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	const q = `
SELECT name, description
FROM permissions
ORDER BY name
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, unavailable("list permissions", err)
	}
	defer rows.Close()

	var out []Permission
	for rows.Next() {
		var p Permission
		var desc sql.NullString
		if err := rows.Scan(&p.Name, &desc); err != nil {
			return nil, unavailable("scan permission", err)
		}
		p.Description = desc.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list permissions", err)
	}
	return out, nil
}

var _ Store = (*PGStore)(nil)
