package audit

import (
	"context"
	"database/sql"
)

// PGRepo appends events to the auth_events table. It has no update or delete path.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_events (
  id, type, subject_id, email, ip_address, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		nullString(e.SubjectID),
		nullString(e.Email),
		nullString(e.IPAddress),
		nullString(e.Message),
		e.CreatedAt,
	)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
