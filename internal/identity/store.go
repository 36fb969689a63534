package identity

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the lookup completed and no identity matched.
	ErrNotFound = errors.New("identity: not found")
	// ErrUnavailable wraps any failure to reach or query the backing store.
	ErrUnavailable = errors.New("identity: store unavailable")
)

// Store is the credential store consumed by the session core.
//
// Implementations must return ErrNotFound for a miss and wrap every other
// failure with ErrUnavailable so callers can tell "no such user" from "the
// database is down".
type Store interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string, withRoles bool) (Identity, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
