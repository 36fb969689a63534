package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"membership-portal/internal/config"
	"membership-portal/internal/identity"
)

// Resolver turns a presented session token back into a Principal.
//
// There is no server-side session table. Revocation is approximated by the
// staleness rule: a token issued more than grace before the identity's last
// credential-relevant write is rejected.
type Resolver struct {
	tokens *Manager
	store  identity.Store
	root   *Root
	grace  time.Duration
	log    *slog.Logger
	clock  func() time.Time
}

func NewResolver(tokens *Manager, store identity.Store, root *Root, grace time.Duration, log *slog.Logger) *Resolver {
	if grace <= 0 {
		grace = config.DefaultStaleGrace
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		tokens: tokens,
		store:  store,
		root:   root,
		grace:  grace,
		log:    log,
		clock:  time.Now,
	}
}

// Resolve returns the caller for a token, (nil, nil) when the token does not
// authenticate anyone for any reason, or a non-nil error wrapping
// ErrStoreUnavailable when the answer could not be determined.
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	p, err := r.Explain(ctx, token)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return nil, err
	}
	if !errors.Is(err, ErrMissingToken) {
		r.log.DebugContext(ctx, "session rejected", "reason", Reason(err))
	}
	return nil, nil
}

// ResolveRequest reads the session cookie from req and resolves it.
func (r *Resolver) ResolveRequest(ctx context.Context, req *http.Request) (Principal, error) {
	c, err := req.Cookie(r.tokens.CookieName())
	if err != nil {
		return nil, nil
	}
	return r.Resolve(ctx, c.Value)
}

// Explain performs the same checks as Resolve but reports which one failed.
// Its errors are for logs and tests; never send them to a client.
func (r *Resolver) Explain(ctx context.Context, token string) (Principal, error) {
	claims, err := r.tokens.Verify(token, r.clock())
	if err != nil {
		return nil, err
	}

	// Root never depends on the store, so it keeps working while the store is down.
	if r.root.Matches(claims.UserID) {
		return r.root.Principal(), nil
	}

	ident, err := r.store.FindByID(ctx, claims.UserID, true)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if ident.UpdatedAt.Sub(claims.IssuedAt.Time) > r.grace {
		return nil, ErrCredentialsRotated
	}

	return hydrate(ident), nil
}
