package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxPrincipal ctxKey = iota

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFrom returns the caller resolved by LoadSession, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(Principal)
	return p, ok && p != nil
}

func SubjectID(ctx context.Context) (string, error) {
	if p, ok := PrincipalFrom(ctx); ok && p.SubjectID() != "" {
		return p.SubjectID(), nil
	}
	return "", errors.New("principal not in context")
}
