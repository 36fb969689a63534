package auth

import "errors"

// Resolution failures. Everything except ErrStoreUnavailable is folded into a
// single "unauthenticated" outcome by Resolver.Resolve; the distinction only
// exists for logs and tests.
var (
	ErrMissingToken       = errors.New("auth: missing token")
	ErrMalformedToken     = errors.New("auth: malformed token")
	ErrSignatureInvalid   = errors.New("auth: signature invalid")
	ErrExpired            = errors.New("auth: token expired")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrCredentialsRotated = errors.New("auth: credentials rotated since issuance")

	// ErrStoreUnavailable is transient: the caller should answer with a server
	// error, not tell the user they are logged out.
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")
)

// Login failures.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTooManyAttempts    = errors.New("auth: too many login attempts")
)

// Reason is a short, log-friendly label for a resolution error.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrCredentialsRotated):
		return "stale"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "unknown"
	}
}
