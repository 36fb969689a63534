package auth

import "errors"

// State is the lifecycle of a session token. Expired, SignatureInvalid and
// Stale are terminal: only a new login produces a Valid token again.
type State int

const (
	StateIssued State = iota
	StateValid
	StateExpired
	StateSignatureInvalid
	StateStale
)

func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateSignatureInvalid:
		return "signature_invalid"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateExpired || s == StateSignatureInvalid || s == StateStale
}

// StateOf classifies the outcome of presenting a token. The second result is
// false for outcomes that say nothing about the token itself (no token sent,
// unknown user, store outage).
func StateOf(err error) (State, bool) {
	switch {
	case err == nil:
		return StateValid, true
	case errors.Is(err, ErrExpired):
		return StateExpired, true
	case errors.Is(err, ErrSignatureInvalid), errors.Is(err, ErrMalformedToken):
		return StateSignatureInvalid, true
	case errors.Is(err, ErrCredentialsRotated):
		return StateStale, true
	default:
		return StateIssued, false
	}
}
