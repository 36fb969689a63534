package auth

import (
	"strings"
	"sync"

	"membership-portal/internal/config"
	"membership-portal/internal/password"
)

// Root is the break-glass login. Its password hash is derived once from the
// configured secret; nothing about it is persisted. A nil *Root is a disabled
// root and matches nothing.
type Root struct {
	id     string
	email  string
	secret string
	hasher *password.Hasher

	once    sync.Once
	digest  string
	hashErr error
}

// NewRoot returns nil when the root principal is disabled.
func NewRoot(cfg config.RootConfig, hasher *password.Hasher) *Root {
	if !cfg.Enabled || cfg.Email == "" || cfg.Password == "" {
		return nil
	}
	id := cfg.ID
	if id == "" {
		id = config.DefaultRootID
	}
	if hasher == nil {
		hasher = password.NewHasher(password.DefaultCost)
	}
	return &Root{
		id:     id,
		email:  strings.ToLower(strings.TrimSpace(cfg.Email)),
		secret: cfg.Password,
		hasher: hasher,
	}
}

// Warm computes the root digest up front so the first break-glass login does
// not pay for bcrypt.
func (r *Root) Warm() error {
	if r == nil {
		return nil
	}
	_, err := r.hash()
	return err
}

func (r *Root) hash() (string, error) {
	r.once.Do(func() {
		r.digest, r.hashErr = r.hasher.Hash(r.secret)
		r.secret = ""
	})
	return r.digest, r.hashErr
}

// Matches reports whether a token subject names the root principal.
func (r *Root) Matches(subjectID string) bool {
	return r != nil && subjectID != "" && subjectID == r.id
}

// IsRootEmail reports whether a login attempt targets the root account.
func (r *Root) IsRootEmail(email string) bool {
	return r != nil && strings.ToLower(strings.TrimSpace(email)) == r.email
}

// Authenticate checks root credentials without touching the credential store.
func (r *Root) Authenticate(email, plain string) bool {
	if !r.IsRootEmail(email) {
		return false
	}
	digest, err := r.hash()
	if err != nil {
		return false
	}
	return r.hasher.Verify(plain, digest)
}

func (r *Root) Principal() RootPrincipal {
	return RootPrincipal{ID: r.id, Email: r.email}
}
