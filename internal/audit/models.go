package audit

import "time"

// Event is an immutable, append-only record of an authentication event.
//
// Invariants:
// - Events are never updated or deleted.
// - Type is required.
// - Subject and IP capture are best-effort; never block a login on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// SubjectID is empty for failed logins against unknown emails.
	SubjectID string `json:"subject_id,omitempty" db:"subject_id"`
	Email     string `json:"email,omitempty" db:"email"`

	// IPAddress is the client IP as resolved by the HTTP layer.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLoginSucceeded EventType = "login_succeeded"
	EventTypeLoginFailed    EventType = "login_failed"
	EventTypeLoginThrottled EventType = "login_throttled"
	EventTypeRootLogin      EventType = "root_login"
	EventTypeLogout         EventType = "logout"
)
