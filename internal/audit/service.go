package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records authentication events. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) LoginSucceeded(ctx context.Context, subjectID, email, ip string) error {
	return s.Append(ctx, Event{Type: EventTypeLoginSucceeded, SubjectID: subjectID, Email: email, IPAddress: ip})
}

// LoginFailed records a rejected login. reason is internal-only.
func (s *Service) LoginFailed(ctx context.Context, email, ip, reason string) error {
	return s.Append(ctx, Event{Type: EventTypeLoginFailed, Email: email, IPAddress: ip, Message: reason})
}

func (s *Service) LoginThrottled(ctx context.Context, email, ip string) error {
	return s.Append(ctx, Event{Type: EventTypeLoginThrottled, Email: email, IPAddress: ip})
}

// RootLogin records use of the break-glass account.
func (s *Service) RootLogin(ctx context.Context, subjectID, email, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeRootLogin,
		SubjectID: subjectID,
		Email:     email,
		IPAddress: ip,
		Message:   "break-glass login",
	})
}

func (s *Service) Logout(ctx context.Context, subjectID, ip string) error {
	return s.Append(ctx, Event{Type: EventTypeLogout, SubjectID: subjectID, IPAddress: ip})
}
