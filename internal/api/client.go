package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maltehallstrom/boka/internal/models"
)

var (
	// ErrUnauthorized is returned when a tag is unknown/inactive or a
	// credential pair does not match.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired is returned when the backend rejects a mutating
	// call because the session is no longer valid.
	ErrSessionExpired = errors.New("session expired")

	// ErrConflict is returned when a booking overlaps an existing
	// reservation at commit time.
	ErrConflict = errors.New("booking conflict")

	// ErrNotFound is returned when cancelling a booking that no longer
	// exists.
	ErrNotFound = errors.New("booking not found")
)

// TransientError wraps a network or backend failure that may succeed on a
// manual retry. The workflow never retries automatically.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("backend unreachable during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient backend failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// BookingRequest is the input to CreateBooking.
type BookingRequest struct {
	ResourceID string
	SubjectID  string
	StartTime  time.Time
	EndTime    time.Time
	IsBillable bool
}

// Client is the abstract backend contract the workflow depends on. It is
// injected into the TUI constructor; implementations are the HTTP client and
// the in-process sandbox backend.
type Client interface {
	// AuthenticateToken resolves a scanned tag value into a subject id.
	AuthenticateToken(ctx context.Context, tag string) (string, error)

	// AuthenticateCredential validates a subject id and secret pair.
	AuthenticateCredential(ctx context.Context, subjectID, secret string) (string, error)

	// ChangeSecret replaces the current subject's secret.
	ChangeSecret(ctx context.Context, newSecret string) error

	// ListResources returns the bookable resource set.
	ListResources(ctx context.Context) ([]models.Resource, error)

	// ListBookings returns the subject's current reservations.
	ListBookings(ctx context.Context, subjectID string) ([]models.Booking, error)

	// GetAvailability returns the slots of one resource for one date.
	GetAvailability(ctx context.Context, resourceID, date string) ([]models.Slot, error)

	// CreateBooking commits a reservation and returns its server-assigned id.
	CreateBooking(ctx context.Context, req BookingRequest) (string, error)

	// CancelBooking removes a reservation.
	CancelBooking(ctx context.Context, bookingID string) error

	// Health probes the backend.
	Health(ctx context.Context) error
}
