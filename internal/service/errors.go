package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/repository"
	"github.com/erfajc97/anko-back/internal/schedule"
)

// Kind classifies a domain error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindBadRequest
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is a domain error with a fixed kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrUserNotFound        = newError(KindNotFound, "user not found")
	ErrTeacherNotFound     = newError(KindNotFound, "teacher not found")
	ErrPackageNotFound     = newError(KindNotFound, "class package not found")
	ErrUserPackageNotFound = newError(KindNotFound, "user package not found")
	ErrScheduleNotFound    = newError(KindNotFound, "class schedule not found")
	ErrBookingNotFound     = newError(KindNotFound, "booking not found")
	ErrPaymentNotFound     = newError(KindNotFound, "payment transaction not found")

	ErrDuplicateBooking       = newError(KindConflict, "user already booked this class")
	ErrEmailAlreadyRegistered = newError(KindConflict, "email already registered")
	ErrTeacherHasSchedules    = newError(KindConflict, "teacher still has class schedules")
	ErrPackageInUse           = newError(KindConflict, "class package has already been purchased")
	ErrDuplicateTransaction   = newError(KindConflict, "client transaction id already exists")
	ErrInvalidTransition      = newError(KindConflict, "payment status transition not allowed")
	ErrScheduleOverlap        = newError(KindConflict, "schedule overlaps an existing class of the teacher")

	ErrScheduleFull          = newError(KindBadRequest, "class schedule is full")
	ErrNoAvailableCredits    = newError(KindBadRequest, "no available class credits")
	ErrNoRefundablePackage   = newError(KindBadRequest, "no package can take the credit back")
	ErrInvalidRange          = newError(KindBadRequest, "invalid date range")
	ErrInvalidInput          = newError(KindBadRequest, "invalid input")
	ErrCapacityBelowBookings = newError(KindBadRequest, "capacity is below the current number of bookings")
	ErrInvalidToken          = newError(KindBadRequest, "invalid or expired token")
	ErrAlreadyVerified       = newError(KindBadRequest, "email already verified")

	ErrInvalidCredentials = newError(KindUnauthorized, "invalid email or password")
	ErrInvalidSession     = newError(KindUnauthorized, "invalid or expired session")

	ErrForbidden        = newError(KindForbidden, "not allowed")
	ErrEmailNotVerified = newError(KindForbidden, "email not verified")
)

// invalid wraps ErrInvalidInput with a reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ScheduleConflict describes one generated block that collides with an existing class.
type ScheduleConflict struct {
	Date                  string    `json:"date"`
	Start                 time.Time `json:"start"`
	End                   time.Time `json:"end"`
	ConflictingScheduleID string    `json:"conflicting_schedule_id"`
	ConflictingStart      time.Time `json:"conflicting_start"`
	ConflictingEnd        time.Time `json:"conflicting_end"`
}

// ScheduleConflictError lists every conflicting block of a rejected generation request.
type ScheduleConflictError struct {
	Conflicts []ScheduleConflict
}

func (e *ScheduleConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s-%s overlaps %s", c.Date, c.Start.Format("15:04"), c.End.Format("15:04"), c.ConflictingScheduleID))
	}
	return fmt.Sprintf("%d conflicting blocks: %s", len(e.Conflicts), strings.Join(parts, "; "))
}

func newScheduleConflictError(conflicts []schedule.Conflict, loc *time.Location) *ScheduleConflictError {
	out := make([]ScheduleConflict, 0, len(conflicts))
	for _, c := range conflicts {
		start := c.Candidate.Start.In(loc)
		out = append(out, ScheduleConflict{
			Date:                  start.Format("2006-01-02"),
			Start:                 start,
			End:                   c.Candidate.End.In(loc),
			ConflictingScheduleID: c.ScheduleID,
			ConflictingStart:      c.Existing.Start.In(loc),
			ConflictingEnd:        c.Existing.End.In(loc),
		})
	}
	return &ScheduleConflictError{Conflicts: out}
}

// KindOf classifies err; anything unknown is internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	var ce *ScheduleConflictError
	if errors.As(err, &ce) {
		return KindConflict
	}
	if errors.Is(err, schedule.ErrInvalidRange) || errors.Is(err, schedule.ErrInvalidClock) {
		return KindBadRequest
	}
	if repository.IsMalformedID(err) {
		return KindNotFound
	}
	return KindInternal
}

// Message is the client-facing text of err. A malformed id reads like any
// other missing row instead of echoing the driver error.
func Message(err error) string {
	if repository.IsMalformedID(err) {
		return "resource not found"
	}
	return err.Error()
}
