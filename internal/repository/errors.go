package repository

import "errors"

// Constraint violations surfaced to the service layer.
var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrBookingExists     = errors.New("booking already exists for user and schedule")
	ErrScheduleOverlap   = errors.New("schedule overlaps an existing schedule for the teacher")
	ErrTransactionExists = errors.New("client transaction id already recorded")
	ErrReferenced        = errors.New("row is still referenced")
	ErrInvalidReference  = errors.New("referenced row does not exist")
	ErrCreditsOutOfRange = errors.New("remaining credits out of range")
)
