package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erfajc97/anko-back/internal/schedule"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestKindOfAndMessage(t *testing.T) {
	malformed := fmt.Errorf("fetching class schedule abc: %w", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})
	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"domain sentinel", ErrScheduleNotFound, KindNotFound, "class schedule not found"},
		{"wrapped sentinel", invalid("max_capacity must be positive"), KindBadRequest, "invalid input: max_capacity must be positive"},
		{"malformed id", malformed, KindNotFound, "resource not found"},
		{"slot range", schedule.ErrInvalidRange, KindBadRequest, schedule.ErrInvalidRange.Error()},
		{"unknown", errors.New("boom"), KindInternal, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			if got := Message(tt.err); got != tt.message {
				t.Errorf("Message = %q, want %q", got, tt.message)
			}
		})
	}
}
