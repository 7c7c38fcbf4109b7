package service

import (
	"context"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

// BookingService reserves and releases seats against the credit ledger.
type BookingService interface {
	// Create books the schedule for targetUserID, or for the principal when it is empty.
	// Booking on behalf of another user requires an admin principal.
	Create(ctx context.Context, p model.Principal, scheduleID, targetUserID string) (*model.BookingDetail, error)
	// Cancel removes the booking and gives the credit back when a package can take it.
	Cancel(ctx context.Context, p model.Principal, bookingID string) error
	List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.BookingDetail], error)
	ListByUser(ctx context.Context, userID string, page, perPage int) (model.Page[model.BookingDetail], error)
	Get(ctx context.Context, p model.Principal, id string) (*model.BookingDetail, error)
}

type bookingService struct {
	tx        repository.Transactor
	bookings  repository.BookingRepository
	schedules repository.ScheduleRepository
	users     repository.UserRepository
	ledger    CreditLedger
	notifier  notify.Notifier
	settings  StudioSettings
	logger    zerolog.Logger
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	schedules repository.ScheduleRepository,
	users repository.UserRepository,
	ledger CreditLedger,
	notifier notify.Notifier,
	settings StudioSettings,
	logger zerolog.Logger,
) BookingService {
	return &bookingService{
		tx:        tx,
		bookings:  bookings,
		schedules: schedules,
		users:     users,
		ledger:    ledger,
		notifier:  notifier,
		settings:  settings,
		logger:    logger.With().Str("service", "BookingService").Logger(),
	}
}

func (s *bookingService) Create(ctx context.Context, p model.Principal, scheduleID, targetUserID string) (*model.BookingDetail, error) {
	if targetUserID == "" {
		targetUserID = p.ID
	}
	if targetUserID != p.ID && !p.IsAdmin() {
		return nil, ErrForbidden
	}

	var bookingID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cs, err := s.schedules.LockSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cs == nil {
			return ErrScheduleNotFound
		}
		user, err := s.users.GetUserByID(ctx, targetUserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		exists, err := s.bookings.BookingExists(ctx, targetUserID, cs.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBooking
		}
		booked, err := s.bookings.CountBySchedule(ctx, cs.ID)
		if err != nil {
			return err
		}
		if booked >= cs.MaxCapacity {
			return ErrScheduleFull
		}

		// Rolled back together with the insert below if anything after this fails.
		if _, err := s.ledger.ConsumeClass(ctx, targetUserID); err != nil {
			return err
		}
		b, err := s.bookings.CreateBooking(ctx, targetUserID, cs.ID)
		if err != nil {
			return mapRepoErr(err)
		}
		bookingID = b.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.bookings.GetBookingDetail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrBookingNotFound
	}
	s.logger.Info().Str("booking_id", detail.ID).Str("schedule_id", scheduleID).Str("user_id", targetUserID).Msg("Booking created")
	sendEmail(ctx, s.logger, s.notifier, detail.User.Email, "Your class is booked", notify.TemplateBookingConfirmation, bookingEmailData(detail, s.settings.location()))
	return detail, nil
}

func (s *bookingService) Cancel(ctx context.Context, p model.Principal, bookingID string) error {
	var detail *model.BookingDetail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		detail, err = s.bookings.GetBookingDetail(ctx, bookingID)
		if err != nil {
			return err
		}
		if detail == nil {
			return ErrBookingNotFound
		}
		if detail.UserID != p.ID && !p.IsAdmin() {
			return ErrForbidden
		}
		if err := s.bookings.DeleteBooking(ctx, detail.ID); err != nil {
			return err
		}
		if _, err := s.ledger.RefundClass(ctx, detail.UserID); err != nil {
			if KindOf(err) == KindInternal {
				return err
			}
			s.logger.Warn().Err(err).Str("booking_id", detail.ID).Str("user_id", detail.UserID).Msg("Booking cancelled without credit refund")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("booking_id", bookingID).Str("user_id", detail.UserID).Msg("Booking cancelled")
	sendEmail(ctx, s.logger, s.notifier, detail.User.Email, "Your booking was cancelled", notify.TemplateBookingCancellation, bookingEmailData(detail, s.settings.location()))
	return nil
}

func (s *bookingService) List(ctx context.Context, p model.Principal, page, perPage int) (model.Page[model.BookingDetail], error) {
	if err := requireAdmin(p); err != nil {
		return model.Page[model.BookingDetail]{}, err
	}
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.bookings.ListBookings(ctx, page, perPage)
	if err != nil {
		return model.Page[model.BookingDetail]{}, err
	}
	return model.NewPage(items, page, perPage, total), nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string, page, perPage int) (model.Page[model.BookingDetail], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.bookings.ListBookingsByUser(ctx, userID, page, perPage)
	if err != nil {
		return model.Page[model.BookingDetail]{}, err
	}
	return model.NewPage(items, page, perPage, total), nil
}

func (s *bookingService) Get(ctx context.Context, p model.Principal, id string) (*model.BookingDetail, error) {
	detail, err := s.bookings.GetBookingDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrBookingNotFound
	}
	if detail.UserID != p.ID && !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return detail, nil
}

func bookingEmailData(b *model.BookingDetail, loc *time.Location) map[string]any {
	start := b.Schedule.StartTime.In(loc)
	return map[string]any{
		"name":    b.User.FullName(),
		"class":   b.Schedule.Title,
		"teacher": b.Teacher.FullName(),
		"date":    start.Format("Monday 02 January 2006"),
		"time":    start.Format("15:04") + " - " + b.Schedule.EndTime.In(loc).Format("15:04"),
	}
}
