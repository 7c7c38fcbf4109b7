package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/repository"
	"github.com/erfajc97/anko-back/internal/schedule"

	"github.com/rs/zerolog"
)

// maxGenerateDays bounds a single generation request.
const maxGenerateDays = 366

// maxRangeDays bounds the calendar and by-range reads.
const maxRangeDays = 62

const dateLayout = "2006-01-02"

// StudioSettings carries the studio-wide calendar configuration.
type StudioSettings struct {
	Location  *time.Location
	Days      int
	OpenHour  int
	CloseHour int
}

func (s StudioSettings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// defaultRange resolves an optional [from, to) pair, defaulting to today plus the configured days.
func (s StudioSettings) defaultRange(now time.Time, from, to *time.Time) (time.Time, time.Time, error) {
	loc := s.location()
	y, m, d := now.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if from != nil {
		start = *from
	}
	days := s.Days
	if days <= 0 {
		days = 14
	}
	days = min(days, maxRangeDays)
	end := start.AddDate(0, 0, days)
	if to != nil {
		end = *to
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if end.After(start.AddDate(0, 0, maxRangeDays)) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: at most %d days", ErrInvalidRange, maxRangeDays)
	}
	return start, end, nil
}

type GenerateScheduleInput struct {
	TeacherID   string
	Title       string
	StartDate   string // YYYY-MM-DD, inclusive
	EndDate     string // YYYY-MM-DD, inclusive
	StartHour   string // HH:mm
	EndHour     string // HH:mm
	MaxCapacity int
}

type UpdateScheduleInput struct {
	Title       *string
	MaxCapacity *int
	TeacherID   *string
}

// ScheduleAvailability is a schedule with its occupancy figures.
type ScheduleAvailability struct {
	Schedule        model.ClassSchedule   `json:"schedule"`
	CurrentBookings int                   `json:"current_bookings"`
	AvailableSpots  int                   `json:"available_spots"`
	IsFull          bool                  `json:"is_full"`
	UtilizationRate float64               `json:"utilization_rate"`
	DurationMinutes int                   `json:"duration_minutes"`
	Bookings        []model.BookingDetail `json:"bookings"`
}

// TeacherSchedules groups schedules by teacher.
type TeacherSchedules struct {
	Teacher   model.Teacher         `json:"teacher"`
	Schedules []model.ClassSchedule `json:"schedules"`
}

// DeleteScheduleResult reports what removing a schedule touched.
type DeleteScheduleResult struct {
	DeletedBookings int `json:"deleted_bookings"`
	RefundedCredits int `json:"refunded_credits"`
	SkippedRefunds  int `json:"skipped_refunds"`
}

type ScheduleService interface {
	// Generate creates one-hour classes for every day of the range. Either every block
	// is created or, on any overlap with the teacher's existing classes, none is.
	Generate(ctx context.Context, p model.Principal, in GenerateScheduleInput) ([]model.ClassSchedule, error)
	List(ctx context.Context, page, perPage int) (model.Page[model.ClassSchedule], error)
	Get(ctx context.Context, id string) (*model.ClassSchedule, error)
	ListWithAvailability(ctx context.Context, page, perPage int) (model.Page[ScheduleAvailability], error)
	ListByTeacherRange(ctx context.Context, from, to *time.Time) ([]TeacherSchedules, error)
	Update(ctx context.Context, p model.Principal, id string, in UpdateScheduleInput) (*model.ClassSchedule, error)
	// Delete refunds every booked user, then removes the bookings and the schedule.
	Delete(ctx context.Context, p model.Principal, id string) (*DeleteScheduleResult, error)
}

type scheduleService struct {
	tx        repository.Transactor
	schedules repository.ScheduleRepository
	teachers  repository.TeacherRepository
	bookings  repository.BookingRepository
	ledger    CreditLedger
	notifier  notify.Notifier
	settings  StudioSettings
	logger    zerolog.Logger
	now       func() time.Time
}

func NewScheduleService(
	tx repository.Transactor,
	schedules repository.ScheduleRepository,
	teachers repository.TeacherRepository,
	bookings repository.BookingRepository,
	ledger CreditLedger,
	notifier notify.Notifier,
	settings StudioSettings,
	logger zerolog.Logger,
) ScheduleService {
	return &scheduleService{
		tx:        tx,
		schedules: schedules,
		teachers:  teachers,
		bookings:  bookings,
		ledger:    ledger,
		notifier:  notifier,
		settings:  settings,
		logger:    logger.With().Str("service", "ScheduleService").Logger(),
		now:       time.Now,
	}
}

func (s *scheduleService) buildRequest(in GenerateScheduleInput) (schedule.Request, error) {
	loc := s.settings.location()
	start, err := time.ParseInLocation(dateLayout, in.StartDate, loc)
	if err != nil {
		return schedule.Request{}, invalid("start date must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, in.EndDate, loc)
	if err != nil {
		return schedule.Request{}, invalid("end date must be YYYY-MM-DD")
	}
	window, err := schedule.ParseWindow(in.StartHour, in.EndHour)
	if err != nil {
		return schedule.Request{}, invalid("%v", err)
	}
	return schedule.Request{StartDate: start, EndDate: end, Window: window, Location: loc}, nil
}

func (s *scheduleService) Generate(ctx context.Context, p model.Principal, in GenerateScheduleInput) ([]model.ClassSchedule, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	if in.MaxCapacity <= 0 {
		return nil, invalid("max capacity must be positive")
	}
	req, err := s.buildRequest(in)
	if err != nil {
		return nil, err
	}
	if req.Days() > maxGenerateDays {
		return nil, invalid("date range may span at most %d days", maxGenerateDays)
	}
	slots, err := schedule.Slots(req)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidRange) {
			return nil, ErrInvalidRange
		}
		return nil, err
	}
	if len(slots) == 0 {
		teacher, err := s.teachers.GetTeacherByID(ctx, in.TeacherID)
		if err != nil {
			return nil, err
		}
		if teacher == nil {
			return nil, ErrTeacherNotFound
		}
		return []model.ClassSchedule{}, nil
	}
	span, _ := schedule.Span(slots)

	var created []model.ClassSchedule
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		teacher, err := s.teachers.LockTeacher(ctx, in.TeacherID)
		if err != nil {
			return err
		}
		if teacher == nil {
			return ErrTeacherNotFound
		}

		existing, err := s.schedules.ListOverlapping(ctx, teacher.ID, span.Start, span.End, "")
		if err != nil {
			return err
		}
		if conflicts := schedule.Conflicts(slots, toExisting(existing)); len(conflicts) > 0 {
			return newScheduleConflictError(conflicts, req.Location)
		}

		rows := make([]model.ClassSchedule, len(slots))
		for i, slot := range slots {
			rows[i] = model.ClassSchedule{
				TeacherID:   teacher.ID,
				Title:       in.Title,
				StartTime:   slot.Start,
				EndTime:     slot.End,
				MaxCapacity: in.MaxCapacity,
			}
		}
		created, err = s.schedules.CreateSchedules(ctx, rows)
		if err != nil {
			return mapRepoErr(err)
		}
		for i := range created {
			created[i].Teacher = teacher
		}
		return nil
	})
	if err != nil {
		var conflictErr *ScheduleConflictError
		if errors.As(err, &conflictErr) {
			s.logger.Info().Str("teacher_id", in.TeacherID).Int("conflicts", len(conflictErr.Conflicts)).Msg("Schedule generation rejected")
		}
		return nil, err
	}
	s.logger.Info().Str("teacher_id", in.TeacherID).Int("created", len(created)).Msg("Class schedules generated")
	return created, nil
}

func toExisting(schedules []model.ClassSchedule) []schedule.Existing {
	out := make([]schedule.Existing, len(schedules))
	for i, cs := range schedules {
		out[i] = schedule.Existing{ID: cs.ID, Slot: schedule.Slot{Start: cs.StartTime, End: cs.EndTime}}
	}
	return out
}

func (s *scheduleService) List(ctx context.Context, page, perPage int) (model.Page[model.ClassSchedule], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.schedules.ListSchedules(ctx, page, perPage)
	if err != nil {
		return model.Page[model.ClassSchedule]{}, err
	}
	return model.NewPage(items, page, perPage, total), nil
}

func (s *scheduleService) Get(ctx context.Context, id string) (*model.ClassSchedule, error) {
	cs, err := s.schedules.GetScheduleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, ErrScheduleNotFound
	}
	return cs, nil
}

func (s *scheduleService) ListWithAvailability(ctx context.Context, page, perPage int) (model.Page[ScheduleAvailability], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.schedules.ListSchedules(ctx, page, perPage)
	if err != nil {
		return model.Page[ScheduleAvailability]{}, err
	}
	ids := make([]string, len(items))
	for i, cs := range items {
		ids[i] = cs.ID
	}
	bookings, err := s.bookings.ListBySchedules(ctx, ids)
	if err != nil {
		return model.Page[ScheduleAvailability]{}, err
	}
	bySchedule := groupBookings(bookings)

	out := make([]ScheduleAvailability, len(items))
	for i, cs := range items {
		occ := model.ScheduleOccupancy{Schedule: cs, Bookings: bySchedule[cs.ID]}
		spots := occ.AvailableSpots()
		if spots < 0 {
			spots = 0
		}
		list := occ.Bookings
		if list == nil {
			list = []model.BookingDetail{}
		}
		out[i] = ScheduleAvailability{
			Schedule:        cs,
			CurrentBookings: len(occ.Bookings),
			AvailableSpots:  spots,
			IsFull:          occ.IsFull(),
			UtilizationRate: occ.UtilizationRate(),
			DurationMinutes: int(cs.EndTime.Sub(cs.StartTime).Minutes()),
			Bookings:        list,
		}
	}
	return model.NewPage(out, page, perPage, total), nil
}

func groupBookings(bookings []model.BookingDetail) map[string][]model.BookingDetail {
	out := make(map[string][]model.BookingDetail)
	for _, b := range bookings {
		out[b.ClassScheduleID] = append(out[b.ClassScheduleID], b)
	}
	return out
}

func (s *scheduleService) ListByTeacherRange(ctx context.Context, from, to *time.Time) ([]TeacherSchedules, error) {
	start, end, err := s.settings.defaultRange(s.now(), from, to)
	if err != nil {
		return nil, err
	}
	items, err := s.schedules.ListInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*TeacherSchedules)
	var order []string
	for _, cs := range items {
		g, ok := groups[cs.TeacherID]
		if !ok {
			g = &TeacherSchedules{}
			if cs.Teacher != nil {
				g.Teacher = *cs.Teacher
			} else {
				g.Teacher = model.Teacher{ID: cs.TeacherID}
			}
			groups[cs.TeacherID] = g
			order = append(order, cs.TeacherID)
		}
		g.Schedules = append(g.Schedules, cs)
	}
	out := make([]TeacherSchedules, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Teacher.FullName() < out[j].Teacher.FullName()
	})
	return out, nil
}

func (s *scheduleService) Update(ctx context.Context, p model.Principal, id string, in UpdateScheduleInput) (*model.ClassSchedule, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var updated *model.ClassSchedule
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cs, err := s.schedules.LockSchedule(ctx, id)
		if err != nil {
			return err
		}
		if cs == nil {
			return ErrScheduleNotFound
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return invalid("title is required")
			}
			cs.Title = title
		}
		if in.MaxCapacity != nil {
			if *in.MaxCapacity <= 0 {
				return invalid("max capacity must be positive")
			}
			booked, err := s.bookings.CountBySchedule(ctx, cs.ID)
			if err != nil {
				return err
			}
			if *in.MaxCapacity < booked {
				return ErrCapacityBelowBookings
			}
			cs.MaxCapacity = *in.MaxCapacity
		}
		if in.TeacherID != nil && *in.TeacherID != cs.TeacherID {
			teacher, err := s.teachers.LockTeacher(ctx, *in.TeacherID)
			if err != nil {
				return err
			}
			if teacher == nil {
				return ErrTeacherNotFound
			}
			existing, err := s.schedules.ListOverlapping(ctx, teacher.ID, cs.StartTime, cs.EndTime, cs.ID)
			if err != nil {
				return err
			}
			slot := []schedule.Slot{{Start: cs.StartTime, End: cs.EndTime}}
			if conflicts := schedule.Conflicts(slot, toExisting(existing)); len(conflicts) > 0 {
				return newScheduleConflictError(conflicts, s.settings.location())
			}
			cs.TeacherID = teacher.ID
		}
		updated, err = s.schedules.UpdateSchedule(ctx, cs)
		if err != nil {
			return mapRepoErr(err)
		}
		if updated == nil {
			return ErrScheduleNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *scheduleService) Delete(ctx context.Context, p model.Principal, id string) (*DeleteScheduleResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	result := &DeleteScheduleResult{}
	var affected []model.BookingDetail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		*result = DeleteScheduleResult{}
		cs, err := s.schedules.LockSchedule(ctx, id)
		if err != nil {
			return err
		}
		if cs == nil {
			return ErrScheduleNotFound
		}
		affected, err = s.bookings.ListBySchedules(ctx, []string{cs.ID})
		if err != nil {
			return err
		}
		for _, b := range affected {
			if _, err := s.ledger.RefundClass(ctx, b.UserID); err != nil {
				if KindOf(err) == KindInternal {
					return err
				}
				s.logger.Warn().Err(err).Str("schedule_id", cs.ID).Str("user_id", b.UserID).Msg("Could not refund credit for removed class")
				result.SkippedRefunds++
				continue
			}
			result.RefundedCredits++
		}
		n, err := s.bookings.DeleteBySchedule(ctx, cs.ID)
		if err != nil {
			return err
		}
		result.DeletedBookings = int(n)
		return s.schedules.DeleteSchedule(ctx, cs.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("schedule_id", id).
		Int("deleted_bookings", result.DeletedBookings).
		Int("refunded", result.RefundedCredits).
		Int("skipped_refunds", result.SkippedRefunds).
		Msg("Class schedule deleted")

	for _, b := range affected {
		sendEmail(ctx, s.logger, s.notifier, b.User.Email, "Your class was cancelled", notify.TemplateBookingCancellation, bookingEmailData(&b, s.settings.location()))
	}
	return result, nil
}
