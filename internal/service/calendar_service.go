package service

import (
	"context"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"
	"github.com/erfajc97/anko-back/internal/schedule"

	"github.com/rs/zerolog"
)

// CalendarBooking is a booked seat as shown to administrators.
type CalendarBooking struct {
	BookingID        string `json:"booking_id"`
	UserID           string `json:"user_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Telephone        string `json:"telephone"`
	RemainingCredits int    `json:"remaining_credits"`
}

// CalendarClass is a class occupying a calendar cell.
type CalendarClass struct {
	ScheduleID     string            `json:"schedule_id"`
	Title          string            `json:"title"`
	Teacher        model.Teacher     `json:"teacher"`
	StartTime      time.Time         `json:"start_time"`
	EndTime        time.Time         `json:"end_time"`
	MaxCapacity    int               `json:"max_capacity"`
	Booked         int               `json:"booked"`
	RemainingSpots int               `json:"remaining_spots"`
	IsFull         bool              `json:"is_full"`
	Bookings       []CalendarBooking `json:"bookings,omitempty"`
}

// CalendarCell is one hour of one day.
type CalendarCell struct {
	Hour    string          `json:"hour"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Free    bool            `json:"free"`
	Classes []CalendarClass `json:"classes"`
}

type CalendarDay struct {
	Date    string         `json:"date"`
	Weekday string         `json:"weekday"`
	Cells   []CalendarCell `json:"cells"`
}

type Calendar struct {
	From time.Time     `json:"from"`
	To   time.Time     `json:"to"`
	Days []CalendarDay `json:"days"`
}

// CalendarService projects schedules and bookings onto a day by hour grid.
type CalendarService interface {
	Public(ctx context.Context, from, to *time.Time) (*Calendar, error)
	// Admin returns the same grid, free cells included, with booking details per class.
	Admin(ctx context.Context, p model.Principal, from, to *time.Time) (*Calendar, error)
}

type calendarService struct {
	schedules repository.ScheduleRepository
	bookings  repository.BookingRepository
	credits   repository.UserPackageRepository
	settings  StudioSettings
	logger    zerolog.Logger
	now       func() time.Time
}

func NewCalendarService(
	schedules repository.ScheduleRepository,
	bookings repository.BookingRepository,
	credits repository.UserPackageRepository,
	settings StudioSettings,
	logger zerolog.Logger,
) CalendarService {
	return &calendarService{
		schedules: schedules,
		bookings:  bookings,
		credits:   credits,
		settings:  settings,
		logger:    logger.With().Str("service", "CalendarService").Logger(),
		now:       time.Now,
	}
}

func (s *calendarService) Public(ctx context.Context, from, to *time.Time) (*Calendar, error) {
	return s.build(ctx, from, to, false)
}

func (s *calendarService) Admin(ctx context.Context, p model.Principal, from, to *time.Time) (*Calendar, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.build(ctx, from, to, true)
}

func (s *calendarService) build(ctx context.Context, from, to *time.Time, admin bool) (*Calendar, error) {
	start, end, err := s.settings.defaultRange(s.now(), from, to)
	if err != nil {
		return nil, err
	}
	loc := s.settings.location()
	grid := schedule.Grid(start, end, s.settings.OpenHour, s.settings.CloseHour, loc)
	gridStart, gridEnd := schedule.Bounds(grid)

	schedules, err := s.schedules.ListInRange(ctx, gridStart, gridEnd)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(schedules))
	for i, cs := range schedules {
		ids[i] = cs.ID
	}
	bookings, err := s.bookings.ListBySchedules(ctx, ids)
	if err != nil {
		return nil, err
	}
	bySchedule := groupBookings(bookings)

	var remaining map[string]int
	if admin {
		userIDs := make([]string, 0, len(bookings))
		seen := make(map[string]bool, len(bookings))
		for _, b := range bookings {
			if !seen[b.UserID] {
				seen[b.UserID] = true
				userIDs = append(userIDs, b.UserID)
			}
		}
		remaining, err = s.credits.RemainingByUsers(ctx, userIDs, s.now())
		if err != nil {
			return nil, err
		}
	}

	// Cells start on local hour boundaries, so each class only needs to visit
	// the hours it spans.
	byHour := make(map[int64][]CalendarClass, len(schedules))
	for _, cs := range schedules {
		class := toCalendarClass(cs, bySchedule[cs.ID], remaining, admin)
		local := cs.StartTime.In(loc)
		y, m, d := local.Date()
		for h := time.Date(y, m, d, local.Hour(), 0, 0, 0, loc); h.Before(cs.EndTime); h = h.Add(time.Hour) {
			byHour[h.Unix()] = append(byHour[h.Unix()], class)
		}
	}

	cal := &Calendar{From: gridStart, To: gridEnd, Days: make([]CalendarDay, 0, len(grid))}
	for _, day := range grid {
		row := CalendarDay{
			Date:    day.Date.Format(dateLayout),
			Weekday: day.Date.Weekday().String(),
			Cells:   make([]CalendarCell, 0, len(day.Cells)),
		}
		for _, cell := range day.Cells {
			c := CalendarCell{Hour: cell.Start.Format("15:04"), Start: cell.Start, End: cell.End, Classes: []CalendarClass{}}
			for _, class := range byHour[cell.Start.Unix()] {
				if schedule.Overlaps(cell, schedule.Slot{Start: class.StartTime, End: class.EndTime}) {
					c.Classes = append(c.Classes, class)
				}
			}
			c.Free = len(c.Classes) == 0
			row.Cells = append(row.Cells, c)
		}
		cal.Days = append(cal.Days, row)
	}
	return cal, nil
}

func toCalendarClass(cs model.ClassSchedule, bookings []model.BookingDetail, remaining map[string]int, admin bool) CalendarClass {
	spots := cs.MaxCapacity - len(bookings)
	if spots < 0 {
		spots = 0
	}
	c := CalendarClass{
		ScheduleID:     cs.ID,
		Title:          cs.Title,
		StartTime:      cs.StartTime,
		EndTime:        cs.EndTime,
		MaxCapacity:    cs.MaxCapacity,
		Booked:         len(bookings),
		RemainingSpots: spots,
		IsFull:         spots == 0,
	}
	if cs.Teacher != nil {
		c.Teacher = *cs.Teacher
	}
	if admin {
		c.Bookings = make([]CalendarBooking, 0, len(bookings))
		for _, b := range bookings {
			c.Bookings = append(c.Bookings, CalendarBooking{
				BookingID:        b.ID,
				UserID:           b.UserID,
				FirstName:        b.User.FirstName,
				LastName:         b.User.LastName,
				Email:            b.User.Email,
				Telephone:        b.User.Telephone,
				RemainingCredits: remaining[b.UserID],
			})
		}
	}
	return c
}
