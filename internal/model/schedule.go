package model

import "time"

// ClassSchedule is a single bookable class block.
type ClassSchedule struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Teacher *Teacher `db:"-" json:"teacher,omitempty"`
}

// Overlaps applies the half-open interval test against [start, end).
func (s *ClassSchedule) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// ScheduleOccupancy is a schedule together with the bookings held against it.
type ScheduleOccupancy struct {
	Schedule ClassSchedule
	Teacher  Teacher
	Bookings []BookingDetail
}

func (o *ScheduleOccupancy) AvailableSpots() int {
	return o.Schedule.MaxCapacity - len(o.Bookings)
}

func (o *ScheduleOccupancy) IsFull() bool {
	return o.AvailableSpots() <= 0
}

// UtilizationRate is the booked share of capacity, in percent.
func (o *ScheduleOccupancy) UtilizationRate() float64 {
	if o.Schedule.MaxCapacity <= 0 {
		return 0
	}
	return float64(len(o.Bookings)) / float64(o.Schedule.MaxCapacity) * 100
}
