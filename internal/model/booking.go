package model

import "time"

// Booking reserves one seat of a class schedule for a user.
type Booking struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	ClassScheduleID string    `db:"class_schedule_id" json:"class_schedule_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BookingDetail is a booking joined with its user and schedule for read views.
type BookingDetail struct {
	Booking
	User     User          `json:"user"`
	Schedule ClassSchedule `json:"schedule"`
	Teacher  Teacher       `json:"teacher"`
}
