package operation

import (
	"github.com/erfajc97/anko-back/internal/api/v1/dto"
	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/service"
)

type GenerateSchedulesInput struct {
	Body dto.ScheduleGenerateDTO `json:"body"`
}

type SchedulesOutput struct {
	Body []model.ClassSchedule `json:"body"`
}

type ListSchedulesInput struct {
	PageInput
}

type ListSchedulesOutput struct {
	Body model.Page[model.ClassSchedule] `json:"body"`
}

type ScheduleOutput struct {
	Body model.ClassSchedule `json:"body"`
}

type ListAvailabilityOutput struct {
	Body model.Page[service.ScheduleAvailability] `json:"body"`
}

type SchedulesByTeacherOutput struct {
	Body []service.TeacherSchedules `json:"body"`
}

type UpdateScheduleInput struct {
	ID   string                `path:"id" format:"uuid" doc:"Class schedule ID"`
	Body dto.ScheduleUpdateDTO `json:"body"`
}

type DeleteScheduleOutput struct {
	Body service.DeleteScheduleResult `json:"body"`
}

// Calendar

type CalendarOutput struct {
	Body service.Calendar `json:"body"`
}

// Bookings

type CreateBookingInput struct {
	Body dto.BookingCreateDTO `json:"body"`
}

type BookingOutput struct {
	Body model.BookingDetail `json:"body"`
}

type ListBookingsInput struct {
	PageInput
}

type ListBookingsOutput struct {
	Body model.Page[model.BookingDetail] `json:"body"`
}

type SchedulesByRangeInput struct {
	RangeInput
}

type CalendarInput struct {
	RangeInput
}
