package dto

// ScheduleGenerateDTO asks for one-hour classes every day between two dates.
type ScheduleGenerateDTO struct {
	TeacherID   string `json:"teacher_id" validate:"required,uuid"`
	Title       string `json:"title,omitempty" validate:"max=120"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02" doc:"First day, YYYY-MM-DD"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02" doc:"Last day inclusive, YYYY-MM-DD"`
	StartHour   string `json:"start_hour" validate:"required" doc:"Daily window start, HH:mm"`
	EndHour     string `json:"end_hour" validate:"required" doc:"Daily window end, HH:mm"`
	MaxCapacity int    `json:"max_capacity" validate:"gt=0" minimum:"1"`
}

type ScheduleUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=120"`
	MaxCapacity *int    `json:"max_capacity,omitempty" validate:"omitempty,gt=0"`
	TeacherID   *string `json:"teacher_id,omitempty" validate:"omitempty,uuid"`
}

type BookingCreateDTO struct {
	ClassScheduleID string `json:"class_schedule_id" validate:"required,uuid"`
	UserID          string `json:"user_id,omitempty" validate:"omitempty,uuid" doc:"Admins may book on behalf of another user"`
}
