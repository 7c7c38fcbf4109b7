package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
)

func generateInput(teacherID, from, to, start, end string) GenerateScheduleInput {
	return GenerateScheduleInput{
		TeacherID:   teacherID,
		Title:       "Reformer",
		StartDate:   from,
		EndDate:     to,
		StartHour:   start,
		EndHour:     end,
		MaxCapacity: 6,
	}
}

func TestGenerateCreatesHourlyBlocks(t *testing.T) {
	f := newFixture(t)
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	teacher := f.store.addTeacher(t, "Lucia")

	created, err := f.schedules.Generate(context.Background(), admin(staff), generateInput(teacher.ID, "2030-03-10", "2030-03-11", "09:00", "12:00"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("expected 6 classes, got %d", len(created))
	}
	first := created[0]
	want := time.Date(2030, 3, 10, 9, 0, 0, 0, time.UTC)
	if !first.StartTime.Equal(want) || !first.EndTime.Equal(want.Add(time.Hour)) {
		t.Errorf("first block %v-%v", first.StartTime, first.EndTime)
	}
	if first.Teacher == nil || first.Teacher.ID != teacher.ID || first.MaxCapacity != 6 {
		t.Errorf("unexpected first class: %+v", first)
	}
}

func TestGenerateRejectsOverlapAtomically(t *testing.T) {
	f := newFixture(t)
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	teacher := f.store.addTeacher(t, "Lucia")
	existing := f.store.addSchedule(t, teacher.ID, time.Date(2030, 3, 10, 10, 0, 0, 0, time.UTC), 5)

	_, err := f.schedules.Generate(context.Background(), admin(staff), generateInput(teacher.ID, "2030-03-10", "2030-03-11", "09:00", "12:00"))
	var conflictErr *ScheduleConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ScheduleConflictError, got %v", err)
	}
	if KindOf(err) != KindConflict {
		t.Errorf("expected conflict kind, got %s", KindOf(err))
	}
	if len(conflictErr.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", conflictErr.Conflicts)
	}
	c := conflictErr.Conflicts[0]
	if c.ConflictingScheduleID != existing.ID || c.Date != "2030-03-10" || c.Start.Hour() != 10 {
		t.Errorf("unexpected conflict: %+v", c)
	}
	if got := f.store.scheduleCount(); got != 1 {
		t.Errorf("expected nothing created, have %d schedules", got)
	}
}

func TestGenerateOtherTeacherDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	lucia := f.store.addTeacher(t, "Lucia")
	marta := f.store.addTeacher(t, "Marta")
	f.store.addSchedule(t, marta.ID, time.Date(2030, 3, 10, 10, 0, 0, 0, time.UTC), 5)

	created, err := f.schedules.Generate(context.Background(), admin(staff), generateInput(lucia.ID, "2030-03-10", "2030-03-10", "09:00", "12:00"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 3 {
		t.Errorf("expected 3 classes, got %d", len(created))
	}
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	teacher := f.store.addTeacher(t, "Lucia")

	tests := []struct {
		name string
		p    model.Principal
		in   GenerateScheduleInput
		want error
	}{
		{"not admin", principal(user), generateInput(teacher.ID, "2030-03-10", "2030-03-10", "09:00", "10:00"), ErrForbidden},
		{"end before start", admin(staff), generateInput(teacher.ID, "2030-03-11", "2030-03-10", "09:00", "10:00"), ErrInvalidRange},
		{"bad date", admin(staff), generateInput(teacher.ID, "10/03/2030", "2030-03-10", "09:00", "10:00"), ErrInvalidInput},
		{"bad hour", admin(staff), generateInput(teacher.ID, "2030-03-10", "2030-03-10", "9am", "10:00"), ErrInvalidInput},
		{"unknown teacher", admin(staff), generateInput("ghost", "2030-03-10", "2030-03-10", "09:00", "10:00"), ErrTeacherNotFound},
		{"range too long", admin(staff), generateInput(teacher.ID, "2030-01-01", "2031-06-01", "09:00", "10:00"), ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.schedules.Generate(ctx, tt.p, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	noCapacity := generateInput(teacher.ID, "2030-03-10", "2030-03-10", "09:00", "10:00")
	noCapacity.MaxCapacity = 0
	if _, err := f.schedules.Generate(ctx, admin(staff), noCapacity); KindOf(err) != KindBadRequest {
		t.Errorf("expected bad request for zero capacity, got %v", err)
	}
}

func TestGenerateEmptyWindow(t *testing.T) {
	f := newFixture(t)
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	teacher := f.store.addTeacher(t, "Lucia")

	created, err := f.schedules.Generate(context.Background(), admin(staff), generateInput(teacher.ID, "2030-03-10", "2030-03-12", "12:00", "09:00"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 0 || f.store.scheduleCount() != 0 {
		t.Errorf("expected no classes, got %d", len(created))
	}

	_, err = f.schedules.Generate(context.Background(), admin(staff), generateInput("missing", "2030-03-10", "2030-03-12", "12:00", "09:00"))
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("expected ErrTeacherNotFound for an empty window with an unknown teacher, got %v", err)
	}
}

func TestDeleteScheduleRefundsBookedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	ana := f.store.addUser(t, "ana@example.com", model.RoleUser)
	bo := f.store.addUser(t, "bo@example.com", model.RoleUser)
	teacher := f.store.addTeacher(t, "Lucia")
	cs := f.store.addSchedule(t, teacher.ID, f.store.now.Add(24*time.Hour), 5)
	f.store.addCredits(t, ana.ID, 4, 4, f.store.now.AddDate(0, 0, -1))
	f.store.addCredits(t, bo.ID, 4, 4, f.store.now.AddDate(0, 0, -1))

	for _, u := range []model.User{ana, bo} {
		if _, err := f.bookings.Create(ctx, principal(u), cs.ID, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	res, err := f.schedules.Delete(ctx, admin(staff), cs.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.DeletedBookings != 2 || res.RefundedCredits != 2 || res.SkippedRefunds != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	for _, u := range []model.User{ana, bo} {
		if got := f.store.remaining(u.ID); got != 4 {
			t.Errorf("%s: expected 4 credits after refund, got %d", u.Email, got)
		}
	}
	if f.store.scheduleCount() != 0 {
		t.Error("schedule was not deleted")
	}
	if _, err := f.schedules.Get(ctx, cs.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestDeleteScheduleSkipsUnrefundableUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	ana := f.store.addUser(t, "ana@example.com", model.RoleUser)
	teacher := f.store.addTeacher(t, "Lucia")
	cs := f.store.addSchedule(t, teacher.ID, f.store.now.Add(24*time.Hour), 5)
	f.store.addCredits(t, ana.ID, 4, 4, f.store.now.AddDate(0, 0, -29))

	if _, err := f.bookings.Create(ctx, principal(ana), cs.ID, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.store.now = f.store.now.AddDate(0, 0, 2)

	res, err := f.schedules.Delete(ctx, admin(staff), cs.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.DeletedBookings != 1 || res.RefundedCredits != 0 || res.SkippedRefunds != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDeleteScheduleRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(t, "ana@example.com", model.RoleUser)
	teacher := f.store.addTeacher(t, "Lucia")
	cs := f.store.addSchedule(t, teacher.ID, f.store.now.Add(24*time.Hour), 5)

	if _, err := f.schedules.Delete(context.Background(), principal(user), cs.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if f.store.scheduleCount() != 1 {
		t.Error("schedule must survive a forbidden delete")
	}
}

func TestUpdateSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.store.addUser(t, "admin@example.com", model.RoleAdmin)
	ana := f.store.addUser(t, "ana@example.com", model.RoleUser)
	bo := f.store.addUser(t, "bo@example.com", model.RoleUser)
	lucia := f.store.addTeacher(t, "Lucia")
	marta := f.store.addTeacher(t, "Marta")
	start := f.store.now.Add(24 * time.Hour)
	cs := f.store.addSchedule(t, lucia.ID, start, 5)
	f.store.addSchedule(t, marta.ID, start.Add(30*time.Minute), 5)
	for _, u := range []model.User{ana, bo} {
		f.store.addCredits(t, u.ID, 4, 4, f.store.now.AddDate(0, 0, -1))
		if _, err := f.bookings.Create(ctx, principal(u), cs.ID, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	one := 1
	if _, err := f.schedules.Update(ctx, admin(staff), cs.ID, UpdateScheduleInput{MaxCapacity: &one}); !errors.Is(err, ErrCapacityBelowBookings) {
		t.Errorf("expected ErrCapacityBelowBookings, got %v", err)
	}

	var conflictErr *ScheduleConflictError
	if _, err := f.schedules.Update(ctx, admin(staff), cs.ID, UpdateScheduleInput{TeacherID: &marta.ID}); !errors.As(err, &conflictErr) {
		t.Errorf("expected ScheduleConflictError, got %v", err)
	}

	title := "Mat"
	two := 2
	updated, err := f.schedules.Update(ctx, admin(staff), cs.ID, UpdateScheduleInput{Title: &title, MaxCapacity: &two})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Mat" || updated.MaxCapacity != 2 || updated.TeacherID != lucia.ID {
		t.Errorf("unexpected schedule: %+v", updated)
	}
}

func TestListWithAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.store.addUser(t, "ana@example.com", model.RoleUser)
	teacher := f.store.addTeacher(t, "Lucia")
	full := f.store.addSchedule(t, teacher.ID, f.store.now.Add(24*time.Hour), 1)
	f.store.addSchedule(t, teacher.ID, f.store.now.Add(26*time.Hour), 4)
	f.store.addCredits(t, ana.ID, 4, 4, f.store.now.AddDate(0, 0, -1))
	if _, err := f.bookings.Create(ctx, principal(ana), full.ID, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := f.schedules.ListWithAvailability(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListWithAvailability: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(page.Items))
	}
	first, second := page.Items[0], page.Items[1]
	if !first.IsFull || first.AvailableSpots != 0 || first.UtilizationRate != 100 || len(first.Bookings) != 1 {
		t.Errorf("unexpected full class: %+v", first)
	}
	if second.IsFull || second.AvailableSpots != 4 || second.DurationMinutes != 60 || second.Bookings == nil {
		t.Errorf("unexpected open class: %+v", second)
	}
}

func TestListByTeacherRange(t *testing.T) {
	f := newFixture(t)
	lucia := f.store.addTeacher(t, "Lucia")
	marta := f.store.addTeacher(t, "Marta")
	f.store.addSchedule(t, marta.ID, f.store.now.Add(2*time.Hour), 5)
	f.store.addSchedule(t, lucia.ID, f.store.now.Add(3*time.Hour), 5)
	f.store.addSchedule(t, lucia.ID, f.store.now.Add(27*time.Hour), 5)
	// outside the default week
	f.store.addSchedule(t, lucia.ID, f.store.now.AddDate(0, 0, 30), 5)

	groups, err := f.schedules.ListByTeacherRange(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ListByTeacherRange: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 teachers, got %d", len(groups))
	}
	if groups[0].Teacher.ID != lucia.ID || len(groups[0].Schedules) != 2 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].Teacher.ID != marta.ID || len(groups[1].Schedules) != 1 {
		t.Errorf("unexpected second group: %+v", groups[1])
	}

	from := f.store.now
	to := f.store.now.Add(-time.Hour)
	if _, err := f.schedules.ListByTeacherRange(context.Background(), &from, &to); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	to = from.AddDate(1, 0, 0)
	if _, err := f.schedules.ListByTeacherRange(context.Background(), &from, &to); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for a year-long range, got %v", err)
	}
}
