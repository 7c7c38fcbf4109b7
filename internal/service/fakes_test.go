package service

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erfajc97/anko-back/internal/model"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/rs/zerolog"
)

// memStore is an in-memory stand-in for every repository. Transactions run one
// at a time and are rolled back by restoring a snapshot.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	seq  int
	now  time.Time

	users        map[string]model.User
	teachers     map[string]model.Teacher
	packages     map[string]model.ClassPackage
	userPackages map[string]model.UserPackage
	schedules    map[string]model.ClassSchedule
	bookings     map[string]model.Booking
	payments     map[string]model.PaymentTransaction

	failRefund        error
	failCreateBooking error
}

var (
	_ repository.UserRepository         = (*memStore)(nil)
	_ repository.TeacherRepository      = (*memStore)(nil)
	_ repository.ClassPackageRepository = (*memStore)(nil)
	_ repository.UserPackageRepository  = (*memStore)(nil)
	_ repository.ScheduleRepository     = (*memStore)(nil)
	_ repository.BookingRepository      = (*memStore)(nil)
	_ repository.PaymentRepository      = (*memStore)(nil)
	_ repository.ReportRepository       = (*memStore)(nil)
	_ repository.Transactor             = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		now:          time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC),
		users:        map[string]model.User{},
		teachers:     map[string]model.Teacher{},
		packages:     map[string]model.ClassPackage{},
		userPackages: map[string]model.UserPackage{},
		schedules:    map[string]model.ClassSchedule{},
		bookings:     map[string]model.Booking{},
		payments:     map[string]model.PaymentTransaction{},
	}
}

type memTxKey struct{}

type memSnapshot struct {
	seq          int
	users        map[string]model.User
	teachers     map[string]model.Teacher
	packages     map[string]model.ClassPackage
	userPackages map[string]model.UserPackage
	schedules    map[string]model.ClassSchedule
	bookings     map[string]model.Booking
	payments     map[string]model.PaymentTransaction
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		seq:          s.seq,
		users:        maps.Clone(s.users),
		teachers:     maps.Clone(s.teachers),
		packages:     maps.Clone(s.packages),
		userPackages: maps.Clone(s.userPackages),
		schedules:    maps.Clone(s.schedules),
		bookings:     maps.Clone(s.bookings),
		payments:     maps.Clone(s.payments),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.users = snap.users
	s.teachers = snap.teachers
	s.packages = snap.packages
	s.userPackages = snap.userPackages
	s.schedules = snap.schedules
	s.bookings = snap.bookings
	s.payments = snap.payments
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Fixtures

func (s *memStore) addUser(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.nextID("user"), Email: email, FirstName: strings.Split(email, "@")[0], Role: role, IsVerified: true, CreatedAt: s.now}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addTeacher(t *testing.T, first string) model.Teacher {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	tc := model.Teacher{ID: s.nextID("teacher"), FirstName: first}
	s.teachers[tc.ID] = tc
	return tc
}

func (s *memStore) addPackage(t *testing.T, name string, credits int, priceCents int64) model.ClassPackage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := model.ClassPackage{ID: s.nextID("package"), Name: name, ClassCredits: credits, ValidityDays: 30, PriceCents: priceCents, IsActive: true}
	s.packages[cp.ID] = cp
	return cp
}

// addCredits gives the user a package with remaining of total credits, purchased at purchasedAt.
func (s *memStore) addCredits(t *testing.T, userID string, total, remaining int, purchasedAt time.Time) model.UserPackage {
	t.Helper()
	cp := s.addPackage(t, fmt.Sprintf("%d classes", total), total, 1000)
	s.mu.Lock()
	defer s.mu.Unlock()
	up := model.UserPackage{
		ID:               s.nextID("up"),
		UserID:           userID,
		ClassPackageID:   cp.ID,
		TotalCredits:     total,
		RemainingCredits: remaining,
		Source:           model.SourcePurchase,
		PurchasedAt:      purchasedAt,
		ExpiresAt:        purchasedAt.AddDate(0, 0, 30),
	}
	s.userPackages[up.ID] = up
	return up
}

func (s *memStore) addSchedule(t *testing.T, teacherID string, start time.Time, capacity int) model.ClassSchedule {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := model.ClassSchedule{ID: s.nextID("schedule"), TeacherID: teacherID, Title: "Pilates", StartTime: start, EndTime: start.Add(time.Hour), MaxCapacity: capacity}
	s.schedules[cs.ID] = cs
	return cs
}

func (s *memStore) remaining(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, up := range s.userPackages {
		if up.UserID == userID {
			total += up.RemainingCredits
		}
	}
	return total
}

func (s *memStore) userPackage(id string) model.UserPackage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userPackages[id]
}

func (s *memStore) bookingCount(scheduleID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.ClassScheduleID == scheduleID {
			n++
		}
	}
	return n
}

func (s *memStore) scheduleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.schedules)
}

func pageOf[T any](items []T, page, perPage int) ([]T, int) {
	total := len(items)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], total
}

// Users

func (s *memStore) CreateUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	c := *u
	c.ID = s.nextID("user")
	c.CreatedAt = s.now
	c.UpdatedAt = s.now
	s.users[c.ID] = c
	return &c, nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) findUser(match func(model.User) bool) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (s *memStore) GetUserByVerificationToken(_ context.Context, token string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.VerificationToken != nil && *u.VerificationToken == token }), nil
}

func (s *memStore) GetUserByResetToken(_ context.Context, token string) (*model.User, error) {
	return s.findUser(func(u model.User) bool { return u.ResetToken != nil && *u.ResetToken == token }), nil
}

func (s *memStore) UpdateUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return nil, nil
	}
	c := *u
	c.UpdatedAt = s.now
	s.users[c.ID] = c
	return &c, nil
}

func (s *memStore) ListUsers(_ context.Context, page, perPage int) ([]model.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	items, total := pageOf(all, page, perPage)
	return items, total, nil
}

// Teachers

func (s *memStore) CreateTeacher(_ context.Context, t *model.Teacher) (*model.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	c.ID = s.nextID("teacher")
	s.teachers[c.ID] = c
	return &c, nil
}

func (s *memStore) GetTeacherByID(_ context.Context, id string) (*model.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teachers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *memStore) LockTeacher(ctx context.Context, id string) (*model.Teacher, error) {
	return s.GetTeacherByID(ctx, id)
}

func (s *memStore) ListTeachers(context.Context) ([]model.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (s *memStore) UpdateTeacher(_ context.Context, t *model.Teacher) (*model.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[t.ID]; !ok {
		return nil, nil
	}
	s.teachers[t.ID] = *t
	c := *t
	return &c, nil
}

func (s *memStore) DeleteTeacher(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.schedules {
		if cs.TeacherID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.teachers, id)
	return nil
}

func (s *memStore) CountSchedules(_ context.Context, teacherID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cs := range s.schedules {
		if cs.TeacherID == teacherID {
			n++
		}
	}
	return n, nil
}

// Class packages

func (s *memStore) CreatePackage(_ context.Context, p *model.ClassPackage) (*model.ClassPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	c.ID = s.nextID("package")
	s.packages[c.ID] = c
	return &c, nil
}

func (s *memStore) GetPackageByID(_ context.Context, id string) (*model.ClassPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packages[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) ListPackages(_ context.Context, activeOnly bool) ([]model.ClassPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ClassPackage
	for _, p := range s.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) UpdatePackage(_ context.Context, p *model.ClassPackage) (*model.ClassPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ID]; !ok {
		return nil, nil
	}
	s.packages[p.ID] = *p
	c := *p
	return &c, nil
}

func (s *memStore) DeletePackage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.packages, id)
	return nil
}

func (s *memStore) CountPurchases(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, up := range s.userPackages {
		if up.ClassPackageID == id {
			n++
		}
	}
	for _, t := range s.payments {
		if t.PackageID == id {
			n++
		}
	}
	return n, nil
}

// User packages

func (s *memStore) withCatalog(up model.UserPackage) model.UserPackage {
	if cp, ok := s.packages[up.ClassPackageID]; ok {
		up.ClassPackage = &cp
	}
	return up
}

func (s *memStore) CreateUserPackage(_ context.Context, p *model.UserPackage) (*model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ClassPackageID]; !ok {
		return nil, repository.ErrInvalidReference
	}
	c := *p
	c.ID = s.nextID("up")
	c.ClassPackage = nil
	c.User = nil
	s.userPackages[c.ID] = c
	return &c, nil
}

func (s *memStore) GetUserPackageByID(_ context.Context, id string) (*model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.userPackages[id]
	if !ok {
		return nil, nil
	}
	up = s.withCatalog(up)
	return &up, nil
}

// sortedPackages returns the user's packages ordered by purchase date.
func (s *memStore) sortedPackages(userID string) []model.UserPackage {
	var out []model.UserPackage
	for _, up := range s.userPackages {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.Before(out[j].PurchasedAt) })
	return out
}

func (s *memStore) ConsumeOldest(_ context.Context, userID string, now time.Time) (*model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, up := range s.sortedPackages(userID) {
		if up.Usable(now) {
			up.RemainingCredits--
			s.userPackages[up.ID] = up
			return &up, nil
		}
	}
	return nil, nil
}

func (s *memStore) RefundNewest(_ context.Context, userID string, now time.Time) (*model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRefund != nil {
		return nil, s.failRefund
	}
	packages := s.sortedPackages(userID)
	for i := len(packages) - 1; i >= 0; i-- {
		up := packages[i]
		if up.Refundable(now) {
			up.RemainingCredits++
			s.userPackages[up.ID] = up
			return &up, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListUsable(_ context.Context, userID string, now time.Time) ([]model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserPackage
	for _, up := range s.sortedPackages(userID) {
		if up.Usable(now) {
			out = append(out, s.withCatalog(up))
		}
	}
	return out, nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserPackage
	for _, up := range s.sortedPackages(userID) {
		out = append(out, s.withCatalog(up))
	}
	return out, nil
}

func (s *memStore) ListUserPackages(_ context.Context, page, perPage int) ([]model.UserPackage, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]model.UserPackage, 0, len(s.userPackages))
	for _, up := range s.userPackages {
		all = append(all, s.withCatalog(up))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	items, total := pageOf(all, page, perPage)
	return items, total, nil
}

func (s *memStore) RemainingByUsers(_ context.Context, userIDs []string, now time.Time) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		out[id] = 0
		for _, up := range s.userPackages {
			if up.UserID == id && up.Usable(now) {
				out[id] += up.RemainingCredits
			}
		}
	}
	return out, nil
}

func (s *memStore) UpdateUserPackage(_ context.Context, p *model.UserPackage) (*model.UserPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userPackages[p.ID]; !ok {
		return nil, nil
	}
	if p.RemainingCredits < 0 || p.RemainingCredits > p.TotalCredits {
		return nil, repository.ErrCreditsOutOfRange
	}
	c := *p
	c.ClassPackage = nil
	s.userPackages[c.ID] = c
	return &c, nil
}

func (s *memStore) DeleteUserPackage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userPackages, id)
	return nil
}

// Schedules

func (s *memStore) withTeacher(cs model.ClassSchedule) model.ClassSchedule {
	if t, ok := s.teachers[cs.TeacherID]; ok {
		cs.Teacher = &t
	}
	return cs
}

func (s *memStore) CreateSchedules(_ context.Context, schedules []model.ClassSchedule) ([]model.ClassSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClassSchedule, 0, len(schedules))
	for _, cs := range schedules {
		for _, existing := range s.schedules {
			if existing.TeacherID == cs.TeacherID && existing.Overlaps(cs.StartTime, cs.EndTime) {
				return nil, repository.ErrScheduleOverlap
			}
		}
		cs.ID = s.nextID("schedule")
		s.schedules[cs.ID] = cs
		out = append(out, cs)
	}
	return out, nil
}

func (s *memStore) GetScheduleByID(_ context.Context, id string) (*model.ClassSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.schedules[id]
	if !ok {
		return nil, nil
	}
	cs = s.withTeacher(cs)
	return &cs, nil
}

func (s *memStore) LockSchedule(ctx context.Context, id string) (*model.ClassSchedule, error) {
	return s.GetScheduleByID(ctx, id)
}

func (s *memStore) sortedSchedules(keep func(model.ClassSchedule) bool) []model.ClassSchedule {
	var out []model.ClassSchedule
	for _, cs := range s.schedules {
		if keep(cs) {
			out = append(out, s.withTeacher(cs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *memStore) ListOverlapping(_ context.Context, teacherID string, from, to time.Time, excludeID string) ([]model.ClassSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSchedules(func(cs model.ClassSchedule) bool {
		return cs.TeacherID == teacherID && cs.ID != excludeID && cs.Overlaps(from, to)
	}), nil
}

func (s *memStore) ListSchedules(_ context.Context, page, perPage int) ([]model.ClassSchedule, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedSchedules(func(model.ClassSchedule) bool { return true })
	items, total := pageOf(all, page, perPage)
	return items, total, nil
}

func (s *memStore) ListInRange(_ context.Context, from, to time.Time) ([]model.ClassSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSchedules(func(cs model.ClassSchedule) bool {
		return !cs.StartTime.Before(from) && cs.StartTime.Before(to)
	}), nil
}

func (s *memStore) UpdateSchedule(_ context.Context, cs *model.ClassSchedule) (*model.ClassSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[cs.ID]; !ok {
		return nil, nil
	}
	c := *cs
	c.Teacher = nil
	s.schedules[c.ID] = c
	c = s.withTeacher(c)
	return &c, nil
}

func (s *memStore) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schedules, id)
	for bid, b := range s.bookings {
		if b.ClassScheduleID == id {
			delete(s.bookings, bid)
		}
	}
	return nil
}

// Bookings

func (s *memStore) detail(b model.Booking) model.BookingDetail {
	d := model.BookingDetail{Booking: b, User: s.users[b.UserID], Schedule: s.schedules[b.ClassScheduleID]}
	d.Teacher = s.teachers[d.Schedule.TeacherID]
	return d
}

func (s *memStore) CreateBooking(_ context.Context, userID, scheduleID string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateBooking != nil {
		return nil, s.failCreateBooking
	}
	for _, b := range s.bookings {
		if b.UserID == userID && b.ClassScheduleID == scheduleID {
			return nil, repository.ErrBookingExists
		}
	}
	b := model.Booking{ID: s.nextID("booking"), UserID: userID, ClassScheduleID: scheduleID, CreatedAt: s.now}
	s.bookings[b.ID] = b
	return &b, nil
}

func (s *memStore) GetBookingByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *memStore) GetBookingDetail(_ context.Context, id string) (*model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	d := s.detail(b)
	return &d, nil
}

func (s *memStore) BookingExists(_ context.Context, userID, scheduleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.UserID == userID && b.ClassScheduleID == scheduleID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CountBySchedule(_ context.Context, scheduleID string) (int, error) {
	return s.bookingCount(scheduleID), nil
}

func (s *memStore) sortedBookings(keep func(model.Booking) bool) []model.BookingDetail {
	var out []model.BookingDetail
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListBySchedules(_ context.Context, scheduleIDs []string) ([]model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		ids[id] = true
	}
	return s.sortedBookings(func(b model.Booking) bool { return ids[b.ClassScheduleID] }), nil
}

func (s *memStore) ListBookings(_ context.Context, page, perPage int) ([]model.BookingDetail, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, total := pageOf(s.sortedBookings(func(model.Booking) bool { return true }), page, perPage)
	return items, total, nil
}

func (s *memStore) ListBookingsByUser(_ context.Context, userID string, page, perPage int) ([]model.BookingDetail, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, total := pageOf(s.sortedBookings(func(b model.Booking) bool { return b.UserID == userID }), page, perPage)
	return items, total, nil
}

func (s *memStore) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, id)
	return nil
}

func (s *memStore) DeleteBySchedule(_ context.Context, scheduleID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.bookings {
		if b.ClassScheduleID == scheduleID {
			delete(s.bookings, id)
			n++
		}
	}
	return n, nil
}

// Payments

func (s *memStore) CreateTransaction(_ context.Context, t *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.ClientTransactionID == t.ClientTransactionID {
			return nil, repository.ErrTransactionExists
		}
	}
	c := *t
	c.ID = s.nextID("payment")
	c.CreatedAt = s.now
	c.UpdatedAt = s.now
	c.Package = nil
	s.payments[c.ID] = c
	return &c, nil
}

func (s *memStore) GetByClientTransactionID(_ context.Context, clientTxID string) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.payments {
		if t.ClientTransactionID == clientTxID {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *memStore) LockByClientTransactionID(ctx context.Context, clientTxID string) (*model.PaymentTransaction, error) {
	return s.GetByClientTransactionID(ctx, clientTxID)
}

func (s *memStore) UpdateStatus(_ context.Context, id string, status model.PaymentStatus) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	t.Status = status
	t.UpdatedAt = s.now
	s.payments[id] = t
	return &t, nil
}

func (s *memStore) ListPendingByUser(_ context.Context, userID string) ([]model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentTransaction
	for _, t := range s.payments {
		if t.UserID == userID && t.Status == model.PaymentPending {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) FailPendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.payments {
		if t.Status == model.PaymentPending && t.CreatedAt.Before(cutoff) {
			t.Status = model.PaymentFailed
			s.payments[id] = t
			n++
		}
	}
	return n, nil
}

// Reports

func (s *memStore) Sales(_ context.Context, from, to *time.Time) ([]model.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Sale
	for _, up := range s.userPackages {
		if (from != nil && up.PurchasedAt.Before(*from)) || (to != nil && up.PurchasedAt.After(*to)) {
			continue
		}
		cp := s.packages[up.ClassPackageID]
		out = append(out, model.Sale{
			UserPackageID: up.ID,
			UserID:        up.UserID,
			UserEmail:     s.users[up.UserID].Email,
			PackageID:     cp.ID,
			PackageName:   cp.Name,
			PriceCents:    cp.PriceCents,
			PurchasedAt:   up.PurchasedAt,
		})
	}
	return out, nil
}

func (s *memStore) ScheduleUsage(context.Context) ([]repository.ScheduleUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ScheduleUsage
	for _, cs := range s.sortedSchedules(func(model.ClassSchedule) bool { return true }) {
		booked := 0
		for _, b := range s.bookings {
			if b.ClassScheduleID == cs.ID {
				booked++
			}
		}
		out = append(out, repository.ScheduleUsage{ScheduleID: cs.ID, Title: cs.Title, StartTime: cs.StartTime, MaxCapacity: cs.MaxCapacity, Booked: booked})
	}
	return out, nil
}

func (s *memStore) UserCounts(_ context.Context, now time.Time) (repository.UserCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c repository.UserCounts
	withPackages := map[string]bool{}
	for _, up := range s.userPackages {
		withPackages[up.UserID] = true
	}
	for _, u := range s.users {
		c.Total++
		if u.IsVerified {
			c.Verified++
		}
		if withPackages[u.ID] {
			c.WithPackages++
		}
	}
	for _, b := range s.bookings {
		if s.schedules[b.ClassScheduleID].StartTime.After(now) {
			c.ActiveBookings++
		}
	}
	return c, nil
}

// recordingNotifier captures every email instead of sending it.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

type sentEmail struct {
	To       string
	Template string
	Data     map[string]any
}

func (n *recordingNotifier) Send(_ context.Context, to, _, template string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{To: to, Template: template, Data: data})
	return nil
}

func (n *recordingNotifier) templates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, e := range n.sent {
		out[i] = e.Template
	}
	return out
}

// fixture wires every service over one memStore.
type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	settings StudioSettings

	ledger    CreditLedger
	bookings  BookingService
	schedules ScheduleService
	calendar  CalendarService
	payments  PaymentService
	reports   ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	notifier := &recordingNotifier{}
	settings := StudioSettings{Location: time.UTC, Days: 7, OpenHour: 7, CloseHour: 21}
	log := zerolog.Nop()
	clock := func() time.Time { return store.now }

	ledger := NewCreditLedger(store, store, store, store, notifier, log)
	ledger.(*creditLedger).now = clock

	schedules := NewScheduleService(store, store, store, store, ledger, notifier, settings, log)
	schedules.(*scheduleService).now = clock

	calendar := NewCalendarService(store, store, store, settings, log)
	calendar.(*calendarService).now = clock

	payments := NewPaymentService(store, store, store, store, ledger, notifier, log)
	payments.(*paymentService).now = clock

	reports := NewReportService(store, settings, log)
	reports.(*reportService).now = clock

	return &fixture{
		store:     store,
		notifier:  notifier,
		settings:  settings,
		ledger:    ledger,
		bookings:  NewBookingService(store, store, store, store, ledger, notifier, settings, log),
		schedules: schedules,
		calendar:  calendar,
		payments:  payments,
		reports:   reports,
	}
}

func admin(u model.User) model.Principal {
	return model.Principal{ID: u.ID, Role: model.RoleAdmin}
}

func principal(u model.User) model.Principal {
	return model.Principal{ID: u.ID, Role: u.Role}
}
