package schedule

import (
	"errors"
	"time"
)

// BlockLength is the duration of every generated class block.
const BlockLength = time.Hour

var ErrInvalidRange = errors.New("end date is before start date")

// Request describes a set of days sharing one daily window.
// Only the calendar dates of StartDate and EndDate are used; both are inclusive.
type Request struct {
	StartDate time.Time
	EndDate   time.Time
	Window    Window
	Location  *time.Location
}

// Slot is a half-open [Start, End) interval.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Slots expands the request into contiguous one-hour blocks, ordered by start.
// Each day gets the full window; blocks start at Window.Start and a trailing
// partial hour is dropped. A window with End <= Start yields no blocks.
func Slots(req Request) ([]Slot, error) {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	first := civilDate(req.StartDate, loc)
	last := civilDate(req.EndDate, loc)
	if last.Before(first) {
		return nil, ErrInvalidRange
	}

	perDay := req.Window.Blocks()
	if perDay == 0 {
		return []Slot{}, nil
	}

	var slots []Slot
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		y, m, d := day.Date()
		for i := 0; i < perDay; i++ {
			start := time.Date(y, m, d, req.Window.Start.Hour+i, req.Window.Start.Minute, 0, 0, loc)
			slots = append(slots, Slot{Start: start, End: start.Add(BlockLength)})
		}
	}
	return slots, nil
}

// Days counts the calendar days covered by the request.
func (r Request) Days() int {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	first := civilDate(r.StartDate, loc)
	last := civilDate(r.EndDate, loc)
	if last.Before(first) {
		return 0
	}
	n := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Overlaps is the half-open interval test: a.Start < b.End && b.Start < a.End.
func Overlaps(a, b Slot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Existing is an already persisted block that candidates are checked against.
type Existing struct {
	ID string
	Slot
}

// Conflict pairs a candidate block with the existing block it overlaps.
type Conflict struct {
	Candidate  Slot
	ScheduleID string
	Existing   Slot
}

// Conflicts returns every candidate that overlaps an existing block, in candidate order.
// A candidate that overlaps several existing blocks is reported once per overlap.
func Conflicts(candidates []Slot, existing []Existing) []Conflict {
	var out []Conflict
	for _, c := range candidates {
		for _, e := range existing {
			if Overlaps(c, e.Slot) {
				out = append(out, Conflict{Candidate: c, ScheduleID: e.ID, Existing: e.Slot})
			}
		}
	}
	return out
}

// Span returns the smallest interval covering every slot.
func Span(slots []Slot) (Slot, bool) {
	if len(slots) == 0 {
		return Slot{}, false
	}
	span := slots[0]
	for _, s := range slots[1:] {
		if s.Start.Before(span.Start) {
			span.Start = s.Start
		}
		if s.End.After(span.End) {
			span.End = s.End
		}
	}
	return span, true
}
