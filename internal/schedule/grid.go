package schedule

import "time"

// Day is one row of the calendar grid.
type Day struct {
	Date  time.Time
	Cells []Slot
}

// Grid lays out hourly cells between openHour and closeHour for each calendar day in [from, to).
// If to falls on the same date as from, the single day of from is returned.
func Grid(from, to time.Time, openHour, closeHour int, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	first := civilDate(from, loc)
	last := civilDate(to, loc)
	if !last.After(first) {
		last = first.AddDate(0, 0, 1)
	}

	var days []Day
	for day := first; day.Before(last); day = day.AddDate(0, 0, 1) {
		y, m, d := day.Date()
		row := Day{Date: day}
		for h := openHour; h < closeHour; h++ {
			start := time.Date(y, m, d, h, 0, 0, 0, loc)
			row.Cells = append(row.Cells, Slot{Start: start, End: start.Add(time.Hour)})
		}
		days = append(days, row)
	}
	return days
}

// Bounds returns the overall [start, end) covered by a grid.
func Bounds(days []Day) (time.Time, time.Time) {
	if len(days) == 0 {
		return time.Time{}, time.Time{}
	}
	return days[0].Date, days[len(days)-1].Date.AddDate(0, 0, 1)
}
