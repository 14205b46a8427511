package service

import (
	"time"

	"scoreledger/internal/models"
)

// Windows computes leaderboard window boundaries in a fixed time zone
type Windows struct {
	loc *time.Location
	now func() time.Time
}

// NewWindows creates a window calculator. A nil clock means time.Now.
func NewWindows(loc *time.Location, now func() time.Time) *Windows {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Windows{loc: loc, now: now}
}

// Now returns the current time in the window zone
func (w *Windows) Now() time.Time {
	return w.now().In(w.loc)
}

// Start returns the current start of period in UTC, or nil for all_time
func (w *Windows) Start(period models.Period) *time.Time {
	return w.StartAt(period, w.Now())
}

// StartAt returns the start of the period containing now
func (w *Windows) StartAt(period models.Period, now time.Time) *time.Time {
	now = now.In(w.loc)
	y, m, d := now.Date()

	var start time.Time
	switch period {
	case models.PeriodToday:
		start = time.Date(y, m, d, 0, 0, 0, 0, w.loc)
	case models.PeriodThisWeek:
		// Weeks start on Monday.
		back := (int(now.Weekday()) + 6) % 7
		start = time.Date(y, m, d-back, 0, 0, 0, 0, w.loc)
	case models.PeriodThisMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, w.loc)
	default:
		return nil
	}
	start = start.UTC()
	return &start
}

// PeriodsContaining lists the periods whose current window includes t
func (w *Windows) PeriodsContaining(t time.Time) []models.Period {
	now := w.Now()
	out := make([]models.Period, 0, len(models.Periods))
	for _, p := range models.Periods {
		start := w.StartAt(p, now)
		if start == nil || !t.Before(*start) {
			out = append(out, p)
		}
	}
	return out
}
