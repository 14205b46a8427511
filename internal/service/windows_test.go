package service

import (
	"testing"
	"time"

	"scoreledger/internal/models"
	"scoreledger/internal/testhelper"
)

func TestWindowStarts(t *testing.T) {
	w := NewWindows(time.UTC, testhelper.FixedClock(wednesday))

	cases := map[models.Period]time.Time{
		models.PeriodToday:     time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		models.PeriodThisWeek:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		models.PeriodThisMonth: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for p, want := range cases {
		got := w.Start(p)
		if got == nil || !got.Equal(want) {
			t.Errorf("%s: expected %v, got %v", p, want, got)
		}
	}
	if got := w.Start(models.PeriodAllTime); got != nil {
		t.Errorf("all_time should have no start, got %v", got)
	}
}

func TestWeekStartsOnMonday(t *testing.T) {
	w := NewWindows(time.UTC, nil)
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, now := range []time.Time{
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),   // Monday midnight
		time.Date(2025, 3, 16, 23, 59, 0, 0, time.UTC), // Sunday night
	} {
		got := w.StartAt(models.PeriodThisWeek, now)
		if !got.Equal(monday) {
			t.Errorf("now=%v: expected %v, got %v", now, monday, got)
		}
	}

	// Sunday 2025-03-02 still belongs to the week that started in February.
	got := w.StartAt(models.PeriodThisWeek, time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC))
	if want := time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWindowsUseConfiguredZone(t *testing.T) {
	plus5 := time.FixedZone("UTC+5", 5*3600)
	// 21:00 UTC on the 12th is already 02:00 on the 13th in UTC+5.
	w := NewWindows(plus5, testhelper.FixedClock(time.Date(2025, 3, 12, 21, 0, 0, 0, time.UTC)))

	got := w.Start(models.PeriodToday)
	want := time.Date(2025, 3, 12, 19, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("window starts are returned in UTC, got %v", got.Location())
	}
}

func TestPeriodsContaining(t *testing.T) {
	w := NewWindows(time.UTC, testhelper.FixedClock(wednesday))

	tests := []struct {
		name string
		at   time.Time
		want []models.Period
	}{
		{"today", wednesday.Add(-time.Hour), models.Periods},
		{"earlier this week", time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			[]models.Period{models.PeriodThisWeek, models.PeriodThisMonth, models.PeriodAllTime}},
		{"earlier this month", time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC),
			[]models.Period{models.PeriodThisMonth, models.PeriodAllTime}},
		{"last month", time.Date(2025, 2, 27, 8, 0, 0, 0, time.UTC),
			[]models.Period{models.PeriodAllTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.PeriodsContaining(tt.at)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
