package engine

import (
	"testing"
	"time"
)

func TestResolveWindowCategories(t *testing.T) {
	t.Parallel()

	cfg := WindowConfig{AheadHour: 18, TodayHour: 8, WeekAnchor: time.Sunday}
	// 2025-06-08 is a Sunday.
	sunday := time.Date(2025, 6, 8, 18, 30, 0, 0, time.UTC)
	monday := time.Date(2025, 6, 9, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		category Category
		cutoff   time.Time
	}{
		{
			name:     "anchor weekday at ahead hour",
			now:      sunday,
			category: CategoryWeek,
			cutoff:   time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC),
		},
		{
			name:     "other weekday at ahead hour",
			now:      monday,
			category: CategoryTomorrow,
			cutoff:   time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC),
		},
		{
			name:     "today hour",
			now:      time.Date(2025, 6, 9, 8, 5, 0, 0, time.UTC),
			category: CategoryToday,
			cutoff:   time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC),
		},
		{
			name:     "any other hour",
			now:      time.Date(2025, 6, 9, 13, 10, 0, 0, time.UTC),
			category: CategoryHour,
			cutoff:   time.Date(2025, 6, 9, 14, 10, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := ResolveWindow(tt.now, time.UTC, cfg)
			if w.Category != tt.category {
				t.Fatalf("Category = %s, want %s", w.Category, tt.category)
			}
			if !w.Cutoff.Equal(tt.cutoff) {
				t.Fatalf("Cutoff = %v, want %v", w.Cutoff, tt.cutoff)
			}
			wantDay := time.Date(tt.now.Year(), tt.now.Month(), tt.now.Day(), 0, 0, 0, 0, time.UTC)
			if !w.DayStart.Equal(wantDay) {
				t.Fatalf("DayStart = %v, want %v", w.DayStart, wantDay)
			}
		})
	}
}

func TestResolveWindowTieBreak(t *testing.T) {
	t.Parallel()

	// When ahead and today collide on the same hour, ahead wins.
	cfg := WindowConfig{AheadHour: 9, TodayHour: 9, WeekAnchor: time.Sunday}
	now := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC) // Monday
	w := ResolveWindow(now, time.UTC, cfg)
	if w.Category != CategoryTomorrow {
		t.Fatalf("Category = %s, want %s", w.Category, CategoryTomorrow)
	}
}

func TestResolveWindowLocalTime(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	cfg := WindowConfig{AheadHour: 18, TodayHour: 8, WeekAnchor: time.Sunday}

	// 22:30 UTC on Monday is 18:30 Monday in New York.
	now := time.Date(2025, 6, 9, 22, 30, 0, 0, time.UTC)
	w := ResolveWindow(now, loc, cfg)
	if w.Category != CategoryTomorrow {
		t.Fatalf("Category = %s, want %s", w.Category, CategoryTomorrow)
	}
	if got := w.Day(); got != "2025-06-09" {
		t.Fatalf("Day() = %s, want 2025-06-09", got)
	}
	// Cutoff is end of tomorrow in local time.
	want := time.Date(2025, 6, 10, 23, 59, 0, 0, loc)
	if !w.Cutoff.Equal(want) {
		t.Fatalf("Cutoff = %v, want %v", w.Cutoff, want)
	}
}

func TestResolveWindowNilLocation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 9, 13, 0, 0, 0, time.UTC)
	w := ResolveWindow(now, nil, WindowConfig{AheadHour: 18, TodayHour: 8})
	if w.Category != CategoryHour {
		t.Fatalf("Category = %s, want %s", w.Category, CategoryHour)
	}
	if w.DayStart.Location() != time.UTC {
		t.Fatalf("DayStart location = %v, want UTC", w.DayStart.Location())
	}
}
