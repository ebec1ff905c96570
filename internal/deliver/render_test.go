package deliver

import (
	"strings"
	"testing"
	"time"

	"herald/internal/engine"
)

func ts(h, m int) time.Time {
	return time.Date(2025, 6, 10, h, m, 0, 0, time.UTC)
}

func TestRenderHTMLEmpty(t *testing.T) {
	t.Parallel()
	if got := renderHTML(engine.Buckets{}, time.UTC); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	buckets := engine.Buckets{
		engine.CategoryToday: {
			{Event: engine.Candidate{
				ID:        "e1",
				Title:     "Go Meetup <June>",
				Link:      "https://example.com/e1",
				Location:  "Hub, Berlin",
				Attendees: 12,
				Start:     ts(18, 0),
				End:       ts(20, 0),
			}},
		},
		engine.CategoryUpdated: {
			{
				Event:   engine.Candidate{ID: "e2", Title: "Workshop", Start: ts(9, 0), End: ts(9, 0)},
				Changes: engine.ChangeSet{engine.ChangeTime, engine.ChangeVenueChanged},
			},
		},
	}

	got := renderHTML(buckets, time.UTC)

	for _, want := range []string{
		"<b>Today</b>",
		"<b>Schedule changed</b>",
		`<a href="https://example.com/e1">Go Meetup &lt;June&gt;</a>`,
		"Tue Jun 10, 18:00–20:00",
		"@ Hub, Berlin",
		"(12 going)",
		"<i>time changed, venue changed</i>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	// Look-ahead order: the farther-out section comes first.
	if strings.Index(got, "<b>Today</b>") > strings.Index(got, "<b>Schedule changed</b>") {
		t.Errorf("sections out of order:\n%s", got)
	}
}

func TestRenderPlain(t *testing.T) {
	t.Parallel()

	buckets := engine.Buckets{
		engine.CategoryWeek: {
			{Event: engine.Candidate{
				ID:       "e3",
				Title:    "Hack Night",
				Link:     "https://example.com/e3",
				Location: "Loft",
				Start:    ts(19, 0),
				End:      ts(19, 0),
			}},
		},
	}

	got := renderPlain(buckets, time.UTC)

	for _, want := range []string{
		"Coming up this week",
		"* Hack Night — Tue Jun 10, 19:00 @ Loft",
		"https://example.com/e3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<") {
		t.Errorf("plain output contains markup:\n%s", got)
	}
}

func TestEventTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"instant", ts(18, 0), ts(18, 0), "Tue Jun 10, 18:00"},
		{"same day", ts(18, 0), ts(20, 30), "Tue Jun 10, 18:00–20:30"},
		{"cross day", ts(22, 0), ts(22, 0).Add(4 * time.Hour), "Tue Jun 10, 22:00 – Wed Jun 11, 02:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engine.Candidate{Start: tt.start, End: tt.end}
			if got := eventTime(e, time.UTC); got != tt.want {
				t.Errorf("eventTime() = %q, want %q", got, tt.want)
			}
		})
	}
}
