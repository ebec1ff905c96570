package engine

import "time"

// Category is a notification bucket. The four window categories are
// mutually exclusive per run; "new" and "updated" are overrides for events
// past the active window's cutoff.
type Category string

const (
	CategoryWeek     Category = "week"
	CategoryTomorrow Category = "tomorrow"
	CategoryToday    Category = "today"
	CategoryHour     Category = "hour"
	CategoryNew      Category = "new"
	CategoryUpdated  Category = "updated"
)

// Categories returns the closed enumeration in look-ahead order.
// The slice is freshly allocated; callers may not mutate shared state
// through it.
func Categories() []Category {
	return []Category{
		CategoryWeek,
		CategoryTomorrow,
		CategoryToday,
		CategoryHour,
		CategoryNew,
		CategoryUpdated,
	}
}

// Change is a single human-readable difference between a candidate and its
// stored record.
type Change string

const (
	ChangeTime         Change = "time changed"
	ChangeStart        Change = "start time changed"
	ChangeEnd          Change = "end time changed"
	ChangeVenueAdded   Change = "venue added"
	ChangeVenueRemoved Change = "venue removed"
	ChangeVenueChanged Change = "venue changed"
)

// ChangeSet is an ordered set of detected changes. Empty means "no material
// change".
type ChangeSet []Change

func (cs ChangeSet) Empty() bool { return len(cs) == 0 }

func (cs ChangeSet) Has(c Change) bool {
	for _, got := range cs {
		if got == c {
			return true
		}
	}
	return false
}

// DateFormat is the calendar-day format used for notified stamps.
// Dates are local to the event's owning group.
const DateFormat = "2006-01-02"

// EventRecord is the persisted per-event state: last observed schedule and
// venue, plus the per-category notification history.
//
// Times are UTC epoch seconds. VenueID == "" means "no venue / online only".
// Notified maps category -> last local calendar day (DateFormat) a
// notification of that category went out; a missing key means never.
type EventRecord struct {
	ID       string              `json:"id"`
	Start    int64               `json:"start"`
	End      int64               `json:"end"`
	VenueID  string              `json:"venue,omitempty"`
	Notified map[Category]string `json:"notified,omitempty"`
}

// NotifiedOn reports whether a notification of category c already went out
// on the given local day.
func (r *EventRecord) NotifiedOn(c Category, day string) bool {
	if r == nil || r.Notified == nil {
		return false
	}
	return r.Notified[c] == day
}

func (r *EventRecord) stamp(c Category, day string) {
	if r.Notified == nil {
		r.Notified = make(map[Category]string, 1)
	}
	r.Notified[c] = day
}

// Candidate is a freshly fetched event considered for notification this
// run. Display fields pass through the engine untouched.
type Candidate struct {
	ID      string
	Start   time.Time
	End     time.Time
	VenueID string // "" = no venue

	// Display metadata, opaque to the engine.
	Title     string
	Link      string
	Location  string
	Attendees int
}
