package engine

import "time"

// endOfDayOffset is 23:59 past local midnight. Cutoffs land on the last
// minute of the window's final day rather than the next midnight, so an
// event at 23:30 of that day is still inside the window.
const endOfDayOffset = 23*time.Hour + 59*time.Minute

// WindowConfig maps invocation hours to window categories. The process is
// triggered on a fixed schedule (e.g. hourly); the hour of invocation, not
// stored state, decides which look-ahead window is active.
type WindowConfig struct {
	// AheadHour selects the next-day window, or the week window when the
	// local weekday matches WeekAnchor.
	AheadHour int
	// TodayHour selects the same-day morning window.
	TodayHour int
	// WeekAnchor is the weekday of the weekly look-ahead run.
	WeekAnchor time.Weekday
}

// Window is the resolved context for one run: the active category, the
// instant beyond which events are "too far ahead", and the local midnight
// used for same-day bookkeeping.
type Window struct {
	Category Category
	Cutoff   time.Time
	DayStart time.Time
}

// Day returns the window's local calendar day in DateFormat.
func (w Window) Day() string { return w.DayStart.Format(DateFormat) }

// ResolveWindow picks the single active category for this invocation.
//
// Rule order is the tie-break when configured hours collide: the ahead
// hour wins over the today hour, which wins over the hourly fallback.
func ResolveWindow(now time.Time, loc *time.Location, cfg WindowConfig) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch {
	case local.Hour() == cfg.AheadHour:
		if local.Weekday() == cfg.WeekAnchor {
			return Window{
				Category: CategoryWeek,
				Cutoff:   dayStart.AddDate(0, 0, 7).Add(endOfDayOffset),
				DayStart: dayStart,
			}
		}
		return Window{
			Category: CategoryTomorrow,
			Cutoff:   dayStart.AddDate(0, 0, 1).Add(endOfDayOffset),
			DayStart: dayStart,
		}
	case local.Hour() == cfg.TodayHour:
		return Window{
			Category: CategoryToday,
			Cutoff:   dayStart.Add(endOfDayOffset),
			DayStart: dayStart,
		}
	default:
		return Window{
			Category: CategoryHour,
			Cutoff:   now.Add(time.Hour),
			DayStart: dayStart,
		}
	}
}
