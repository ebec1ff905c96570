package engine

import "time"

// GroupInput is one group's worth of work for a run: its candidates and
// its own time zone for local-day bookkeeping.
type GroupInput struct {
	Name       string
	Location   *time.Location
	Candidates []Candidate
}

// Item is one reportable event together with what changed since the last
// observation.
type Item struct {
	Event   Candidate
	Changes ChangeSet
}

// Buckets groups a run's reportable items by final category.
type Buckets map[Category][]Item

// RunResult is the hand-off to delivery: per group, per category, the
// ordered items to render. Groups with nothing to report have no entry.
type RunResult map[string]Buckets

// Run performs one classification pass over all groups.
//
// Records is the full persisted record set; Run mutates it in place
// (schedule/venue overwrites and notified stamps) and the caller owns
// persisting it afterwards. Candidates are processed in supplier order;
// no cross-event ordering is guaranteed or needed.
func Run(now time.Time, cfg WindowConfig, groups []GroupInput, records map[string]*EventRecord) RunResult {
	out := make(RunResult)
	for _, g := range groups {
		w := ResolveWindow(now, g.Location, cfg)
		var buckets Buckets
		for _, c := range g.Candidates {
			rec, changes, isNew := Observe(c, records[c.ID])
			records[c.ID] = rec

			d := Classify(c, rec, changes, isNew, w)
			if !d.Report {
				continue
			}
			if buckets == nil {
				buckets = make(Buckets)
			}
			buckets[d.Category] = append(buckets[d.Category], Item{Event: c, Changes: changes})
		}
		if buckets != nil {
			out[g.Name] = buckets
		}
	}
	return out
}
