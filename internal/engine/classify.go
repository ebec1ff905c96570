package engine

// Decision is the classifier's verdict for a single candidate.
type Decision struct {
	Report   bool
	Category Category // valid only when Report
}

var suppress = Decision{}

func report(c Category) Decision { return Decision{Report: true, Category: c} }

// Classify picks the final category a candidate is reported under, or
// suppresses it.
//
// Novelty and change detection take priority over plain window membership,
// but all three share the window's cutoff: an event far in the future is
// flagged "new"/"updated" rather than getting the urgent window treatment.
// Only a report that goes out under the active window category stamps the
// record (keyed by that category for the window's local day), so a
// new/updated report never suppresses the later plain-window report,
// while a plain-window report suppresses repeats for the rest of the day.
//
// Deliberate asymmetry: new/updated reports bypass the
// already-notified-today check entirely, so a feed that keeps changing an
// event keeps re-notifying.
func Classify(c Candidate, rec *EventRecord, changes ChangeSet, isNew bool, w Window) Decision {
	switch {
	case isNew:
		if c.Start.After(w.Cutoff) {
			// First seen and far enough ahead for a dedicated heads-up.
			return report(CategoryNew)
		}
	case !changes.Empty():
		if c.Start.After(w.Cutoff) {
			return report(CategoryUpdated)
		}
	default:
		if c.Start.After(w.Cutoff) || rec.NotifiedOn(w.Category, w.Day()) {
			return suppress
		}
	}

	rec.stamp(w.Category, w.Day())
	return report(w.Category)
}
