package engine

// Observe diffs a candidate against its stored record (nil if never seen)
// and returns the up-to-date record, the change set, and whether the event
// is new.
//
// The returned record always reflects the candidate's current schedule and
// venue, whether or not the change ends up reported, so future diffs run
// against the latest known state. Notification history is never touched
// here; only Classify stamps it.
func Observe(c Candidate, existing *EventRecord) (*EventRecord, ChangeSet, bool) {
	if existing == nil {
		return &EventRecord{
			ID:      c.ID,
			Start:   c.Start.Unix(),
			End:     c.End.Unix(),
			VenueID: c.VenueID,
		}, nil, true
	}

	changes := diff(c, existing)

	existing.Start = c.Start.Unix()
	existing.End = c.End.Unix()
	existing.VenueID = c.VenueID
	return existing, changes, false
}

func diff(c Candidate, r *EventRecord) ChangeSet {
	var cs ChangeSet

	startChanged := c.Start.Unix() != r.Start
	endChanged := c.End.Unix() != r.End
	switch {
	case startChanged && endChanged:
		// The coarse tag subsumes the fine-grained ones.
		cs = append(cs, ChangeTime)
	case startChanged:
		cs = append(cs, ChangeStart)
	case endChanged:
		cs = append(cs, ChangeEnd)
	}

	// Venue transitions are independent of time and may combine with a
	// time tag.
	switch {
	case r.VenueID == "" && c.VenueID != "":
		cs = append(cs, ChangeVenueAdded)
	case r.VenueID != "" && c.VenueID == "":
		cs = append(cs, ChangeVenueRemoved)
	case r.VenueID != "" && c.VenueID != r.VenueID:
		cs = append(cs, ChangeVenueChanged)
	}

	return cs
}
