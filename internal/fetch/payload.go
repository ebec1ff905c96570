package fetch

import (
	"errors"
	"strings"
	"time"

	"herald/internal/engine"
)

// eventPayload is the wire shape of one feed entry. Optional fields are
// pointers so "absent" stays distinguishable from zero; every required
// field is checked explicitly before a candidate is built.
type eventPayload struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Link      string        `json:"link,omitempty"`
	StartsAt  *int64        `json:"start_time"`         // UTC epoch seconds
	EndsAt    *int64        `json:"end_time,omitempty"` // UTC epoch seconds
	Duration  *int64        `json:"duration,omitempty"` // seconds, fallback for end_time
	Venue     *venuePayload `json:"venue,omitempty"`
	RSVPCount int           `json:"rsvp_count,omitempty"`
	HowToFind string        `json:"how_to_find_us,omitempty"`
}

type venuePayload struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	City string `json:"city,omitempty"`
}

var (
	errMissingID      = errors.New("missing id")
	errMissingStart   = errors.New("missing start_time")
	errEndBeforeStart = errors.New("end_time before start_time")
)

// candidate validates the payload and converts it to an engine candidate.
//
// End time resolution: an explicit end_time wins; otherwise start+duration;
// a missing duration means a zero-duration event (end == start).
func (p *eventPayload) candidate() (engine.Candidate, error) {
	if strings.TrimSpace(p.ID) == "" {
		return engine.Candidate{}, errMissingID
	}
	if p.StartsAt == nil {
		return engine.Candidate{}, errMissingStart
	}

	start := time.Unix(*p.StartsAt, 0).UTC()
	end := start
	switch {
	case p.EndsAt != nil:
		end = time.Unix(*p.EndsAt, 0).UTC()
	case p.Duration != nil:
		end = start.Add(time.Duration(*p.Duration) * time.Second)
	}
	if end.Before(start) {
		return engine.Candidate{}, errEndBeforeStart
	}

	c := engine.Candidate{
		ID:        p.ID,
		Start:     start,
		End:       end,
		Title:     p.Name,
		Link:      p.Link,
		Attendees: p.RSVPCount,
		Location:  p.HowToFind,
	}
	if p.Venue != nil {
		c.VenueID = p.Venue.ID
		if loc := venueText(p.Venue); loc != "" {
			c.Location = loc
		}
	}
	return c, nil
}

func venueText(v *venuePayload) string {
	switch {
	case v.Name != "" && v.City != "":
		return v.Name + ", " + v.City
	case v.Name != "":
		return v.Name
	default:
		return v.City
	}
}
