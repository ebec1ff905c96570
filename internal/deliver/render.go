package deliver

import (
	"fmt"
	"html"
	"strings"
	"time"

	"herald/internal/engine"
)

// headings are the user-facing section titles, in look-ahead order.
var headings = map[engine.Category]string{
	engine.CategoryWeek:     "Coming up this week",
	engine.CategoryTomorrow: "Tomorrow",
	engine.CategoryToday:    "Today",
	engine.CategoryHour:     "Starting soon",
	engine.CategoryNew:      "Newly announced",
	engine.CategoryUpdated:  "Schedule changed",
}

// renderHTML builds one Telegram message (HTML parse mode) for a group's
// buckets. Returns "" when there is nothing to say.
func renderHTML(buckets engine.Buckets, loc *time.Location) string {
	var b strings.Builder
	for _, cat := range engine.Categories() {
		items := buckets[cat]
		if len(items) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(headings[cat]))
		for _, it := range items {
			writeItemHTML(&b, it, loc)
		}
	}
	return b.String()
}

func writeItemHTML(b *strings.Builder, it engine.Item, loc *time.Location) {
	e := it.Event
	title := html.EscapeString(e.Title)
	if e.Link != "" {
		title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(e.Link), title)
	}
	fmt.Fprintf(b, "• %s — %s", title, html.EscapeString(eventTime(e, loc)))
	if e.Location != "" {
		fmt.Fprintf(b, " @ %s", html.EscapeString(e.Location))
	}
	if e.Attendees > 0 {
		fmt.Fprintf(b, " (%d going)", e.Attendees)
	}
	if !it.Changes.Empty() {
		fmt.Fprintf(b, "\n  <i>%s</i>", html.EscapeString(changeList(it.Changes)))
	}
	b.WriteString("\n")
}

// renderPlain builds the e-mail body for a group's buckets.
func renderPlain(buckets engine.Buckets, loc *time.Location) string {
	var b strings.Builder
	for _, cat := range engine.Categories() {
		items := buckets[cat]
		if len(items) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", headings[cat])
		for _, it := range items {
			e := it.Event
			fmt.Fprintf(&b, "  * %s — %s", e.Title, eventTime(e, loc))
			if e.Location != "" {
				fmt.Fprintf(&b, " @ %s", e.Location)
			}
			b.WriteString("\n")
			if !it.Changes.Empty() {
				fmt.Fprintf(&b, "    (%s)\n", changeList(it.Changes))
			}
			if e.Link != "" {
				fmt.Fprintf(&b, "    %s\n", e.Link)
			}
		}
	}
	return b.String()
}

// eventTime formats the event's span in the group's local time. Zero
// duration events render as a single instant.
func eventTime(e engine.Candidate, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	start := e.Start.In(loc)
	if e.End.Equal(e.Start) {
		return start.Format("Mon Jan 2, 15:04")
	}
	end := e.End.In(loc)
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s–%s", start.Format("Mon Jan 2, 15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s – %s", start.Format("Mon Jan 2, 15:04"), end.Format("Mon Jan 2, 15:04"))
}

func changeList(cs engine.ChangeSet) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
