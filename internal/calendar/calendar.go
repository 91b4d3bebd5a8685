package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
	"github.com/tj/go-naturaldate"

	"github.com/monitoria/schedconv/internal/schedule"
)

const productID = "-//monitoria//schedconv//PT"

// Entry is a display string from the feed split back into its parts.
type Entry struct {
	Hour        int
	Minute      int
	Room        string
	Footnote    bool
	ToBeDefined bool
}

// ParseEntry reads a display string such as "14:30 - Sala 203",
// "9:00 - **", "9:00 - ?" or "9:00".
func ParseEntry(display string) (Entry, error) {
	slot, suffix, _ := strings.Cut(display, " - ")

	var e Entry
	var err error
	if e.Hour, e.Minute, err = schedule.ParseSlot(strings.TrimSpace(slot)); err != nil {
		return Entry{}, err
	}

	switch suffix = strings.TrimSpace(suffix); suffix {
	case "":
	case "**":
		e.Footnote = true
	case "?":
		e.ToBeDefined = true
	default:
		e.Room = suffix
	}
	return e, nil
}

// Options controls Export.
type Options struct {
	Subject  string
	WeekOf   time.Time // any instant in the first week; snapped to its Monday
	Location *time.Location
	Duration time.Duration
	// Weekdays lists the codes in Monday-first order; the position of a code
	// is its offset from Monday.
	Weekdays []schedule.Weekday
	// Monitor restricts the export to one person when set.
	Monitor string
	Now     time.Time
}

// ResolveWeek parses a natural-language expression such as "next monday"
// relative to now and returns midnight of the Monday of that week in loc.
// An empty expression means the current week.
func ResolveWeek(expr string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	t := now
	if strings.TrimSpace(expr) != "" {
		parsed, err := naturaldate.Parse(expr, now, naturaldate.WithDirection(naturaldate.Future))
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing week %q: %w", expr, err)
		}
		t = parsed.In(loc)
	}
	return mondayOf(t), nil
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// Export writes a calendar with one weekly recurring event per schedule
// entry and returns the number of events written.
func Export(w io.Writer, doc *schedule.Document, opts Options) (int, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Duration(doc.Duration) * time.Minute
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	monday := mondayOf(opts.WeekOf.In(opts.Location))

	monitors := doc.Monitors
	if opts.Monitor != "" {
		m := doc.Monitor(opts.Monitor)
		if m == nil {
			return 0, fmt.Errorf("monitor %q not found", opts.Monitor)
		}
		monitors = []*schedule.Monitor{m}
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	count := 0
	for _, m := range monitors {
		for _, day := range m.Schedule.Days() {
			offset := dayOffset(opts.Weekdays, day)
			if offset < 0 {
				continue
			}
			for i, display := range m.Schedule.Entries(day) {
				entry, err := ParseEntry(display)
				if err != nil {
					return 0, fmt.Errorf("%s on %s: %w", m.Name, day, err)
				}

				start := time.Date(monday.Year(), monday.Month(), monday.Day()+offset,
					entry.Hour, entry.Minute, 0, 0, opts.Location)
				event := newEvent(opts, m.Name, entry, start)
				event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s-%s-%d@schedconv",
					slug(opts.Subject), slug(m.Name), slug(string(day)), i))

				cal.Children = append(cal.Children, event.Component)
				count++
			}
		}
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("encoding calendar: %w", err)
	}
	return count, nil
}

func newEvent(opts Options, name string, entry Entry, start time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetDateTime(ical.PropDateTimeStamp, opts.Now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(opts.Duration))
	event.Props.SetRecurrenceRule(&rrule.ROption{Freq: rrule.WEEKLY})

	summary := "Monitoria - " + name
	if opts.Subject != "" {
		summary = fmt.Sprintf("Monitoria de %s - %s", opts.Subject, name)
	}
	event.Props.SetText(ical.PropSummary, summary)

	switch {
	case entry.Footnote:
		event.Props.SetText(ical.PropDescription, "Horário com observação (**)")
	case entry.ToBeDefined:
		event.Props.SetText(ical.PropLocation, "Sala a definir")
	case entry.Room != "":
		event.Props.SetText(ical.PropLocation, entry.Room)
	}
	return event
}

func dayOffset(weekdays []schedule.Weekday, day schedule.Weekday) int {
	for i, d := range weekdays {
		if d == day {
			return i % 7
		}
	}
	return -1
}

func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		if r > 127 {
			return r
		}
		return -1
	}, s)
}
