package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	DefaultSubject  = "fisica"
	DefaultDuration = 45
)

// Document is the schedule feed for one subject.
type Document struct {
	Duration    int        `json:"duracaoMonitoria" jsonschema:"description=Length of one tutoring session in minutes"`
	Observation string     `json:"observacao" jsonschema:"description=Free-form note shown with the schedule"`
	Slots       []string   `json:"horarios" jsonschema:"description=Formatted time slots in table row order"`
	Monitors    []*Monitor `json:"monitores" jsonschema:"description=Monitors in first-seen order"`
}

// Monitor is one person with their entries per weekday.
type Monitor struct {
	Name     string        `json:"nome"`
	Avatar   string        `json:"avatar"`
	Schedule *WeekSchedule `json:"horarios"`
}

// NewDocument returns an empty document. Slots and Monitors are non-nil so
// they encode as empty arrays.
func NewDocument(duration int, observation string) *Document {
	return &Document{
		Duration:    duration,
		Observation: observation,
		Slots:       []string{},
		Monitors:    []*Monitor{},
	}
}

// Stats summarizes a document.
type Stats struct {
	Slots    int
	Monitors int
	Entries  int
}

func (d *Document) Stats() Stats {
	s := Stats{Slots: len(d.Slots), Monitors: len(d.Monitors)}
	for _, m := range d.Monitors {
		for _, day := range m.Schedule.Days() {
			s.Entries += len(m.Schedule.Entries(day))
		}
	}
	return s
}

// Monitor returns the monitor with the given normalized name, or nil.
func (d *Document) Monitor(name string) *Monitor {
	name = NormalizeName(name)
	for _, m := range d.Monitors {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// WeekSchedule maps every weekday code to its ordered display strings. All
// codes exist from construction on.
type WeekSchedule struct {
	days *orderedmap.OrderedMap[Weekday, []string]
}

func NewWeekSchedule(codes []Weekday) *WeekSchedule {
	days := orderedmap.New[Weekday, []string](orderedmap.WithCapacity[Weekday, []string](len(codes)))
	for _, c := range codes {
		days.Set(c, []string{})
	}
	return &WeekSchedule{days: days}
}

// Append adds entry to day. It reports false when day is not one of the
// schedule's codes.
func (w *WeekSchedule) Append(day Weekday, entry string) bool {
	entries, ok := w.days.Get(day)
	if !ok {
		return false
	}
	w.days.Set(day, append(entries, entry))
	return true
}

func (w *WeekSchedule) Entries(day Weekday) []string {
	if w == nil || w.days == nil {
		return nil
	}
	return w.days.Value(day)
}

// Days returns the weekday codes in order.
func (w *WeekSchedule) Days() []Weekday {
	if w == nil || w.days == nil {
		return nil
	}
	out := make([]Weekday, 0, w.days.Len())
	for pair := w.days.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (w *WeekSchedule) MarshalJSON() ([]byte, error) {
	if w == nil || w.days == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := w.days.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, string(pair.Key)); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, pair.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (w *WeekSchedule) UnmarshalJSON(data []byte) error {
	days := orderedmap.New[Weekday, []string]()
	if err := days.UnmarshalJSON(data); err != nil {
		return err
	}
	for pair := days.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = []string{}
		}
	}
	w.days = days
	return nil
}

// Roster accumulates monitors keyed by normalized name, in first-seen order.
type Roster struct {
	codes    []Weekday
	monitors *orderedmap.OrderedMap[string, *Monitor]
}

func NewRoster(codes []Weekday) *Roster {
	return &Roster{
		codes:    codes,
		monitors: orderedmap.New[string, *Monitor](),
	}
}

// Ensure returns the monitor for name, creating it with an empty entry list
// for every weekday if needed.
func (r *Roster) Ensure(name string) *Monitor {
	if m, ok := r.monitors.Get(name); ok {
		return m
	}
	m := &Monitor{Name: name, Schedule: NewWeekSchedule(r.codes)}
	r.monitors.Set(name, m)
	return m
}

func (r *Roster) Len() int {
	return r.monitors.Len()
}

func (r *Roster) Monitors() []*Monitor {
	out := make([]*Monitor, 0, r.monitors.Len())
	for pair := r.monitors.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Feed is the published JSON document: a single subject key wrapping the
// schedule document.
type Feed struct {
	Subject  string
	Document *Document
}

func (f Feed) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, map[string]*Document{f.Subject: f.Document}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Feed) UnmarshalJSON(data []byte) error {
	var m map[string]*Document
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("feed must have exactly one subject key, got %d", len(m))
	}
	for subject, doc := range m {
		if doc == nil {
			return fmt.Errorf("feed subject %q has no document", subject)
		}
		f.Subject, f.Document = subject, doc
	}
	return nil
}

// Encode writes f as JSON indented by indent spaces (0 for compact output).
// Non-ASCII characters and '&', '<', '>' are written literally.
func Encode(w io.Writer, f Feed, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	return nil
}

// writeJSON appends v to buf without HTML escaping and without the
// encoder's trailing newline. json.Marshal would escape '&', '<' and '>'
// and the outer encoder cannot undo that.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// EncodeString is Encode without the trailing newline.
func EncodeString(f Feed, indent int) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f, indent); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// DecodeFeed reads a feed previously written by Encode.
func DecodeFeed(r io.Reader) (Feed, error) {
	var f Feed
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Feed{}, fmt.Errorf("decoding feed: %w", err)
	}
	if f.Document.Slots == nil {
		f.Document.Slots = []string{}
	}
	if f.Document.Monitors == nil {
		f.Document.Monitors = []*Monitor{}
	}
	return f, nil
}
