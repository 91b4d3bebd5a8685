package schedule

import (
	"fmt"
	"strings"
)

// Weekday is the canonical lowercase code a header label maps to,
// e.g. "segunda".
type Weekday string

// WeekdayLabel pairs a header label as written in the table with its code.
type WeekdayLabel struct {
	Label string
	Code  Weekday
}

// WeekdayTable is an immutable lookup from header labels to weekday codes.
// Codes keep their declaration order, which is the order they are emitted
// in every monitor's schedule.
type WeekdayTable struct {
	byLabel map[string]Weekday
	codes   []Weekday
}

var defaultWeekdays = []WeekdayLabel{
	{Label: "Segunda", Code: "segunda"},
	{Label: "Terça", Code: "terça"},
	{Label: "Quarta", Code: "quarta"},
	{Label: "Quinta", Code: "quinta"},
	{Label: "Sexta", Code: "sexta"},
	{Label: "Sábado", Code: "sábado"},
}

// DefaultWeekdayLabels returns a copy of the built-in Monday to Saturday labels.
func DefaultWeekdayLabels() []WeekdayLabel {
	out := make([]WeekdayLabel, len(defaultWeekdays))
	copy(out, defaultWeekdays)
	return out
}

// DefaultWeekdays returns the built-in Monday to Saturday table.
func DefaultWeekdays() WeekdayTable {
	t, err := NewWeekdayTable(defaultWeekdays)
	if err != nil {
		panic(err)
	}
	return t
}

// NewWeekdayTable builds a table from label/code pairs. Several labels may
// share a code; each code appears once in Codes, at its first occurrence.
func NewWeekdayTable(pairs []WeekdayLabel) (WeekdayTable, error) {
	if len(pairs) == 0 {
		return WeekdayTable{}, fmt.Errorf("weekday table is empty")
	}

	t := WeekdayTable{byLabel: make(map[string]Weekday, len(pairs))}
	seen := make(map[Weekday]bool, len(pairs))
	for _, p := range pairs {
		label := strings.TrimSpace(p.Label)
		if label == "" || p.Code == "" {
			return WeekdayTable{}, fmt.Errorf("weekday entry %q -> %q: label and code are required", p.Label, p.Code)
		}
		if _, dup := t.byLabel[label]; dup {
			return WeekdayTable{}, fmt.Errorf("duplicate weekday label %q", label)
		}
		t.byLabel[label] = p.Code
		if !seen[p.Code] {
			seen[p.Code] = true
			t.codes = append(t.codes, p.Code)
		}
	}
	return t, nil
}

// Lookup maps a header label to its code. Surrounding whitespace is ignored;
// an unknown label yields "" and false.
func (t WeekdayTable) Lookup(label string) (Weekday, bool) {
	code, ok := t.byLabel[strings.TrimSpace(label)]
	return code, ok
}

// Codes returns the weekday codes in declaration order.
func (t WeekdayTable) Codes() []Weekday {
	out := make([]Weekday, len(t.codes))
	copy(out, t.codes)
	return out
}

// Index returns the position of code in Codes, or -1.
func (t WeekdayTable) Index(code Weekday) int {
	for i, c := range t.codes {
		if c == code {
			return i
		}
	}
	return -1
}

func (t WeekdayTable) Len() int {
	return len(t.codes)
}
