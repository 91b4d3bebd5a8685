package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTimeLabel marks a time label that cannot be split into an hour
// and a minute integer. It aborts the whole parse.
var ErrMalformedTimeLabel = errors.New("malformed time label")

// TimeLabelError reports the row and raw label that failed to format.
type TimeLabelError struct {
	Row   int // zero-based row index in the table
	Label string
	Err   error
}

func (e *TimeLabelError) Error() string {
	return fmt.Sprintf("row %d: time label %q: %v", e.Row+1, e.Label, e.Err)
}

func (e *TimeLabelError) Unwrap() error {
	return e.Err
}

// FormatTime turns a raw label such as "14h30" or "9h5" into "H:MM": no
// leading zero on the hour, two digits on the minutes. Either 'h', 'H' or ':'
// separates the parts.
func FormatTime(raw string) (string, error) {
	label := strings.Map(func(r rune) rune {
		if r == 'h' || r == 'H' {
			return ':'
		}
		return r
	}, strings.TrimSpace(raw))

	parts := strings.Split(label, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected hour and minutes in %q", ErrMalformedTimeLabel, raw)
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("%w: hour: %w", ErrMalformedTimeLabel, err)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("%w: minutes: %w", ErrMalformedTimeLabel, err)
	}

	return fmt.Sprintf("%d:%02d", hours, minutes), nil
}

// ParseSlot splits a formatted "H:MM" slot back into hour and minute.
func ParseSlot(slot string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(slot, ":")
	if !ok {
		return 0, 0, fmt.Errorf("slot %q: missing ':'", slot)
	}
	if hour, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("slot %q: hour: %w", slot, err)
	}
	if minute, err = strconv.Atoi(m); err != nil {
		return 0, 0, fmt.Errorf("slot %q: minutes: %w", slot, err)
	}
	return hour, minute, nil
}
