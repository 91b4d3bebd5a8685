package schedule

import (
	"io"
	"log/slog"
	"strings"

	"github.com/monitoria/schedconv/internal/table"
)

const (
	headerRow   = 1
	timeColumn  = 1
	firstDayCol = 2
)

// Parser turns a schedule table into a Document. A Parser holds no state
// between calls and may be reused.
type Parser struct {
	weekdays    WeekdayTable
	duration    int
	observation string
	logger      *slog.Logger
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithDuration(minutes int) Option {
	return func(p *Parser) { p.duration = minutes }
}

func WithObservation(text string) Option {
	return func(p *Parser) { p.observation = text }
}

func NewParser(weekdays WeekdayTable, opts ...Option) *Parser {
	p := &Parser{
		weekdays: weekdays,
		duration: DefaultDuration,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse walks the table once. Row 0 is a title and is ignored, row 1 holds the
// weekday labels from column 2 on, and every later row carries a time label
// in column 1 followed by one cell per weekday column. Scanning stops at the
// first row whose cells are all empty.
//
// A time label that cannot be formatted aborts the parse with a
// *TimeLabelError. Everything else degrades silently: unknown weekday
// columns are skipped and fragments without a name are dropped.
func (p *Parser) Parse(t table.Table) (*Document, error) {
	doc := NewDocument(p.duration, p.observation)
	roster := NewRoster(p.weekdays.Codes())
	var columns []Weekday

	for i, row := range t {
		if table.IsBlank(row) {
			p.logger.Debug("end of table", "row", i+1)
			break
		}

		switch {
		case i < headerRow:
			continue
		case i == headerRow:
			columns = p.headerColumns(row)
			continue
		}

		raw := strings.TrimSpace(table.Cell(row, timeColumn))
		if raw == "" {
			continue
		}
		slot, err := FormatTime(raw)
		if err != nil {
			return nil, &TimeLabelError{Row: i, Label: raw, Err: err}
		}
		doc.Slots = append(doc.Slots, slot)

		for j := firstDayCol; j < len(row); j++ {
			if strings.TrimSpace(row[j]) == "" {
				continue
			}

			day := columnDay(columns, j-firstDayCol)
			if day == "" {
				p.logger.Debug("skipping cell in unassigned column", "row", i+1, "column", j+1, "cell", row[j])
				continue
			}

			cell := ScanCell(row[j])
			for _, frag := range cell.Dropped {
				p.logger.Debug("dropping fragment without a name", "row", i+1, "column", j+1, "fragment", frag)
			}
			for _, tok := range cell.Tokens {
				m := roster.Ensure(tok.Name)
				m.Schedule.Append(day, tok.Display(slot, cell.Fallback))
			}
		}
	}

	doc.Monitors = roster.Monitors()
	p.logger.Debug("parsed schedule table",
		"rows", len(t),
		"slots", len(doc.Slots),
		"monitors", len(doc.Monitors),
	)
	return doc, nil
}

func (p *Parser) headerColumns(row []string) []Weekday {
	var columns []Weekday
	for j := firstDayCol; j < len(row); j++ {
		code, ok := p.weekdays.Lookup(row[j])
		if !ok && strings.TrimSpace(row[j]) != "" {
			p.logger.Debug("unknown weekday label", "column", j+1, "label", row[j])
		}
		columns = append(columns, code)
	}
	return columns
}

func columnDay(columns []Weekday, i int) Weekday {
	if i < 0 || i >= len(columns) {
		return ""
	}
	return columns[i]
}
