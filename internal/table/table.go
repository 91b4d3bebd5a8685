package table

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an ordered sequence of rows, each an ordered sequence of text cells.
type Table [][]string

// ErrNoSelection is returned by a Source when the user did not pick an input.
var ErrNoSelection = errors.New("no input file selected")

// Source supplies the path of the table to convert.
type Source interface {
	Select(ctx context.Context) (string, error)
}

// PathSource is a Source for a path given up front (flag or argument).
type PathSource string

func (p PathSource) Select(ctx context.Context) (string, error) {
	if p == "" {
		return "", ErrNoSelection
	}
	return string(p), nil
}

// Cell returns the i-th cell of row, or "" when the row is shorter.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// IsBlank reports whether every cell of row is empty. A row with no cells
// is blank.
func IsBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV decodes comma-separated UTF-8 text into a Table. Rows may have
// different lengths. Blank source lines, which the CSV decoder would skip,
// are kept as empty rows so the end-of-table marker survives.
func ReadCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var t Table
	lastLine := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		start, _ := cr.FieldPos(0)
		if start > lastLine+1 {
			t = append(t, []string{})
		}

		last := len(record) - 1
		end, _ := cr.FieldPos(last)
		lastLine = end + strings.Count(record[last], "\n")

		t = append(t, record)
	}

	return t, nil
}

// ReadFile opens path and decodes it with ReadCSV.
func ReadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table file: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
