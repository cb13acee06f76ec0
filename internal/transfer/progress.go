package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
)

// Progress is one line of rsync output. The parsed fields are set only for
// --info=progress2 lines.
type Progress struct {
	RawOutput   string  `json:"rawOutput"`
	Transferred *string `json:"transferred"`
	Percentage  *string `json:"percentage"`
	Speed       *string `json:"speed"`
}

// ProgressFunc receives every output line of a running transfer.
type ProgressFunc func(Progress)

// ParseProgress splits a line into columns, ignoring repeated spaces. A line
// is a progress line when it has at least three columns and the second ends
// with '%'.
func ParseProgress(line string) Progress {
	progress := Progress{RawOutput: line}

	columns := strings.Fields(line)
	if len(columns) < 3 || !strings.HasSuffix(columns[1], "%") {
		return progress
	}

	transferred, percentage, speed := columns[0], columns[1], columns[2]
	progress.Transferred = &transferred
	progress.Percentage = &percentage
	progress.Speed = &speed

	return progress
}

// Fraction returns the percentage as a value in [0, 1].
func (p Progress) Fraction() (float64, bool) {
	if p.Percentage == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(*p.Percentage, "%"), 64)
	if err != nil {
		return 0, false
	}

	return min(max(value/100, 0), 1), true //nolint:mnd // percent
}

// scanLines is bufio.ScanLines that also breaks on the carriage returns
// rsync uses to redraw its progress line.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanLines)

	return scanner
}
