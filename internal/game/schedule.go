package game

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column windows holding each identity's cards, 0-based half-open. In the
// source files these are columns 2-5 for identity 1 and 8-11 for identity 2,
// 1-indexed.
const (
	vp1WindowStart = 1
	vp1WindowEnd   = 5
	vp2WindowStart = 7
	vp2WindowEnd   = 11
)

// RoundSchedule is the ordered list of per-round card assignments for a
// session. Immutable after loading.
type RoundSchedule struct {
	rounds []RoundPlan
}

// NewRoundSchedule builds a schedule from explicit plans, for programmatic
// or test setups.
func NewRoundSchedule(plans ...RoundPlan) (*RoundSchedule, error) {
	if len(plans) == 0 {
		return nil, ErrScheduleEmpty
	}
	rounds := make([]RoundPlan, len(plans))
	copy(rounds, plans)
	return &RoundSchedule{rounds: rounds}, nil
}

// LoadScheduleFile loads a schedule from a CSV file on disk.
func LoadScheduleFile(path string) (*RoundSchedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()

	sched, err := LoadSchedule(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sched, nil
}

// LoadSchedule reads newline-delimited comma-separated rows, one round per
// row. From each identity's column window the first two non-empty
// integer-parseable cells are taken as that identity's cards. Rows whose
// cells are all blank are skipped. The first row is treated as data if it
// parses under the same rule, otherwise it is discarded as a header.
func LoadSchedule(r io.Reader) (*RoundSchedule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	start := 0
	if len(rows) > 0 && !rowParses(rows[0]) {
		start = 1 // header
	}

	var rounds []RoundPlan
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if rowBlank(row) {
			continue
		}
		vp1, err := parseWindow(row, i, vp1WindowStart, vp1WindowEnd)
		if err != nil {
			return nil, err
		}
		vp2, err := parseWindow(row, i, vp2WindowStart, vp2WindowEnd)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, RoundPlan{VP1Cards: vp1, VP2Cards: vp2})
	}
	if len(rounds) == 0 {
		return nil, ErrScheduleEmpty
	}
	return &RoundSchedule{rounds: rounds}, nil
}

// Len returns the number of scheduled rounds.
func (s *RoundSchedule) Len() int { return len(s.rounds) }

// Round returns the plan at the 0-based position.
func (s *RoundSchedule) Round(i int) RoundPlan { return s.rounds[i] }

// parseWindow scans row cells in [start, end) left to right and returns the
// first two integer cells, stopping once two values are found.
func parseWindow(row []string, rowIdx, start, end int) ([2]int, error) {
	var vals []int
	for i := start; i < end && i < len(row); i++ {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		n, err := strconv.Atoi(cell)
		if err != nil {
			continue
		}
		vals = append(vals, n)
		if len(vals) == 2 {
			break
		}
	}
	if len(vals) < 2 {
		return [2]int{}, &ScheduleFormatError{Row: rowIdx, StartCol: start + 1, EndCol: end}
	}
	return [2]int{vals[0], vals[1]}, nil
}

func rowParses(row []string) bool {
	if _, err := parseWindow(row, 0, vp1WindowStart, vp1WindowEnd); err != nil {
		return false
	}
	if _, err := parseWindow(row, 0, vp2WindowStart, vp2WindowEnd); err != nil {
		return false
	}
	return true
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
