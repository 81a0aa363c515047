// SPDX-License-Identifier: MIT
//
// Package pattern defines the step grid shared by the practice scorer, the
// configuration surface and the CLI. A pattern maps instrument names to
// fixed-length boolean rows; the detection pipeline consumes target patterns
// and emits the same shape as its detected output.
//
// Grids have a text notation, one instrument per line:
//
//	kick  |x---|x---|x---|x---|
//	snare |----|x---|----|x---|
//
// 'x' marks a hit, '-' a rest. Bar separators and whitespace carry no steps.
package pattern

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	onRune  = 'x'
	offRune = '-'
)

// Pattern is one bar of sequencer steps per instrument. Every row must have
// exactly Length entries.
type Pattern struct {
	Steps  map[string][]bool
	Length int
}

// New returns a pattern of the given length with one all-rest row per
// instrument.
func New(length int, instruments ...string) Pattern {
	p := Pattern{Steps: make(map[string][]bool, len(instruments)), Length: length}
	for _, name := range instruments {
		p.Steps[name] = make([]bool, length)
	}
	return p
}

// Validate checks the row-length invariant.
func (p Pattern) Validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("pattern length must be positive, got %d", p.Length)
	}
	for name, row := range p.Steps {
		if len(row) != p.Length {
			return fmt.Errorf("pattern row %q has %d steps, want %d", name, len(row), p.Length)
		}
	}
	return nil
}

// Active reports whether instrument has a hit at step. Unknown instruments
// and out-of-range steps are inactive, never a panic.
func (p Pattern) Active(instrument string, step int) bool {
	row, ok := p.Steps[instrument]
	if !ok || step < 0 || step >= len(row) {
		return false
	}
	return row[step]
}

// Set marks or clears a hit. Rows are created on demand; out-of-range steps
// are ignored.
func (p Pattern) Set(instrument string, step int, on bool) {
	if step < 0 || step >= p.Length {
		return
	}
	row, ok := p.Steps[instrument]
	if !ok {
		row = make([]bool, p.Length)
		p.Steps[instrument] = row
	}
	row[step] = on
}

// ActiveCount returns the number of hits across all rows.
func (p Pattern) ActiveCount() int {
	n := 0
	for _, row := range p.Steps {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}

// Instruments returns the row names in sorted order so renders and range
// loops are deterministic.
func (p Pattern) Instruments() []string {
	names := make([]string, 0, len(p.Steps))
	for name := range p.Steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (p Pattern) Clone() Pattern {
	out := Pattern{Steps: make(map[string][]bool, len(p.Steps)), Length: p.Length}
	for name, row := range p.Steps {
		cp := make([]bool, len(row))
		copy(cp, row)
		out.Steps[name] = cp
	}
	return out
}

// String renders the grid notation with bar separators every four steps.
func (p Pattern) String() string {
	width := 0
	names := p.Instruments()
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%-*s |", width, name)
		for i, on := range p.Steps[name] {
			if on {
				sb.WriteRune(onRune)
			} else {
				sb.WriteRune(offRune)
			}
			if (i+1)%4 == 0 {
				sb.WriteByte('|')
			}
		}
		if p.Length%4 != 0 {
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseRow parses one row of grid notation. 'x'/'X' is a hit, '-' or '.' a
// rest; '|' and whitespace are skipped.
func ParseRow(text string) ([]bool, error) {
	row := make([]bool, 0, len(text))
	for _, r := range text {
		switch r {
		case onRune, 'X':
			row = append(row, true)
		case offRune, '.':
			row = append(row, false)
		case '|', ' ', '\t':
			// Separators carry no steps.
		default:
			return nil, fmt.Errorf("unexpected character %q in pattern row", r)
		}
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("pattern row %q has no steps", text)
	}
	return row, nil
}

// FromRows builds a pattern from per-instrument notation rows. All rows must
// agree on step count.
func FromRows(rows map[string]string) (Pattern, error) {
	p := Pattern{Steps: make(map[string][]bool, len(rows))}
	for name, text := range rows {
		row, err := ParseRow(text)
		if err != nil {
			return Pattern{}, fmt.Errorf("instrument %q: %w", name, err)
		}
		if p.Length == 0 {
			p.Length = len(row)
		} else if len(row) != p.Length {
			return Pattern{}, fmt.Errorf("instrument %q has %d steps, want %d", name, len(row), p.Length)
		}
		p.Steps[name] = row
	}
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// ParseGrid parses a multi-line grid, one instrument per line. Blank lines
// and lines starting with '#' are skipped.
func ParseGrid(text string) (Pattern, error) {
	rows := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return Pattern{}, fmt.Errorf("grid line %q has no step row", line)
		}
		name := fields[0]
		if _, dup := rows[name]; dup {
			return Pattern{}, fmt.Errorf("duplicate instrument %q in grid", name)
		}
		rows[name] = strings.Join(fields[1:], "")
	}
	if len(rows) == 0 {
		return Pattern{}, fmt.Errorf("grid has no instrument rows")
	}
	return FromRows(rows)
}

// StepDuration converts a tempo to the wall-clock duration of one grid step.
// stepsPerBeat is the grid resolution: 4 gives sixteenth-note steps, so a
// 16-step bar spans one 4/4 measure.
func StepDuration(bpm float64, stepsPerBeat int) (time.Duration, error) {
	if bpm <= 0 {
		return 0, fmt.Errorf("bpm must be positive, got %v", bpm)
	}
	if stepsPerBeat <= 0 {
		return 0, fmt.Errorf("steps per beat must be positive, got %d", stepsPerBeat)
	}
	return time.Duration(float64(time.Minute) / (bpm * float64(stepsPerBeat))), nil
}
