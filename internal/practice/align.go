// SPDX-License-Identifier: MIT
/*
Package practice aligns drum detections to a target step grid and scores a
take. Alignment rounds to the nearest step, and the timing offset derives
from the unwrapped elapsed time before any pattern wrapping, so a hit just
ahead of a bar line reads as early for the downbeat instead of hopelessly
late for the previous step.
*/
package practice

import (
	"fmt"
	"math"
	"time"
)

// Aligner maps wall-clock timestamps onto a repeating step grid anchored at
// a session start time.
type Aligner struct {
	start   time.Time
	stepDur time.Duration
	length  int
}

// NewAligner validates the grid geometry up front so Align itself can never
// divide by zero.
func NewAligner(start time.Time, stepDur time.Duration, length int) (*Aligner, error) {
	if stepDur <= 0 {
		return nil, fmt.Errorf("step duration must be positive, got %v", stepDur)
	}
	if length <= 0 {
		return nil, fmt.Errorf("pattern length must be positive, got %d", length)
	}
	return &Aligner{start: start, stepDur: stepDur, length: length}, nil
}

// Align returns the nearest pattern step for ts and the signed distance from
// that step's ideal time. Negative offsets mean early. The offset is
// computed against the unwrapped step index, so wrapping to step 0 keeps an
// early hit negative.
func (a *Aligner) Align(ts time.Time) (step int, offset time.Duration) {
	elapsed := ts.Sub(a.start)
	idx := int(math.Round(float64(elapsed) / float64(a.stepDur)))
	offset = elapsed - time.Duration(idx)*a.stepDur
	step = idx % a.length
	if step < 0 {
		step += a.length
	}
	return step, offset
}

// StepDuration returns the grid resolution the aligner was built with.
func (a *Aligner) StepDuration() time.Duration { return a.stepDur }
