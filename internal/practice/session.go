// SPDX-License-Identifier: MIT
package practice

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/pattern"
)

// Stats is the score of one practice take. Accuracy is a percentage in
// [0, 100]; a target with no active steps scores 0, never NaN. The timing
// breakdown covers correct hits only; false positives are reported on their
// own and never score.
type Stats struct {
	TotalExpected  int     `json:"total_expected"`
	Correct        int     `json:"correct"`
	Accuracy       float64 `json:"accuracy"`
	Early          int     `json:"early"`
	OnTime         int     `json:"on_time"`
	Late           int     `json:"late"`
	FalsePositives int     `json:"false_positives"`
}

// Session is one practice take against a target pattern. It accumulates
// detections from the pipeline until Stop freezes it; Score is a pure
// function of the accumulated detections, so re-rendering a report never
// changes the numbers.
type Session struct {
	ID        uuid.UUID
	Start     time.Time
	Target    pattern.Pattern
	Tolerance time.Duration

	aligner *Aligner

	mu         sync.Mutex
	detections []detect.Detection
	stopped    bool
}

// NewSession anchors a take at start. The target pattern must validate and
// have at least one step; tolerance is the on-time window half-width.
func NewSession(target pattern.Pattern, stepDur, tolerance time.Duration, start time.Time) (*Session, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("target pattern: %w", err)
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative, got %v", tolerance)
	}
	aligner, err := NewAligner(start, stepDur, target.Length)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.New(),
		Start:     start,
		Target:    target.Clone(),
		Tolerance: tolerance,
		aligner:   aligner,
	}, nil
}

// Add records one detection. Additions after Stop are dropped so a finished
// take scores identically no matter when the report renders.
func (s *Session) Add(d detect.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.detections = append(s.detections, d)
}

// AddAll records a batch of detections, oldest first.
func (s *Session) AddAll(ds []detect.Detection) {
	for _, d := range ds {
		s.Add(d)
	}
}

// Stop freezes the session. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether the take is frozen.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Detections returns a copy of the recorded detections in arrival order.
func (s *Session) Detections() []detect.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]detect.Detection, len(s.detections))
	copy(cp, s.detections)
	return cp
}

// Score computes the take statistics:
//
//   - a detection whose class is active at its aligned step is correct
//   - correct hits split into early, on-time and late by the signed offset
//     against the tolerance window
//   - detections landing on inactive steps are false positives
//   - accuracy is correct hits over active target steps
func (s *Session) Score() Stats {
	s.mu.Lock()
	dets := make([]detect.Detection, len(s.detections))
	copy(dets, s.detections)
	s.mu.Unlock()

	stats := Stats{TotalExpected: s.Target.ActiveCount()}
	for _, d := range dets {
		step, offset := s.aligner.Align(d.Time)
		if !s.Target.Active(string(d.Class), step) {
			stats.FalsePositives++
			continue
		}
		stats.Correct++
		switch {
		case absDuration(offset) <= s.Tolerance:
			stats.OnTime++
		case offset < 0:
			stats.Early++
		default:
			stats.Late++
		}
	}
	if stats.TotalExpected > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.TotalExpected) * 100
	}
	return stats
}

// Detected renders the take as a step grid in the same shape as the target:
// one row per class that produced at least one detection.
func (s *Session) Detected() pattern.Pattern {
	s.mu.Lock()
	dets := make([]detect.Detection, len(s.detections))
	copy(dets, s.detections)
	s.mu.Unlock()

	out := pattern.New(s.Target.Length)
	for _, d := range dets {
		step, _ := s.aligner.Align(d.Time)
		out.Set(string(d.Class), step, true)
	}
	return out
}

// Align exposes the session's grid mapping, for reports that show per-hit
// offsets.
func (s *Session) Align(ts time.Time) (step int, offset time.Duration) {
	return s.aligner.Align(ts)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
