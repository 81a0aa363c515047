// SPDX-License-Identifier: MIT
/*
Package detect turns raw per-frame classifications into discrete drum
detections. One physical hit smears across several consecutive frames, so
candidates pass three gates:

 1. confidence at or above the configured floor
 2. a global minimum gap since the last accepted detection of any class
 3. a longer per-class cooldown since the last accepted detection of the
    same class

Accepted detections land in a rolling history bounded by count and age. The
debouncer is safe for concurrent use: the pipeline goroutine offers while
UIs and transports read.
*/
package detect

import (
	"sync"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
)

// Detection is one accepted drum event.
type Detection struct {
	Time       time.Time      `json:"time"`
	Class      classify.Class `json:"type"`
	Confidence float64        `json:"confidence"`
}

// Defaults applied by New for zero Config fields.
const (
	DefaultMinConfidence = 0.55
	DefaultGlobalGap     = 100 * time.Millisecond
	DefaultClassCooldown = 180 * time.Millisecond
	DefaultMaxHistory    = 50
	DefaultMaxAge        = 10 * time.Second
)

// Config tunes the gates and the history bounds.
type Config struct {
	// MinConfidence drops candidates below this probability.
	MinConfidence float64
	// GlobalGap is the minimum spacing between any two detections.
	GlobalGap time.Duration
	// ClassCooldown is the minimum spacing between two detections of the
	// same class. Sensible values exceed GlobalGap.
	ClassCooldown time.Duration
	// MaxHistory bounds the rolling buffer by entry count.
	MaxHistory int
	// MaxAge evicts entries older than this relative to the newest.
	MaxAge time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.GlobalGap <= 0 {
		c.GlobalGap = DefaultGlobalGap
	}
	if c.ClassCooldown <= 0 {
		c.ClassCooldown = DefaultClassCooldown
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = DefaultMaxHistory
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	return c
}

// Debouncer gates classifications and keeps the bounded history.
type Debouncer struct {
	mu          sync.Mutex
	cfg         Config
	lastAny     time.Time
	lastByClass map[classify.Class]time.Time
	history     []Detection
}

// New builds a Debouncer, filling zero config fields with defaults.
func New(cfg Config) *Debouncer {
	return &Debouncer{
		cfg:         cfg.withDefaults(),
		lastByClass: make(map[classify.Class]time.Time),
	}
}

// Offer runs one classification through the gates. It returns the accepted
// Detection and true, or a zero Detection and false when any gate rejects.
// Timestamps are expected to be monotonically non-decreasing; the pipeline's
// single processing timeline guarantees that.
func (d *Debouncer) Offer(at time.Time, res classify.Result) (Detection, bool) {
	if !res.Detected() || res.Confidence < d.cfg.MinConfidence {
		return Detection{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastAny.IsZero() && at.Sub(d.lastAny) < d.cfg.GlobalGap {
		return Detection{}, false
	}
	if last, ok := d.lastByClass[res.Best]; ok && at.Sub(last) < d.cfg.ClassCooldown {
		return Detection{}, false
	}

	det := Detection{Time: at, Class: res.Best, Confidence: res.Confidence}
	d.lastAny = at
	d.lastByClass[res.Best] = at
	d.history = append(d.history, det)
	d.evictLocked(at)
	return det, true
}

// evictLocked drops entries beyond the count bound and older than the age
// bound. History stays in arrival order, oldest first.
func (d *Debouncer) evictLocked(now time.Time) {
	if n := len(d.history) - d.cfg.MaxHistory; n > 0 {
		d.history = append(d.history[:0], d.history[n:]...)
	}
	cutoff := now.Add(-d.cfg.MaxAge)
	firstFresh := 0
	for firstFresh < len(d.history) && d.history[firstFresh].Time.Before(cutoff) {
		firstFresh++
	}
	if firstFresh > 0 {
		d.history = append(d.history[:0], d.history[firstFresh:]...)
	}
}

// Detections returns a copy of the rolling history, oldest first.
func (d *Debouncer) Detections() []Detection {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Detection, len(d.history))
	copy(out, d.history)
	return out
}

// Len reports the current history size.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}

// Clear empties the history. The rate gates keep their state so a clear in
// the middle of a roll cannot double-report the hit in flight.
func (d *Debouncer) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = d.history[:0]
}
