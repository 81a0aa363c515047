// SPDX-License-Identifier: MIT
package classify

import (
	"fmt"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
)

// Heuristic defaults, tuned against the synthetic drum voices used in the
// test suites and a handful of real kit recordings.
const (
	DefaultRMSFloor        = 0.02
	DefaultHatZCR          = 0.12
	DefaultOpenHatAirRatio = 0.5
)

// HeuristicConfig tunes the rule cascade. Zero fields fall back to the
// package defaults.
type HeuristicConfig struct {
	// RMSFloor is the level below which a frame is treated as silence.
	RMSFloor float64
	// HatZCR is the zero-crossing rate at which hat evidence saturates.
	HatZCR float64
	// OpenHatAirRatio is the share of hat energy above 10 kHz that flips
	// the whole hat vote from closed to open.
	OpenHatAirRatio float64
}

func (c HeuristicConfig) withDefaults() HeuristicConfig {
	if c.RMSFloor <= 0 {
		c.RMSFloor = DefaultRMSFloor
	}
	if c.HatZCR <= 0 {
		c.HatZCR = DefaultHatZCR
	}
	if c.OpenHatAirRatio <= 0 {
		c.OpenHatAirRatio = DefaultOpenHatAirRatio
	}
	return c
}

// Heuristic classifies by band-energy ratios over the default band layout:
// kicks ride the sub band, snares split between body and rattle, hats need
// genuine high-frequency dominance and a busy waveform. It carries no model
// artifact and is always ready, which makes it the fallback strategy when a
// trained artifact is missing.
type Heuristic struct {
	cfg HeuristicConfig
}

var _ Classifier = (*Heuristic)(nil)

// NewHeuristic builds the rule cascade, filling zero config fields with
// defaults.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	return &Heuristic{cfg: cfg.withDefaults()}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Ready() bool { return true }

// Classify applies the rule cascade. Quiet frames and empty spectra return
// the zero Result so silence can never become a detection.
func (h *Heuristic) Classify(_ *dsp.Frame, feats *dsp.Features) (Result, error) {
	if feats == nil {
		return Result{}, fmt.Errorf("heuristic: nil features")
	}
	if feats.RMS < h.cfg.RMSFloor {
		return Result{}, nil
	}
	total := feats.TotalBandEnergy()
	if total <= 0 {
		return Result{}, nil
	}

	sub := feats.Band(dsp.BandSub) / total
	low := feats.Band(dsp.BandLow) / total
	mid := feats.Band(dsp.BandMid) / total
	high := feats.Band(dsp.BandHigh) / total
	air := feats.Band(dsp.BandAir) / total

	kick := sub + 0.3*low
	snare := 0.7*low + mid

	// Hat evidence scales with zero-crossing rate so that low-frequency
	// thumps with incidental top end do not read as cymbals.
	hat := high + air
	zcrFactor := feats.ZCR / h.cfg.HatZCR
	if zcrFactor > 1 {
		zcrFactor = 1
	}
	hat *= zcrFactor

	airRatio := 0.0
	if high+air > 0 {
		airRatio = air / (high + air)
	}
	open := hat * airRatio
	closed := hat - open
	if airRatio >= h.cfg.OpenHatAirRatio {
		open, closed = hat, 0
	}

	return rankResult(map[Class]float64{
		Kick:    kick,
		Snare:   snare,
		HiHat:   closed,
		OpenHat: open,
	}), nil
}
