// SPDX-License-Identifier: MIT
/*
Package dsp turns fixed-size audio frames into compact feature vectors for
drum-event classification:

  - windowed FFT magnitude spectrum (gonum dsp/fourier)
  - drum-tuned energies over configurable frequency bands
  - spectral centroid and 85% rolloff
  - zero-crossing rate and RMS
  - optional mel-frequency cepstra for the trained classifier

Extraction is deterministic for identical samples and sample rate, and a
silent frame never produces NaN or Inf: empty bands and zero spectra report
plain zeros.
*/
package dsp

import "time"

// Frame is one hop of captured audio. Samples are mono, normalized to
// [-1, 1], and Time is the wall-clock timestamp of the frame start. A frame
// is consumed exactly once; producers reuse the backing array only after the
// consumer has returned.
type Frame struct {
	Samples []float64
	Rate    float64
	Time    time.Time
}

// Band is a half-open frequency range [LowHz, HighHz). HighHz <= 0 means
// "up to and including Nyquist".
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// Canonical band names used by the default layout and the heuristic
// classifier rules.
const (
	BandSub  = "sub"
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
	BandAir  = "air"
)

// DefaultBands returns the drum-tuned band layout.
func DefaultBands() []Band {
	return []Band{
		{Name: BandSub, LowHz: 20, HighHz: 150},      // kick fundamentals
		{Name: BandLow, LowHz: 150, HighHz: 1000},    // snare body, toms
		{Name: BandMid, LowHz: 1000, HighHz: 6000},   // snare rattle, stick attack
		{Name: BandHigh, LowHz: 6000, HighHz: 10000}, // closed hat brightness
		{Name: BandAir, LowHz: 10000, HighHz: 0},     // open hat shimmer, up to Nyquist
	}
}

// BandEnergy is the measured mean magnitude of one band.
type BandEnergy struct {
	Name   string
	LowHz  float64
	HighHz float64
	Energy float64
}

// Features is the per-frame feature vector handed to classifiers. MFCC is
// empty when the extractor was built without cepstra.
type Features struct {
	RMS      float64
	ZCR      float64
	Centroid float64
	Rolloff  float64
	Bands    []BandEnergy
	MFCC     []float64
}

// Band returns the energy of the named band, or 0 when the extractor was not
// configured with it.
func (f *Features) Band(name string) float64 {
	for i := range f.Bands {
		if f.Bands[i].Name == name {
			return f.Bands[i].Energy
		}
	}
	return 0
}

// TotalBandEnergy sums all band energies.
func (f *Features) TotalBandEnergy() float64 {
	total := 0.0
	for i := range f.Bands {
		total += f.Bands[i].Energy
	}
	return total
}
