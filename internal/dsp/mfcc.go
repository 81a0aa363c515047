// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// melLogFloor keeps the log compression finite on silent filters.
const melLogFloor = 1e-10

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilter is one triangular filter over consecutive FFT bins starting at
// startBin.
type melFilter struct {
	startBin int
	weights  []float64
}

// melBank computes mel-frequency cepstra from a magnitude spectrum. The
// filter shapes and the cosine transform are fixed at construction, so the
// cepstra for a given model artifact stay consistent across runs.
type melBank struct {
	filters  []melFilter
	energies []float64
	cepstra  []float64
	dct      *fourier.DCT
	coeffs   int
}

func newMelBank(fftSize int, rate float64, filters, coeffs int) (*melBank, error) {
	if filters < 2 {
		return nil, fmt.Errorf("mel bank needs at least 2 filters, got %d", filters)
	}
	if coeffs < 1 || coeffs > filters {
		return nil, fmt.Errorf("mfcc coefficient count %d out of range [1, %d]", coeffs, filters)
	}

	bins := fftSize/2 + 1
	melLo := hzToMel(0)
	melHi := hzToMel(rate / 2)

	// filters+2 points equally spaced on the mel scale, snapped to FFT bins.
	points := make([]int, filters+2)
	for i := range points {
		mel := melLo + (melHi-melLo)*float64(i)/float64(filters+1)
		bin := int(math.Round(melToHz(mel) * float64(fftSize) / rate))
		if bin > bins-1 {
			bin = bins - 1
		}
		if bin < 0 {
			bin = 0
		}
		points[i] = bin
	}

	mb := &melBank{
		filters:  make([]melFilter, 0, filters),
		energies: make([]float64, filters),
		cepstra:  make([]float64, filters),
		dct:      fourier.NewDCT(filters),
		coeffs:   coeffs,
	}
	for m := 1; m <= filters; m++ {
		lo, center, hi := points[m-1], points[m], points[m+1]
		f := melFilter{startBin: lo, weights: make([]float64, 0, hi-lo+1)}
		for k := lo; k <= hi; k++ {
			var w float64
			switch {
			case k < center:
				if center > lo {
					w = float64(k-lo) / float64(center-lo)
				}
			case k == center:
				w = 1
			default:
				if hi > center {
					w = float64(hi-k) / float64(hi-center)
				}
			}
			f.weights = append(f.weights, w)
		}
		mb.filters = append(mb.filters, f)
	}
	return mb, nil
}

// cepstraInto fills out with the first len(out) cepstral coefficients of the
// magnitude spectrum. No allocations; scratch buffers are reused.
func (m *melBank) cepstraInto(magnitude, out []float64) {
	for i := range m.filters {
		f := &m.filters[i]
		sum := 0.0
		for j, w := range f.weights {
			mag := magnitude[f.startBin+j]
			sum += w * mag * mag
		}
		m.energies[i] = math.Log(sum + melLogFloor)
	}
	m.dct.Transform(m.cepstra, m.energies)
	copy(out, m.cepstra[:len(out)])
}
