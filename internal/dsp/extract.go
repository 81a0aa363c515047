// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/bitint"
)

// rolloffFraction is the cumulative-energy fraction for the spectral rolloff
// feature.
const rolloffFraction = 0.85

// ExtractorConfig sizes an Extractor. FrameSize must be a power of two; the
// FFT runs at exactly that size, so shorter frames are zero-padded.
type ExtractorConfig struct {
	FrameSize  int
	SampleRate float64
	Window     WindowFunc // nil selects Hann
	Bands      []Band     // nil selects DefaultBands
	MFCCCoeffs int        // 0 disables cepstra
	MelFilters int        // 0 selects DefaultMelFilters
}

// DefaultMelFilters is the triangular filter count used when cepstra are
// enabled without an explicit bank size.
const DefaultMelFilters = 26

// resolvedBand carries the precomputed FFT bin range of a configured band.
type resolvedBand struct {
	name     string
	lowHz    float64
	highHz   float64
	startBin int
	endBin   int // inclusive; endBin < startBin means no bins fall in range
}

// extractWorkspace holds the pre-allocated scratch buffers for the hot path.
// The mutex serializes extraction; the processing pipeline is a single
// goroutine, so the lock is uncontended in practice.
type extractWorkspace struct {
	mu        sync.Mutex
	input     []float64
	spectrum  []complex128
	magnitude []float64
	window    []float64
}

// Extractor computes Features from Frames with zero allocations per call via
// ExtractInto. One Extractor is bound to a fixed frame size and sample rate.
type Extractor struct {
	size  int
	rate  float64
	fft   *fourier.FFT
	bands []resolvedBand
	mel   *melBank
	ws    extractWorkspace
}

// NewExtractor validates the configuration and pre-computes the window
// coefficients, band bin ranges and (when enabled) the mel filter bank.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	if cfg.FrameSize <= 0 || !bitint.IsPowerOfTwo(cfg.FrameSize) {
		return nil, fmt.Errorf("frame size must be a positive power of two, got %d", cfg.FrameSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", cfg.SampleRate)
	}
	winFn := cfg.Window
	if winFn == nil {
		winFn = defaultWindow
	}
	bands := cfg.Bands
	if bands == nil {
		bands = DefaultBands()
	}

	e := &Extractor{
		size: cfg.FrameSize,
		rate: cfg.SampleRate,
		fft:  fourier.NewFFT(cfg.FrameSize),
	}
	bins := cfg.FrameSize/2 + 1
	e.ws.input = make([]float64, cfg.FrameSize)
	e.ws.spectrum = make([]complex128, bins)
	e.ws.magnitude = make([]float64, bins)

	// Window coefficients come from applying the function to a buffer of
	// ones; extraction then multiplies samples by the stored coefficients.
	e.ws.window = make([]float64, cfg.FrameSize)
	for i := range e.ws.window {
		e.ws.window[i] = 1.0
	}
	winFn(e.ws.window)

	nyquist := cfg.SampleRate / 2
	for _, b := range bands {
		if b.Name == "" {
			return nil, fmt.Errorf("band with range [%v, %v) has no name", b.LowHz, b.HighHz)
		}
		if b.LowHz < 0 {
			return nil, fmt.Errorf("band %q has negative low edge %v", b.Name, b.LowHz)
		}
		high := b.HighHz
		if high <= 0 {
			high = nyquist
		}
		if high <= b.LowHz {
			return nil, fmt.Errorf("band %q has empty range [%v, %v)", b.Name, b.LowHz, high)
		}
		rb := resolvedBand{
			name:     b.Name,
			lowHz:    b.LowHz,
			highHz:   high,
			startBin: int(math.Ceil(b.LowHz * float64(cfg.FrameSize) / cfg.SampleRate)),
			endBin:   int(math.Ceil(high*float64(cfg.FrameSize)/cfg.SampleRate)) - 1,
		}
		if b.HighHz <= 0 {
			// Open-ended bands reach the Nyquist bin itself.
			rb.endBin = bins - 1
		}
		if rb.endBin > bins-1 {
			rb.endBin = bins - 1
		}
		if rb.startBin < 0 {
			rb.startBin = 0
		}
		e.bands = append(e.bands, rb)
	}

	if cfg.MFCCCoeffs > 0 {
		filters := cfg.MelFilters
		if filters == 0 {
			filters = DefaultMelFilters
		}
		mel, err := newMelBank(cfg.FrameSize, cfg.SampleRate, filters, cfg.MFCCCoeffs)
		if err != nil {
			return nil, err
		}
		e.mel = mel
	}
	return e, nil
}

func defaultWindow(seq []float64) []float64 {
	fn, _ := ParseWindow("hann")
	return fn(seq)
}

// FrameSize returns the fixed hop the extractor was built for.
func (e *Extractor) FrameSize() int { return e.size }

// SampleRate returns the rate the extractor was built for.
func (e *Extractor) SampleRate() float64 { return e.rate }

// NewFeatures returns a Features value pre-sized for ExtractInto, so the hot
// path never grows slices.
func (e *Extractor) NewFeatures() *Features {
	f := &Features{Bands: make([]BandEnergy, len(e.bands))}
	if e.mel != nil {
		f.MFCC = make([]float64, e.mel.coeffs)
	}
	return f
}

// Extract is the allocating convenience wrapper around ExtractInto.
func (e *Extractor) Extract(frame *Frame) (*Features, error) {
	out := e.NewFeatures()
	if err := e.ExtractInto(frame, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractInto computes the full feature vector for one frame into out. The
// frame must not exceed the extractor's size and must carry the extractor's
// sample rate; shorter frames are zero-padded. out should come from
// NewFeatures, but slices are resized on first use either way.
func (e *Extractor) ExtractInto(frame *Frame, out *Features) error {
	if frame == nil || out == nil {
		return fmt.Errorf("nil frame or features")
	}
	n := len(frame.Samples)
	if n == 0 {
		return fmt.Errorf("empty frame")
	}
	if n > e.size {
		return fmt.Errorf("frame has %d samples, extractor size is %d", n, e.size)
	}
	if frame.Rate != e.rate {
		return fmt.Errorf("frame rate %v does not match extractor rate %v", frame.Rate, e.rate)
	}

	e.ws.mu.Lock()
	defer e.ws.mu.Unlock()

	// --- 1. Time-domain features straight off the samples ---
	var sumSq float64
	crossings := 0
	prevNonNeg := frame.Samples[0] >= 0
	for i, s := range frame.Samples {
		sumSq += s * s
		nonNeg := s >= 0
		if i > 0 && nonNeg != prevNonNeg {
			crossings++
		}
		prevNonNeg = nonNeg
	}
	out.RMS = math.Sqrt(sumSq / float64(n))
	if n > 1 {
		out.ZCR = float64(crossings) / float64(n-1)
	} else {
		out.ZCR = 0
	}

	// --- 2. Windowed copy, zero-padded to the FFT size ---
	for i := range e.ws.input {
		if i < n {
			e.ws.input[i] = frame.Samples[i] * e.ws.window[i]
		} else {
			e.ws.input[i] = 0
		}
	}

	// --- 3. Magnitude spectrum ---
	e.fft.Coefficients(e.ws.spectrum, e.ws.input)
	for i, c := range e.ws.spectrum {
		e.ws.magnitude[i] = cmplx.Abs(c)
	}

	// --- 4. Band energies: mean magnitude per bin in each range ---
	if len(out.Bands) != len(e.bands) {
		out.Bands = make([]BandEnergy, len(e.bands))
	}
	for bi := range e.bands {
		rb := &e.bands[bi]
		energy := 0.0
		if rb.endBin >= rb.startBin {
			sum := 0.0
			for k := rb.startBin; k <= rb.endBin; k++ {
				sum += e.ws.magnitude[k]
			}
			energy = sum / float64(rb.endBin-rb.startBin+1)
		}
		out.Bands[bi] = BandEnergy{Name: rb.name, LowHz: rb.lowHz, HighHz: rb.highHz, Energy: energy}
	}

	// --- 5. Spectral centroid and rolloff ---
	var total, weighted float64
	for k, m := range e.ws.magnitude {
		freq := e.fft.Freq(k) * e.rate
		total += m
		weighted += freq * m
	}
	if total > 0 {
		out.Centroid = weighted / total
		target := rolloffFraction * total
		cum := 0.0
		out.Rolloff = e.fft.Freq(len(e.ws.magnitude)-1) * e.rate
		for k, m := range e.ws.magnitude {
			cum += m
			if cum >= target {
				out.Rolloff = e.fft.Freq(k) * e.rate
				break
			}
		}
	} else {
		out.Centroid = 0
		out.Rolloff = 0
	}

	// --- 6. Cepstra for the trained classifier ---
	if e.mel != nil {
		if len(out.MFCC) != e.mel.coeffs {
			out.MFCC = make([]float64, e.mel.coeffs)
		}
		e.mel.cepstraInto(e.ws.magnitude, out.MFCC)
	} else {
		out.MFCC = out.MFCC[:0]
	}
	return nil
}
