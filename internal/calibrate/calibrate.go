// SPDX-License-Identifier: MIT
//
// Package calibrate analyzes a short recording of room silence and suggests
// gate and detection settings for the local setup. The suggestions err on the
// side of sensitivity; a practice session in a noisy room should calibrate
// with the noise present.
package calibrate

import (
	"fmt"
	"math"
	"sort"

	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/bitint"
)

const (
	// minFrames is the shortest take that gives the noise quantile any
	// meaning. At the default hop that is well under a second of audio.
	minFrames = 8

	// noiseQuantile is the per-frame percentile treated as the steady noise
	// level. It ignores rare spikes like a door slam mid-take.
	noiseQuantile = 0.95

	// gateMargin raises the suggested gate above the observed noise peaks so
	// the gate stays shut between hits.
	gateMargin = 2.0

	// floorMargin raises the suggested classifier RMS floor above the noise
	// RMS for the same reason.
	floorMargin = 2.0

	// minRMSFloor and maxRMSFloor bound the suggestion; below the minimum the
	// heuristic would fire on dither, above the maximum it would miss ghost
	// notes entirely.
	minRMSFloor = 0.005
	maxRMSFloor = 0.5

	// Gate levels above noisyGate mean the room is loud enough that the
	// classifier should demand more evidence per hit; moderateGate is the
	// halfway tier.
	noisyGate    = 0.05
	moderateGate = 0.02

	moderateMinConfidence = 0.60
	noisyMinConfidence    = 0.65
)

// BandFloor is the measured noise power density of one detection band.
type BandFloor struct {
	Name   string
	LowHz  float64
	HighHz float64
	Level  float64
}

// Report is the outcome of one calibration run: what the room sounded like
// and what settings it suggests.
type Report struct {
	Frames        int
	SampleRate    float64
	NoiseRMS      float64 // noiseQuantile of the per-frame RMS
	NoisePeak     float64 // noiseQuantile of the per-frame peak amplitude
	PeakAmplitude float64 // loudest single sample in the take
	BandFloors    []BandFloor

	GateThreshold float64 // suggested audio.gate_threshold
	RMSFloor      float64 // suggested detection.rms_floor
	MinConfidence float64 // suggested detection.min_confidence
}

// Options sizes an analysis run. FrameSize must match the capture hop so the
// measured frames see the same noise the live pipeline will.
type Options struct {
	FrameSize int
	Bands     []dsp.Band // nil selects dsp.DefaultBands
}

// Analyze measures samples recorded with nobody playing and derives suggested
// settings. The take must span at least minFrames full frames.
func Analyze(samples []float64, rate float64, opts Options) (*Report, error) {
	if opts.FrameSize <= 0 || !bitint.IsPowerOfTwo(opts.FrameSize) {
		return nil, fmt.Errorf("frame size must be a positive power of two, got %d", opts.FrameSize)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", rate)
	}
	frames := len(samples) / opts.FrameSize
	if frames < minFrames {
		return nil, fmt.Errorf("take too short to calibrate: need %d frames of %d samples, got %d",
			minFrames, opts.FrameSize, frames)
	}
	bands := opts.Bands
	if bands == nil {
		bands = dsp.DefaultBands()
	}

	rep := &Report{Frames: frames, SampleRate: rate}

	// Per-frame RMS and peak over non-overlapping hops, then the steady
	// noise level as a quantile of each.
	frameRMS := make([]float64, frames)
	framePeak := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sumSq, peak float64
		for _, s := range samples[f*opts.FrameSize : (f+1)*opts.FrameSize] {
			sumSq += s * s
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		frameRMS[f] = math.Sqrt(sumSq / float64(opts.FrameSize))
		framePeak[f] = peak
		if peak > rep.PeakAmplitude {
			rep.PeakAmplitude = peak
		}
	}
	sort.Float64s(frameRMS)
	sort.Float64s(framePeak)
	rep.NoiseRMS = stat.Quantile(noiseQuantile, stat.Empirical, frameRMS, nil)
	rep.NoisePeak = stat.Quantile(noiseQuantile, stat.Empirical, framePeak, nil)

	// Welch power spectral density of the whole take, averaged into the
	// detection bands. A band floor far above its neighbours usually means
	// hum or a resonance worth treating before trusting that band.
	pxx, freqs := spectral.Pwelch(samples, rate, &spectral.PwelchOptions{
		NFFT:   opts.FrameSize,
		Window: window.Hann,
	})
	rep.BandFloors = bandFloors(pxx, freqs, bands, rate)

	rep.GateThreshold = clamp(rep.NoisePeak*gateMargin, 0, 1)
	rep.RMSFloor = clamp(rep.NoiseRMS*floorMargin, minRMSFloor, maxRMSFloor)
	switch {
	case rep.GateThreshold >= noisyGate:
		rep.MinConfidence = noisyMinConfidence
	case rep.GateThreshold >= moderateGate:
		rep.MinConfidence = moderateMinConfidence
	default:
		rep.MinConfidence = config.DefaultMinConfidence
	}
	return rep, nil
}

// bandFloors averages the PSD bins falling inside each band. Open-ended
// bands run to Nyquist.
func bandFloors(pxx, freqs []float64, bands []dsp.Band, rate float64) []BandFloor {
	nyquist := rate / 2
	out := make([]BandFloor, 0, len(bands))
	for _, b := range bands {
		high := b.HighHz
		if high <= 0 {
			high = nyquist
		}
		var sum float64
		n := 0
		for i, f := range freqs {
			if f >= b.LowHz && (f < high || (b.HighHz <= 0 && f <= nyquist)) {
				sum += pxx[i]
				n++
			}
		}
		level := 0.0
		if n > 0 {
			level = sum / float64(n)
		}
		out = append(out, BandFloor{Name: b.Name, LowHz: b.LowHz, HighHz: high, Level: level})
	}
	return out
}

// Suggested is the YAML-shaped subset of the configuration a calibration run
// fills in. Marshals into a fragment that merges cleanly over a config file.
type Suggested struct {
	Audio struct {
		GateThreshold float64 `yaml:"gate_threshold"`
	} `yaml:"audio"`
	Detection struct {
		RMSFloor      float64 `yaml:"rms_floor"`
		MinConfidence float64 `yaml:"min_confidence"`
	} `yaml:"detection"`
}

// Suggested extracts the settings portion of the report.
func (r *Report) Suggested() Suggested {
	var s Suggested
	s.Audio.GateThreshold = r.GateThreshold
	s.Detection.RMSFloor = r.RMSFloor
	s.Detection.MinConfidence = r.MinConfidence
	return s
}

// String renders the measurement half of the report for terminal output.
func (r *Report) String() string {
	out := fmt.Sprintf("Analyzed %d frames at %.0f Hz\n", r.Frames, r.SampleRate)
	out += fmt.Sprintf("  noise RMS (p%.0f):  %.5f\n", noiseQuantile*100, r.NoiseRMS)
	out += fmt.Sprintf("  noise peak (p%.0f): %.5f\n", noiseQuantile*100, r.NoisePeak)
	out += fmt.Sprintf("  loudest sample:    %.5f\n", r.PeakAmplitude)
	for _, bf := range r.BandFloors {
		out += fmt.Sprintf("  band %-5s [%6.0f, %6.0f) Hz: %.3e\n", bf.Name, bf.LowHz, bf.HighHz, bf.Level)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
