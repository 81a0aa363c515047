// SPDX-License-Identifier: MIT
//
// Package utils provides deterministic signal generators shared by the test
// suites. Drum voices are approximated as band-limited tone clusters so that
// band-energy assertions have exact, reproducible spectral content.
package utils

import "math"

// Sine returns size samples of a pure tone at freq Hz with the given peak
// amplitude in [-1, 1].
func Sine(size int, rate, freq, amp float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / rate
		buf[i] = amp * math.Sin(2*math.Pi*freq*t)
	}
	return buf
}

// DecayingSine returns a tone whose amplitude decays exponentially, the
// rough shape of a struck drum body. decay is the fraction of amplitude
// remaining after one second.
func DecayingSine(size int, rate, freq, amp, decay float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / rate
		buf[i] = amp * math.Pow(decay, t) * math.Sin(2*math.Pi*freq*t)
	}
	return buf
}

// ToneCluster sums n equally spaced tones between lowHz and highHz, each with
// a pseudo-random but seed-stable phase. The result concentrates spectral
// energy inside [lowHz, highHz], which makes it a precise stand-in for
// band-limited percussion noise (hats, snare rattle) in tests.
func ToneCluster(size int, rate, lowHz, highHz float64, n int, seed uint64, amp float64) []float64 {
	buf := make([]float64, size)
	if n <= 0 {
		return buf
	}
	step := 0.0
	if n > 1 {
		step = (highHz - lowHz) / float64(n-1)
	}
	state := seed
	for k := 0; k < n; k++ {
		freq := lowHz + float64(k)*step
		state = state*6364136223846793005 + 1442695040888963407
		phase := 2 * math.Pi * float64(state>>11) / float64(1<<53)
		for i := range buf {
			t := float64(i) / rate
			buf[i] += math.Sin(2*math.Pi*freq*t + phase)
		}
	}
	// Normalize to the requested peak amplitude.
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		scale := amp / peak
		for i := range buf {
			buf[i] *= scale
		}
	}
	return buf
}

// Mix sums any number of equal-length buffers into a fresh slice.
func Mix(bufs ...[]float64) []float64 {
	if len(bufs) == 0 {
		return nil
	}
	out := make([]float64, len(bufs[0]))
	for _, b := range bufs {
		for i := range out {
			if i < len(b) {
				out[i] += b[i]
			}
		}
	}
	return out
}

// Silence returns size zero samples.
func Silence(size int) []float64 {
	return make([]float64, size)
}

// KickHit approximates a kick drum: a loud low tone cluster around 60-110 Hz.
func KickHit(size int, rate float64) []float64 {
	return ToneCluster(size, rate, 60, 110, 4, 1, 0.9)
}

// SnareHit approximates a snare: body around 200-800 Hz plus presence noise
// between 1.5 and 4 kHz.
func SnareHit(size int, rate float64) []float64 {
	body := ToneCluster(size, rate, 200, 800, 5, 2, 0.5)
	rattle := ToneCluster(size, rate, 1500, 4000, 8, 3, 0.6)
	return Mix(body, rattle)
}

// ClosedHatHit approximates a closed hi-hat: shimmer between 6.5 and 9.5 kHz.
func ClosedHatHit(size int, rate float64) []float64 {
	return ToneCluster(size, rate, 6500, 9500, 10, 4, 0.7)
}

// OpenHatHit approximates an open hi-hat: sustained shimmer reaching well
// above 10 kHz.
func OpenHatHit(size int, rate float64) []float64 {
	return ToneCluster(size, rate, 9000, 15000, 12, 5, 0.7)
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
