// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

const (
	testSize       = 2048
	testSampleRate = 44100.0
)

func rms(buf []float64) float64 {
	var sum float64
	for _, v := range buf {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestSineProperties(t *testing.T) {
	buf := Sine(testSize, testSampleRate, 440, 0.9)

	if len(buf) != testSize {
		t.Fatalf("Sine length = %d, want %d", len(buf), testSize)
	}
	if buf[0] != 0 {
		t.Errorf("Sine should start at zero phase, got %f", buf[0])
	}
	for i, v := range buf {
		if math.Abs(v) > 0.9+1e-9 {
			t.Fatalf("sample %d exceeds amplitude: %f", i, v)
		}
	}
}

func TestToneClusterDeterministic(t *testing.T) {
	a := ToneCluster(testSize, testSampleRate, 6500, 9500, 10, 4, 0.7)
	b := ToneCluster(testSize, testSampleRate, 6500, 9500, 10, 4, 0.7)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different signals at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestToneClusterAmplitude(t *testing.T) {
	buf := ToneCluster(testSize, testSampleRate, 200, 800, 5, 2, 0.5)

	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.5) > 1e-9 {
		t.Errorf("peak = %f, want 0.5", peak)
	}
}

func TestDrumVoicesAreLoudEnough(t *testing.T) {
	tests := []struct {
		name string
		buf  []float64
	}{
		{"kick", KickHit(testSize, testSampleRate)},
		{"snare", SnareHit(testSize, testSampleRate)},
		{"closed hat", ClosedHatHit(testSize, testSampleRate)},
		{"open hat", OpenHatHit(testSize, testSampleRate)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rms(tt.buf); got < 0.05 {
				t.Errorf("RMS = %f, too quiet for detection tests", got)
			}
		})
	}
}

func TestMix(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{0.5, 0.5, 0.5}

	out := Mix(a, b)
	want := []float64{1.5, 2.5, 3.5}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Mix[%d] = %f, want %f", i, out[i], want[i])
		}
	}

	if Mix() != nil {
		t.Error("Mix with no inputs should return nil")
	}
}

func TestSilenceIsZero(t *testing.T) {
	for i, v := range Silence(128) {
		if v != 0 {
			t.Fatalf("Silence[%d] = %f, want 0", i, v)
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	mags := make([]float64, 64)
	for i := range mags {
		mags[i] = math.Exp(-0.05 * math.Pow(float64(i-16), 2))
	}

	tests := []struct {
		name     string
		start    int
		end      int
		expected int
	}{
		{"Full range", 0, 63, 16},
		{"Clamped start", -5, 63, 16},
		{"Clamped end", 0, 1000, 16},
		{"Window excluding peak", 32, 63, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(mags, tt.start, tt.end); got != tt.expected {
				t.Errorf("FindPeakBin = %d, want %d", got, tt.expected)
			}
		})
	}
}
