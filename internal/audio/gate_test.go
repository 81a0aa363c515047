// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
)

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	c := newTestCapture(1)

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			c.SetGateThreshold(tt.input)
			got := c.GateThreshold()

			if absFloat(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecisionHotPath(t *testing.T) {
	c := newTestCapture(1)

	tests := []struct {
		ratio float64
		desc  string
	}{
		{0.0, "Zero"},
		{0.1, "10%"},
		{0.25, "Quarter"},
		{0.5, "Half"},
		{0.75, "Three quarter"},
		{0.999, "Near max"},
		{1.0, "Unity"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c.SetGateThreshold(tt.ratio)
			result := c.GateThreshold()

			// Verify conversion accuracy.
			if absFloat(result-tt.ratio) > 0.0001 {
				t.Errorf("Threshold conversion error: got %.6f, want %.6f", result, tt.ratio)
			}

			// Verify int32 representation is proportional.
			expectedInt32 := int32(tt.ratio * float64(math.MaxInt32))
			if absInt32(expectedInt32-c.gateThreshold.Load()) > 100 {
				t.Errorf("Int32 threshold mismatch: got %d, want %d",
					c.gateThreshold.Load(), expectedInt32)
			}
		})
	}
}

func TestGateFromConfig(t *testing.T) {
	c := NewCapture(config.AudioConfig{
		SampleRate:    testSampleRate,
		FrameSize:     testFrameSize,
		Channels:      1,
		GateThreshold: 0.25,
	})
	if got := c.GateThreshold(); absFloat(got-0.25) > 0.001 {
		t.Errorf("config gate threshold = %.3f, want 0.25", got)
	}
}

func BenchmarkGateThresholdConversionHotPath(b *testing.B) {
	c := newTestCapture(1)
	values := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	for _, v := range values {
		b.Run(formatFloat(v), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				c.SetGateThreshold(v)
				_ = c.GateThreshold() // Discard result to prevent optimization
			}
		})
	}
}

// absInt32 returns the absolute value of x.
func absInt32(x int32) int32 {
	mask := x >> 31
	return (x ^ mask) - mask
}
