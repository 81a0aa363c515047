// SPDX-License-Identifier: MIT
package classify

import (
	"testing"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/utils"
)

const (
	testRate = 44100.0
	testSize = 2048
)

func extractVoice(t *testing.T, samples []float64) (*dsp.Frame, *dsp.Features) {
	t.Helper()
	e, err := dsp.NewExtractor(dsp.ExtractorConfig{FrameSize: testSize, SampleRate: testRate})
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	frame := &dsp.Frame{Samples: samples, Rate: testRate, Time: time.Unix(0, 0)}
	feats, err := e.Extract(frame)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return frame, feats
}

func TestHeuristicRecognizesVoices(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{})

	tests := []struct {
		desc    string
		samples []float64
		want    Class
	}{
		{desc: "kick", samples: utils.KickHit(testSize, testRate), want: Kick},
		{desc: "snare", samples: utils.SnareHit(testSize, testRate), want: Snare},
		{desc: "closed hat", samples: utils.ClosedHatHit(testSize, testRate), want: HiHat},
		{desc: "open hat", samples: utils.OpenHatHit(testSize, testRate), want: OpenHat},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			frame, feats := extractVoice(t, tt.samples)
			res, err := h.Classify(frame, feats)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if res.Best != tt.want {
				t.Fatalf("Best = %s (confidence %.2f), want %s\nscores: %+v",
					res.Best, res.Confidence, tt.want, res.Scores)
			}
			if res.Confidence < 0.5 {
				t.Errorf("confidence = %v, want at least 0.5 for a clean synthetic hit", res.Confidence)
			}
		})
	}
}

func TestHeuristicSilenceIsNotADetection(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{})
	frame, feats := extractVoice(t, utils.Silence(testSize))

	res, err := h.Classify(frame, feats)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Detected() {
		t.Errorf("silence classified as %s with confidence %v", res.Best, res.Confidence)
	}
	if res.Confidence != 0 {
		t.Errorf("silence confidence = %v, want 0", res.Confidence)
	}
}

func TestHeuristicRMSFloor(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{RMSFloor: 0.5})
	// A clear kick, but quieter than the configured floor.
	frame, feats := extractVoice(t, utils.KickHit(testSize, testRate))

	res, err := h.Classify(frame, feats)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Detected() {
		t.Errorf("frame below the RMS floor classified as %s", res.Best)
	}
}

func TestHeuristicNilFeatures(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{})
	if _, err := h.Classify(nil, nil); err == nil {
		t.Error("Classify(nil, nil) expected error")
	}
}

func TestHeuristicDefaultsApplied(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{})
	if h.cfg.RMSFloor != DefaultRMSFloor {
		t.Errorf("RMSFloor = %v, want %v", h.cfg.RMSFloor, DefaultRMSFloor)
	}
	if h.cfg.HatZCR != DefaultHatZCR {
		t.Errorf("HatZCR = %v, want %v", h.cfg.HatZCR, DefaultHatZCR)
	}
	if h.cfg.OpenHatAirRatio != DefaultOpenHatAirRatio {
		t.Errorf("OpenHatAirRatio = %v, want %v", h.cfg.OpenHatAirRatio, DefaultOpenHatAirRatio)
	}
	if !h.Ready() {
		t.Error("heuristic must always be ready")
	}
	if h.Name() != "heuristic" {
		t.Errorf("Name = %q", h.Name())
	}
}

func TestHeuristicZCRGatesHats(t *testing.T) {
	h := NewHeuristic(HeuristicConfig{})

	// Identical band mix; only the zero-crossing rate differs. The busy
	// waveform must score hats strictly higher.
	busy := &dsp.Features{
		RMS: 0.3, ZCR: 0.4,
		Bands: []dsp.BandEnergy{
			{Name: dsp.BandLow, Energy: 0.4},
			{Name: dsp.BandHigh, Energy: 0.6},
		},
	}
	dull := &dsp.Features{
		RMS: 0.3, ZCR: 0.01,
		Bands: []dsp.BandEnergy{
			{Name: dsp.BandLow, Energy: 0.4},
			{Name: dsp.BandHigh, Energy: 0.6},
		},
	}

	busyRes, err := h.Classify(nil, busy)
	if err != nil {
		t.Fatalf("Classify(busy): %v", err)
	}
	dullRes, err := h.Classify(nil, dull)
	if err != nil {
		t.Fatalf("Classify(dull): %v", err)
	}

	if busyRes.Best != HiHat {
		t.Errorf("busy frame classified as %s, want hihat", busyRes.Best)
	}
	if dullRes.Best == HiHat {
		t.Error("dull frame still classified as hihat; the ZCR gate did not bite")
	}
}

func BenchmarkHeuristicClassify(b *testing.B) {
	h := NewHeuristic(HeuristicConfig{})
	e, err := dsp.NewExtractor(dsp.ExtractorConfig{FrameSize: 1024, SampleRate: testRate})
	if err != nil {
		b.Fatalf("NewExtractor: %v", err)
	}
	frame := &dsp.Frame{Samples: utils.SnareHit(1024, testRate), Rate: testRate, Time: time.Unix(0, 0)}
	feats, err := e.Extract(frame)
	if err != nil {
		b.Fatalf("Extract: %v", err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := h.Classify(frame, feats); err != nil {
			b.Fatal(err)
		}
	}
}
