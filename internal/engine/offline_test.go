// SPDX-License-Identifier: MIT
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/utils"
)

// takeWithKicks builds a one-second mono take with kick hits starting at
// the given sample offsets.
func takeWithKicks(offsets ...int) []float64 {
	samples := utils.Silence(int(testRate))
	for _, offset := range offsets {
		hit := utils.KickHit(testFrameSize, testRate)
		copy(samples[offset:], hit)
	}
	return samples
}

func TestReplayDetectsKicks(t *testing.T) {
	// Two hits aligned to frame boundaries, half a second apart.
	secondHit := 22 * testFrameSize
	samples := takeWithKicks(0, secondHit)
	start := time.Now()

	deb := detect.New(detect.Config{MinConfidence: 0.5})
	got, err := Replay(samples, testRate, testFrameSize, classify.NewHeuristic(classify.HeuristicConfig{}), deb, start)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("detections = %d, want 2", len(got))
	}
	for i, d := range got {
		if d.Class != classify.Kick {
			t.Errorf("detection %d = %q, want kick", i, d.Class)
		}
	}
	if !got[0].Time.Equal(start) {
		t.Errorf("first detection at %v, want the take start", got[0].Time)
	}
	wantGap := time.Duration(float64(secondHit) / testRate * float64(time.Second))
	if gap := got[1].Time.Sub(got[0].Time); absDuration(gap-wantGap) > time.Millisecond {
		t.Errorf("detection gap = %v, want %v", gap, wantGap)
	}
}

func TestReplayDebouncesAdjacentFrames(t *testing.T) {
	// Hits in consecutive frames are one physical hit ringing out.
	samples := takeWithKicks(0, testFrameSize)

	deb := detect.New(detect.Config{MinConfidence: 0.5})
	got, err := Replay(samples, testRate, testFrameSize, classify.NewHeuristic(classify.HeuristicConfig{}), deb, time.Now())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("detections = %d, want 1 after debouncing", len(got))
	}
}

func TestReplayTrailingPartialFrame(t *testing.T) {
	// A hit that only half fills the last frame still counts.
	samples := append(utils.Silence(testFrameSize), utils.KickHit(testFrameSize/2, testRate)...)

	deb := detect.New(detect.Config{MinConfidence: 0.5})
	got, err := Replay(samples, testRate, testFrameSize, classify.NewHeuristic(classify.HeuristicConfig{}), deb, time.Now())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("detections = %d, want 1 from the partial frame", len(got))
	}
	if got[0].Class != classify.Kick {
		t.Errorf("detected %q, want kick", got[0].Class)
	}
}

func TestReplayEmptyTake(t *testing.T) {
	deb := detect.New(detect.Config{})
	got, err := Replay(nil, testRate, testFrameSize, classify.NewHeuristic(classify.HeuristicConfig{}), deb, time.Now())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("detections = %d, want 0 for an empty take", len(got))
	}
}

func TestReplayNotReadyClassifier(t *testing.T) {
	deb := detect.New(detect.Config{})
	_, err := Replay(utils.Silence(testFrameSize), testRate, testFrameSize, notReady{}, deb, time.Now())
	if !errors.Is(err, classify.ErrModelNotReady) {
		t.Errorf("expected ErrModelNotReady, got %v", err)
	}
}

func TestReplayBadExtractorConfig(t *testing.T) {
	deb := detect.New(detect.Config{})
	clf := classify.NewHeuristic(classify.HeuristicConfig{})

	if _, err := Replay(utils.Silence(100), testRate, 1000, clf, deb, time.Now()); err == nil {
		t.Error("non power-of-two frame size must be rejected")
	}
	if _, err := Replay(utils.Silence(100), -1, testFrameSize, clf, deb, time.Now()); err == nil {
		t.Error("negative rate must be rejected")
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
