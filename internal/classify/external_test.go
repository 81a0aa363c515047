// SPDX-License-Identifier: MIT
package classify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
)

type fakeModel struct {
	preds []LabelScore
	err   error
	calls int
}

func (m *fakeModel) Describe() string { return "fake" }

func (m *fakeModel) Infer(samples []float64, rate float64) ([]LabelScore, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.preds, nil
}

func testExternalFrame() *dsp.Frame {
	return &dsp.Frame{Samples: make([]float64, 64), Rate: 44100, Time: time.Unix(0, 0)}
}

func TestExternalRemapsLabels(t *testing.T) {
	tests := []struct {
		desc  string
		preds []LabelScore
		remap map[string]Class
		want  Class
	}{
		{
			desc:  "exact match is case-insensitive",
			preds: []LabelScore{{Label: "Bass Drum", Score: 0.8}},
			remap: map[string]Class{"bass drum": Kick},
			want:  Kick,
		},
		{
			desc:  "substring match",
			preds: []LabelScore{{Label: "Acoustic Bass Drum (low)", Score: 0.8}},
			remap: map[string]Class{"bass drum": Kick},
			want:  Kick,
		},
		{
			desc:  "longest fragment wins over generic one",
			preds: []LabelScore{{Label: "Open Hi-Hat", Score: 0.9}},
			remap: nil, // default table
			want:  OpenHat,
		},
		{
			desc: "scores aggregate per class",
			preds: []LabelScore{
				{Label: "Kick drum", Score: 0.3},
				{Label: "Bass drum", Score: 0.4},
				{Label: "Snare drum", Score: 0.5},
			},
			remap: nil,
			want:  Kick,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ext, err := NewExternal(&fakeModel{preds: tt.preds}, tt.remap)
			if err != nil {
				t.Fatalf("NewExternal: %v", err)
			}
			res, err := ext.Classify(testExternalFrame(), nil)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if res.Best != tt.want {
				t.Errorf("Best = %s, want %s (scores %+v)", res.Best, tt.want, res.Scores)
			}
		})
	}
}

func TestExternalKeepsAbsoluteConfidence(t *testing.T) {
	ext, err := NewExternal(&fakeModel{preds: []LabelScore{{Label: "snare", Score: 0.42}}}, nil)
	if err != nil {
		t.Fatalf("NewExternal: %v", err)
	}
	res, err := ext.Classify(testExternalFrame(), nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Confidence != 0.42 {
		t.Errorf("Confidence = %v, want the model's own 0.42", res.Confidence)
	}
}

func TestExternalClampsAggregates(t *testing.T) {
	ext, err := NewExternal(&fakeModel{preds: []LabelScore{
		{Label: "kick", Score: 0.7},
		{Label: "bass drum", Score: 0.6},
	}}, nil)
	if err != nil {
		t.Fatalf("NewExternal: %v", err)
	}
	res, err := ext.Classify(testExternalFrame(), nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Confidence > 1 {
		t.Errorf("Confidence = %v, want clamped to 1", res.Confidence)
	}
}

func TestExternalDropsUnmappedLabels(t *testing.T) {
	ext, err := NewExternal(&fakeModel{preds: []LabelScore{
		{Label: "Electric Guitar", Score: 0.9},
		{Label: "Speech", Score: 0.8},
	}}, nil)
	if err != nil {
		t.Fatalf("NewExternal: %v", err)
	}
	res, err := ext.Classify(testExternalFrame(), nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Detected() {
		t.Errorf("unmapped labels produced class %s", res.Best)
	}
}

func TestExternalInferenceErrorIsPerFrame(t *testing.T) {
	ext, err := NewExternal(&fakeModel{err: fmt.Errorf("runtime hiccup")}, nil)
	if err != nil {
		t.Fatalf("NewExternal: %v", err)
	}
	if _, err := ext.Classify(testExternalFrame(), nil); err == nil {
		t.Error("Classify expected inference error")
	}
}

func TestExternalConstruction(t *testing.T) {
	t.Run("nil model", func(t *testing.T) {
		_, err := NewExternal(nil, nil)
		if !errors.Is(err, ErrModelNotReady) {
			t.Errorf("error = %v, want ErrModelNotReady", err)
		}
	})

	t.Run("invalid mapping target", func(t *testing.T) {
		_, err := NewExternal(&fakeModel{}, map[string]Class{"drum": "cowbell"})
		if err == nil {
			t.Error("expected error for unknown target class")
		}
	})

	t.Run("empty fragment", func(t *testing.T) {
		_, err := NewExternal(&fakeModel{}, map[string]Class{"  ": Kick})
		if err == nil {
			t.Error("expected error for empty fragment")
		}
	})

	t.Run("nil frame", func(t *testing.T) {
		ext, err := NewExternal(&fakeModel{}, nil)
		if err != nil {
			t.Fatalf("NewExternal: %v", err)
		}
		if _, err := ext.Classify(nil, nil); err == nil {
			t.Error("Classify(nil frame) expected error")
		}
	})
}

func TestLabelModelRegistry(t *testing.T) {
	RegisterLabelModel("test-model", func() (LabelModel, error) {
		return &fakeModel{preds: []LabelScore{{Label: "kick", Score: 0.9}}}, nil
	})

	model, err := NewRegisteredModel("test-model")
	if err != nil {
		t.Fatalf("NewRegisteredModel: %v", err)
	}
	if model.Describe() != "fake" {
		t.Errorf("Describe = %q", model.Describe())
	}

	if _, err := NewRegisteredModel("absent"); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("unknown model error = %v, want ErrModelNotReady", err)
	}

	RegisterLabelModel("failing-model", func() (LabelModel, error) {
		return nil, fmt.Errorf("weights missing")
	})
	if _, err := NewRegisteredModel("failing-model"); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("factory failure error = %v, want ErrModelNotReady", err)
	}
}
