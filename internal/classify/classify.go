// SPDX-License-Identifier: MIT
/*
Package classify decides which drum voice produced an audio frame. Every
strategy implements the same Classifier interface over the shared feature
vector:

  - Heuristic: hand-tuned band-ratio rules, no model artifact, always ready
  - FFNet: a small feed-forward network over mel cepstra, loaded from a JSON
    weights artifact
  - External: an adapter around a pretrained third-party model with its own
    label space, remapped onto the four drum classes

A classifier reports ranked per-class probabilities plus a scalar confidence.
"Nothing recognizable" is the zero Result, never an error; errors mark
skippable per-frame failures only.
*/
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
)

// Class identifies one of the four drum voices the pipeline recognizes.
type Class string

const (
	Kick    Class = "kick"
	Snare   Class = "snare"
	HiHat   Class = "hihat"
	OpenHat Class = "openhat"

	// None marks a frame with no confident class.
	None Class = ""
)

// Classes returns the recognized classes in canonical order. The order also
// fixes the class indices used by binary transports.
func Classes() []Class {
	return []Class{Kick, Snare, HiHat, OpenHat}
}

// Index returns the canonical position of c, or -1 for unknown classes.
func Index(c Class) int {
	for i, k := range Classes() {
		if k == c {
			return i
		}
	}
	return -1
}

// ParseClass resolves a class name case-insensitively.
func ParseClass(s string) (Class, bool) {
	c := Class(strings.ToLower(strings.TrimSpace(s)))
	if Index(c) < 0 {
		return None, false
	}
	return c, true
}

// ErrModelNotReady reports a classifier whose model artifact is missing or
// unloadable. Listening must not start on a not-ready classifier; callers
// fall back to the heuristic strategy instead.
var ErrModelNotReady = errors.New("classifier model not ready")

// Score is one ranked class probability.
type Score struct {
	Class       Class   `json:"class"`
	Probability float64 `json:"probability"`
}

// Result is the ranked classification of one frame. The zero value means "no
// confident class".
type Result struct {
	Scores     []Score `json:"scores,omitempty"` // descending probability
	Best       Class   `json:"best"`
	Confidence float64 `json:"confidence"`
}

// Detected reports whether the frame was attributed to any class at all.
// Thresholding against a confidence floor is the debouncer's job.
func (r Result) Detected() bool {
	return r.Best != None
}

// Classifier turns one frame plus its feature vector into a ranked Result.
// Implementations must be deterministic and side-effect-free per call;
// Classify runs on the pipeline's single processing goroutine.
type Classifier interface {
	// Name identifies the strategy in logs.
	Name() string
	// Ready reports whether the strategy can classify right now.
	Ready() bool
	// Classify inspects one frame. Strategies choose their input: rule
	// cascades read feats, networks read feats.MFCC, external models read
	// frame.Samples directly.
	Classify(frame *dsp.Frame, feats *dsp.Features) (Result, error)
}

// rankResult turns raw non-negative per-class evidence into a normalized,
// ranked Result. Ties break on class name so ranking stays deterministic.
// Zero total evidence yields the zero Result.
func rankResult(evidence map[Class]float64) Result {
	total := 0.0
	for _, v := range evidence {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return Result{}
	}
	scores := make([]Score, 0, len(evidence))
	for c, v := range evidence {
		if v < 0 {
			v = 0
		}
		scores = append(scores, Score{Class: c, Probability: v / total})
	}
	sortScores(scores)
	return Result{Scores: scores, Best: scores[0].Class, Confidence: scores[0].Probability}
}

func sortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Probability == scores[j].Probability {
			return scores[i].Class < scores[j].Class
		}
		return scores[i].Probability > scores[j].Probability
	})
}

// --- External model registry ---

// LabelScore is one prediction in an external model's own label space.
type LabelScore struct {
	Label string
	Score float64
}

// LabelModel is the minimal surface of a pretrained third-party audio
// classifier. Loading and runtime details stay behind the implementation.
type LabelModel interface {
	// Describe names the model for logs.
	Describe() string
	// Infer scores the given mono samples. Labels are the model's own.
	Infer(samples []float64, rate float64) ([]LabelScore, error)
}

// LabelModelFactory constructs a LabelModel on demand.
type LabelModelFactory func() (LabelModel, error)

var (
	modelsMu sync.RWMutex
	models   = map[string]LabelModelFactory{}
)

// RegisterLabelModel makes a pretrained model available to the external
// strategy under the given name. Model-bearing builds call this from init().
func RegisterLabelModel(name string, factory LabelModelFactory) {
	modelsMu.Lock()
	defer modelsMu.Unlock()
	models[name] = factory
}

// NewRegisteredModel instantiates a previously registered model.
func NewRegisteredModel(name string) (LabelModel, error) {
	modelsMu.RLock()
	factory, ok := models[name]
	modelsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no external model registered as %q", ErrModelNotReady, name)
	}
	model, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: constructing %q: %v", ErrModelNotReady, name, err)
	}
	return model, nil
}
