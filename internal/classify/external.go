// SPDX-License-Identifier: MIT
package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
)

// remapRule maps a lowercase label fragment onto a drum class.
type remapRule struct {
	fragment string
	class    Class
}

// External adapts a pretrained model with an arbitrary label space onto the
// four drum classes. Remapping is case-insensitive: a model label is claimed
// by the first table entry it equals, then by the longest entry it contains.
// Labels no entry claims are dropped silently; a frame whose predictions are
// all unmapped is simply not a detection.
type External struct {
	model LabelModel
	rules []remapRule
}

var _ Classifier = (*External)(nil)

// NewExternal wraps model with the given remap table. An empty table falls
// back to DefaultLabelMap.
func NewExternal(model LabelModel, remap map[string]Class) (*External, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no external model supplied", ErrModelNotReady)
	}
	if len(remap) == 0 {
		remap = DefaultLabelMap()
	}
	rules := make([]remapRule, 0, len(remap))
	for fragment, class := range remap {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if fragment == "" || Index(class) < 0 {
			return nil, fmt.Errorf("invalid label mapping %q -> %q", fragment, class)
		}
		rules = append(rules, remapRule{fragment: fragment, class: class})
	}
	// Longest fragment first, so "open hi-hat" wins over "hi-hat"; name
	// order second so matching stays deterministic.
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].fragment) == len(rules[j].fragment) {
			return rules[i].fragment < rules[j].fragment
		}
		return len(rules[i].fragment) > len(rules[j].fragment)
	})
	return &External{model: model, rules: rules}, nil
}

// DefaultLabelMap covers label names common in general-purpose audio
// taggers.
func DefaultLabelMap() map[string]Class {
	return map[string]Class{
		"bass drum":     Kick,
		"kick":          Kick,
		"snare":         Snare,
		"rimshot":       Snare,
		"open hi-hat":   OpenHat,
		"open hihat":    OpenHat,
		"hi-hat":        HiHat,
		"hihat":         HiHat,
		"closed cymbal": HiHat,
	}
}

func (e *External) Name() string { return "external" }

func (e *External) Ready() bool { return e.model != nil }

// Classify feeds the raw samples to the wrapped model and folds its label
// scores onto drum classes. Scores keep their absolute scale: external
// confidences are calibrated by the model, not renormalized here, so the
// debouncer threshold stays meaningful.
func (e *External) Classify(frame *dsp.Frame, _ *dsp.Features) (Result, error) {
	if frame == nil {
		return Result{}, fmt.Errorf("external: nil frame")
	}
	preds, err := e.model.Infer(frame.Samples, frame.Rate)
	if err != nil {
		return Result{}, fmt.Errorf("external %s: %w", e.model.Describe(), err)
	}

	acc := map[Class]float64{}
	for _, p := range preds {
		class, ok := e.remapLabel(p.Label)
		if !ok || p.Score <= 0 {
			continue
		}
		acc[class] += p.Score
	}
	if len(acc) == 0 {
		return Result{}, nil
	}

	scores := make([]Score, 0, len(acc))
	for c, v := range acc {
		if v > 1 {
			v = 1
		}
		scores = append(scores, Score{Class: c, Probability: v})
	}
	sortScores(scores)
	return Result{Scores: scores, Best: scores[0].Class, Confidence: scores[0].Probability}, nil
}

func (e *External) remapLabel(label string) (Class, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return None, false
	}
	for _, r := range e.rules {
		if r.fragment == l {
			return r.class, true
		}
	}
	for _, r := range e.rules {
		if strings.Contains(l, r.fragment) {
			return r.class, true
		}
	}
	return None, false
}
