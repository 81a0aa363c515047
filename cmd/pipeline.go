// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/practice"
)

// buildClassifier resolves the configured strategy. A trained or external
// strategy whose artifact is missing falls back to the heuristic with a
// warning, so a missing file degrades the session instead of refusing it.
func buildClassifier(d config.DetectionConfig) (classify.Classifier, error) {
	heuristic := classify.NewHeuristic(classify.HeuristicConfig{
		RMSFloor:        d.RMSFloor,
		HatZCR:          d.HatZCR,
		OpenHatAirRatio: d.OpenHatAirRatio,
	})

	switch d.Strategy {
	case config.StrategyTrained:
		net, err := classify.LoadFFNet(d.ModelPath)
		if err != nil {
			if errors.Is(err, classify.ErrModelNotReady) {
				applog.Warnf("Classifier: %v; falling back to heuristic", err)
				return heuristic, nil
			}
			return nil, err
		}
		applog.Infof("Classifier: trained network from %s (%d inputs)", d.ModelPath, net.Inputs())
		return net, nil

	case config.StrategyExternal:
		model, err := classify.NewRegisteredModel(d.ExternalModel)
		if err != nil {
			if errors.Is(err, classify.ErrModelNotReady) {
				applog.Warnf("Classifier: %v; falling back to heuristic", err)
				return heuristic, nil
			}
			return nil, err
		}
		remap := make(map[string]classify.Class, len(d.LabelMap))
		for label, name := range d.LabelMap {
			class, ok := classify.ParseClass(name)
			if !ok {
				return nil, fmt.Errorf("label_map: %q is not a drum class", name)
			}
			remap[label] = class
		}
		applog.Infof("Classifier: external model %q", d.ExternalModel)
		return classify.NewExternal(model, remap)

	default:
		return heuristic, nil
	}
}

// buildDebouncer maps the detection config onto the debouncer.
func buildDebouncer(d config.DetectionConfig) *detect.Debouncer {
	return detect.New(detect.Config{
		MinConfidence: d.EffectiveMinConfidence(),
		GlobalGap:     d.GlobalGap(),
		ClassCooldown: d.ClassCooldown(),
		MaxHistory:    d.HistoryMax,
		MaxAge:        d.HistoryAge(),
	})
}

// printReport renders a finished take: target grid, played grid, hit counts
// and the timing breakdown.
func printReport(s *practice.Session) {
	stats := s.Score()

	fmt.Printf("\nSession %s\n\n", s.ID)
	fmt.Printf("Target:\n%s\n", s.Target)
	fmt.Printf("Played:\n%s\n", s.Detected())
	fmt.Printf("Hits: %d/%d (%.1f%%)\n", stats.Correct, stats.TotalExpected, stats.Accuracy)
	fmt.Printf("Timing: %d early / %d on time / %d late, %d false positives\n",
		stats.Early, stats.OnTime, stats.Late, stats.FalsePositives)
}
