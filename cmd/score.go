// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/engine"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/practice"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/wavio"
)

func newScoreCommand() *cobra.Command {
	var (
		flagStepsPerBeat int
		flagToleranceMs  int
	)

	cmd := &cobra.Command{
		Use:   "score <take.wav>",
		Short: "Score a recorded practice take against the configured pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("steps-per-beat") {
				cfg.Practice.StepsPerBeat = flagStepsPerBeat
			}
			if flags.Changed("tolerance-ms") {
				cfg.Practice.ToleranceMs = flagToleranceMs
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runScore(cfg, args[0])
		},
	}

	cmd.Flags().IntVar(&flagStepsPerBeat, "steps-per-beat", config.DefaultStepsPerBeat,
		"Grid resolution: steps per beat (4 = sixteenth notes)")
	cmd.Flags().IntVar(&flagToleranceMs, "tolerance-ms", config.DefaultToleranceMs,
		"On-time window half-width in milliseconds")
	return cmd
}

// runScore replays a WAV take through the detection pipeline with file-clock
// timestamps and scores the detections against the target pattern.
func runScore(cfg *config.Config, path string) error {
	samples, rate, err := wavio.ReadMono(path)
	if err != nil {
		return err
	}
	applog.Infof("Loaded %s: %d samples at %.0f Hz (%.1fs)",
		path, len(samples), rate, float64(len(samples))/rate)

	clf, err := buildClassifier(cfg.Detection)
	if err != nil {
		return err
	}

	target, err := cfg.Practice.Target()
	if err != nil {
		return err
	}
	stepDur, err := cfg.Practice.StepDuration()
	if err != nil {
		return err
	}

	// The take's first sample anchors both the replay clock and the grid,
	// so step zero is the start of the file.
	start := time.Now()
	detections, err := engine.Replay(samples, rate, cfg.Audio.FrameSize, clf, buildDebouncer(cfg.Detection), start)
	if err != nil {
		return err
	}

	session, err := practice.NewSession(target, stepDur, cfg.Practice.Tolerance(), start)
	if err != nil {
		return err
	}
	session.AddAll(detections)
	session.Stop()

	fmt.Printf("Detected %d drum events in %s\n", len(detections), path)
	printReport(session)
	return nil
}
