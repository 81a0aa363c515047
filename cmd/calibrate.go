// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/calibrate"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/wavio"
)

func newCalibrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate <silence.wav>",
		Short: "Measure the noise floor of a silent room recording and suggest thresholds",
		Long: `Analyzes a recording of your room with no drums playing and reports the
noise floor, then suggests gate and confidence settings to merge into your
config file. Record ten seconds or more of silence for a stable estimate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCalibrate(cfg.Audio.FrameSize, args[0], cfg.Detection.FeatureBands())
		},
	}
}

func runCalibrate(frameSize int, path string, bands []dsp.Band) error {
	samples, rate, err := wavio.ReadMono(path)
	if err != nil {
		return err
	}
	applog.Infof("Loaded %s: %d samples at %.0f Hz (%.1fs)",
		path, len(samples), rate, float64(len(samples))/rate)

	report, err := calibrate.Analyze(samples, rate, calibrate.Options{
		FrameSize: frameSize,
		Bands:     bands,
	})
	if err != nil {
		return err
	}

	fmt.Print(report)

	fragment, err := yaml.Marshal(report.Suggested())
	if err != nil {
		return fmt.Errorf("failed to render suggested settings: %w", err)
	}
	fmt.Printf("\nSuggested settings (merge into your config file):\n%s", fragment)
	return nil
}
