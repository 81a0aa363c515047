// SPDX-License-Identifier: MIT
//
// Package cmd wires the command line surface: flag parsing, configuration
// merging and the listen, score, calibrate and devices subcommands.
//
// Configuration precedence, lowest to highest: compiled-in defaults, YAML
// file, DRUMVISION_* environment variables, explicitly set flags.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/build"
)

// Persistent flag values. Only flags the user actually set override the
// configuration file; the rest keep whatever the file or defaults say.
var (
	flagConfig     string
	flagDevice     int
	flagSampleRate float64
	flagFrameSize  int
	flagStrategy   string
	flagModelPath  string
	flagMinConf    float64
	flagBPM        float64
	flagVerbose    bool
)

// NewRootCommand assembles the CLI.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Configuration source
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Path to YAML configuration file")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&flagDevice, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&flagSampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&flagFrameSize, "frame-size", "b", config.DefaultFrameSize,
		"Samples per analysis frame (power of two, affects latency)")

	// Detection configuration
	rootCmd.PersistentFlags().StringVar(&flagStrategy, "strategy", config.DefaultStrategy,
		"Classifier strategy: heuristic, trained or external")
	rootCmd.PersistentFlags().StringVar(&flagModelPath, "model", "",
		"Weights artifact for the trained strategy")
	rootCmd.PersistentFlags().Float64Var(&flagMinConf, "min-confidence", 0,
		"Detection confidence floor (0 selects the strategy default)")

	// Practice configuration
	rootCmd.PersistentFlags().Float64Var(&flagBPM, "bpm", config.DefaultBPM,
		"Practice grid tempo in beats per minute")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.AddCommand(
		newListenCommand(),
		newScoreCommand(),
		newCalibrateCommand(),
		newDevicesCommand(),
	)
	return rootCmd
}

// loadConfig builds the effective configuration for one command run and
// applies the resulting log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice = flagDevice
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = flagSampleRate
	}
	if flags.Changed("frame-size") {
		cfg.Audio.FrameSize = flagFrameSize
	}
	if flags.Changed("strategy") {
		cfg.Detection.Strategy = flagStrategy
	}
	if flags.Changed("model") {
		cfg.Detection.ModelPath = flagModelPath
	}
	if flags.Changed("min-confidence") {
		cfg.Detection.MinConfidence = flagMinConf
	}
	if flags.Changed("bpm") {
		cfg.Practice.BPM = flagBPM
	}
	if flags.Changed("verbose") && flagVerbose {
		cfg.Debug = true
	}

	// Flags can push values outside the ranges the file load already
	// checked, so validate the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if lvl, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(lvl)
	}
	return cfg, nil
}

// Execute parses the command line and runs the selected command.
func Execute() error {
	return NewRootCommand().Execute()
}
