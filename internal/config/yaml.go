// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/bitint"
)

// envPrefix namespaces the environment overrides.
const envPrefix = "DRUMVISION_"

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("drumvision.yaml", "config.yaml").
// If no file is found, it uses built-in defaults. After loading defaults or
// from file, it applies environment variable overrides and validates the
// final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"drumvision.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides apply AFTER the file so they win.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides replaces individual fields from DRUMVISION_* variables.
// Unparseable values are ignored, keeping whatever the file or defaults set.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv(envPrefix + "DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Debugf("config: overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Debugf("config: overriding log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv(envPrefix + "INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
			log.Debugf("config: overriding audio.input_device from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
			log.Debugf("config: overriding audio.sample_rate from env: %g", fVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "FRAME_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.FrameSize = iVal
			log.Debugf("config: overriding audio.frame_size from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "STRATEGY"); ok {
		cfg.Detection.Strategy = val
		log.Debugf("config: overriding detection.strategy from env: %s", val)
	}
	if val, ok := os.LookupEnv(envPrefix + "MODEL_PATH"); ok {
		cfg.Detection.ModelPath = val
		log.Debugf("config: overriding detection.model_path from env: %s", val)
	}
	if val, ok := os.LookupEnv(envPrefix + "MIN_CONFIDENCE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Detection.MinConfidence = fVal
			log.Debugf("config: overriding detection.min_confidence from env: %g", fVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "BPM"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Practice.BPM = fVal
			log.Debugf("config: overriding practice.bpm from env: %g", fVal)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "MONITOR_ADDR"); ok {
		cfg.Monitor.Addr = val
		log.Debugf("config: overriding monitor.addr from env: %s", val)
	}
	if val, ok := os.LookupEnv(envPrefix + "UDP_TARGET"); ok {
		cfg.Monitor.UDPTarget = val
		log.Debugf("config: overriding monitor.udp_target from env: %s", val)
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
// Errors name the offending field in file notation ("audio.sample_rate").
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}

	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device: %d is not a device index (-1 selects the default)", c.Audio.InputDevice)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate: %g outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FrameSize <= 0 || c.Audio.FrameSize > MaxFrameSize {
		return fmt.Errorf("audio.frame_size: %d outside (0, %d]", c.Audio.FrameSize, MaxFrameSize)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FrameSize) {
		return fmt.Errorf("audio.frame_size: %d is not a power of 2", c.Audio.FrameSize)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > MaxChannels {
		return fmt.Errorf("audio.channels: %d outside [1, %d]", c.Audio.Channels, MaxChannels)
	}
	if c.Audio.OpenTimeoutMs <= 0 {
		return fmt.Errorf("audio.open_timeout_ms: must be positive, got %d", c.Audio.OpenTimeoutMs)
	}
	if c.Audio.GateThreshold < 0 || c.Audio.GateThreshold > 1 {
		return fmt.Errorf("audio.gate_threshold: %g outside [0, 1]", c.Audio.GateThreshold)
	}
	if _, err := dsp.ParseWindow(c.Audio.Window); err != nil {
		return fmt.Errorf("audio.fft_window: %w", err)
	}

	switch c.Detection.Strategy {
	case StrategyHeuristic:
	case StrategyTrained:
		if c.Detection.ModelPath == "" {
			return fmt.Errorf("detection.model_path: required for the %q strategy", StrategyTrained)
		}
	case StrategyExternal:
		if c.Detection.ExternalModel == "" {
			return fmt.Errorf("detection.external_model: required for the %q strategy", StrategyExternal)
		}
	default:
		return fmt.Errorf("detection.strategy: unknown strategy %q", c.Detection.Strategy)
	}
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection.min_confidence: %g outside [0, 1]", c.Detection.MinConfidence)
	}
	if c.Detection.GlobalGapMs < 0 {
		return fmt.Errorf("detection.global_gap_ms: must be non-negative, got %d", c.Detection.GlobalGapMs)
	}
	if c.Detection.ClassCooldownMs < 0 {
		return fmt.Errorf("detection.class_cooldown_ms: must be non-negative, got %d", c.Detection.ClassCooldownMs)
	}
	if c.Detection.HistoryMax <= 0 {
		return fmt.Errorf("detection.history_max: must be positive, got %d", c.Detection.HistoryMax)
	}
	if c.Detection.HistoryAgeMs <= 0 {
		return fmt.Errorf("detection.history_age_ms: must be positive, got %d", c.Detection.HistoryAgeMs)
	}
	if c.Detection.RMSFloor < 0 {
		return fmt.Errorf("detection.rms_floor: must be non-negative, got %g", c.Detection.RMSFloor)
	}
	if c.Detection.HatZCR <= 0 {
		return fmt.Errorf("detection.hat_zcr: must be positive, got %g", c.Detection.HatZCR)
	}
	if c.Detection.OpenHatAirRatio < 0 || c.Detection.OpenHatAirRatio > 1 {
		return fmt.Errorf("detection.openhat_air_ratio: %g outside [0, 1]", c.Detection.OpenHatAirRatio)
	}
	for i, b := range c.Detection.Bands {
		if b.Name == "" {
			return fmt.Errorf("detection.bands[%d].name: must not be empty", i)
		}
		if b.LowHz < 0 {
			return fmt.Errorf("detection.bands[%d].low_hz: must be non-negative, got %g", i, b.LowHz)
		}
		if b.HighHz != 0 && b.HighHz <= b.LowHz {
			return fmt.Errorf("detection.bands[%d]: high_hz %g not above low_hz %g", i, b.HighHz, b.LowHz)
		}
	}

	if c.Practice.BPM <= 0 || c.Practice.BPM > MaxBPM {
		return fmt.Errorf("practice.bpm: %g outside (0, %d]", c.Practice.BPM, MaxBPM)
	}
	if c.Practice.StepsPerBeat < 1 || c.Practice.StepsPerBeat > MaxStepsPerBeat {
		return fmt.Errorf("practice.steps_per_beat: %d outside [1, %d]", c.Practice.StepsPerBeat, MaxStepsPerBeat)
	}
	if c.Practice.ToleranceMs < 0 {
		return fmt.Errorf("practice.tolerance_ms: must be non-negative, got %d", c.Practice.ToleranceMs)
	}
	if _, err := c.Practice.Target(); err != nil {
		return fmt.Errorf("practice.pattern: %w", err)
	}

	switch c.Monitor.Transport {
	case TransportWebSocket, TransportUDP, TransportLog:
	default:
		return fmt.Errorf("monitor.transport: unknown transport %q", c.Monitor.Transport)
	}
	if c.Monitor.Enabled {
		if c.Monitor.Transport == TransportWebSocket && c.Monitor.Addr == "" {
			return fmt.Errorf("monitor.addr: required for the %q transport", TransportWebSocket)
		}
		if c.Monitor.Transport == TransportUDP && !strings.Contains(c.Monitor.UDPTarget, ":") {
			return fmt.Errorf("monitor.udp_target: %q appears invalid (missing port?)", c.Monitor.UDPTarget)
		}
		if c.Monitor.SendIntervalMs < MinSendIntervalMs {
			return fmt.Errorf("monitor.send_interval_ms: must be at least %d, got %d", MinSendIntervalMs, c.Monitor.SendIntervalMs)
		}
	}

	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		return fmt.Errorf("recording.output_dir: required when recording is enabled")
	}

	return nil
}
