// SPDX-License-Identifier: MIT
//
// Package config carries the application configuration: defaults, YAML file
// loading, DRUMVISION_* environment overrides and validation. Precedence is
// defaults, then file, then environment; the CLI merges flags on top.
package config

import (
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/pattern"
)

// Core configuration constants that define the boundaries and defaults
// for the detection pipeline.
const (
	DefaultLogLevel = "info"

	// Audio capture defaults
	DefaultChannels      = 1           // Mono audio
	DefaultDeviceID      = MinDeviceID // Default to system default device
	DefaultFrameSize     = 1024        // ~23ms hop at 44.1kHz
	DefaultSampleRate    = 44100       // CD-quality audio
	DefaultOpenTimeoutMs = 3000        // Stream open deadline
	DefaultWindow        = "hann"

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFrameSize  = 8192   // Maximum frame size (power of 2)
	MaxChannels   = 8

	// Detection defaults. The confidence floor is per strategy: heuristic
	// evidence is a normalized band ratio, while the trained and external
	// strategies emit calibrated probabilities and can run lower floors.
	DefaultStrategy              = StrategyHeuristic
	DefaultMinConfidence         = 0.55
	DefaultTrainedMinConfidence  = 0.35
	DefaultExternalMinConfidence = 0.30
	DefaultGlobalGapMs           = 100
	DefaultClassCooldownMs       = 180
	DefaultHistoryMax            = 50
	DefaultHistoryAgeMs          = 10000
	DefaultRMSFloor              = 0.02
	DefaultHatZCR                = 0.12
	DefaultOpenHatAirRatio       = 0.5

	// Practice grid defaults
	DefaultBPM          = 120
	DefaultStepsPerBeat = 4 // Sixteenth-note steps
	DefaultToleranceMs  = 100
	MaxBPM              = 400
	MaxStepsPerBeat     = 8

	// Monitor defaults
	DefaultMonitorTransport = TransportWebSocket
	DefaultMonitorAddr      = ":8080"
	DefaultUDPTarget        = "127.0.0.1:9090"
	DefaultSendIntervalMs   = 100
	MinSendIntervalMs       = 10

	// Recording defaults
	DefaultRecordingDir = "takes"
)

// Classifier strategy names accepted by detection.strategy.
const (
	StrategyHeuristic = "heuristic"
	StrategyTrained   = "trained"
	StrategyExternal  = "external"
)

// Monitor transport names accepted by monitor.transport.
const (
	TransportWebSocket = "websocket"
	TransportUDP       = "udp"
	TransportLog       = "log"
)

// Config is the root application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Capture and spectral front-end settings.
	Detection DetectionConfig `yaml:"detection"` // Classification and debouncing settings.
	Practice  PracticeConfig  `yaml:"practice"`  // Target groove and scoring settings.
	Monitor   MonitorConfig   `yaml:"monitor"`   // Live status feed settings.
	Recording RecordingConfig `yaml:"recording"` // Capture-to-WAV tee settings.
}

// AudioConfig holds settings for the input stream and feature extraction.
type AudioConfig struct {
	InputDevice   int     `yaml:"input_device"`    // PortAudio device index (-1 for default).
	SampleRate    float64 `yaml:"sample_rate"`     // Sample rate in Hz (e.g., 44100, 48000).
	FrameSize     int     `yaml:"frame_size"`      // Samples per analysis frame (power of 2).
	Channels      int     `yaml:"channels"`        // Input channels to capture (downmixed to mono).
	LowLatency    bool    `yaml:"low_latency"`     // Request low latency settings from the device.
	OpenTimeoutMs int     `yaml:"open_timeout_ms"` // Give up opening the stream after this long.
	GateThreshold float64 `yaml:"gate_threshold"`  // Skip frames whose peak is below this (0 disables).
	Window        string  `yaml:"fft_window"`      // Window function for analysis ("hann", "hamming", ...).
}

// DetectionConfig holds classification and debouncing settings.
type DetectionConfig struct {
	Strategy        string            `yaml:"strategy"`            // "heuristic", "trained" or "external".
	ModelPath       string            `yaml:"model_path"`          // Weights file for the trained strategy.
	ExternalModel   string            `yaml:"external_model"`      // Registered model name for the external strategy.
	LabelMap        map[string]string `yaml:"label_map,omitempty"` // External label to class remapping.
	MinConfidence   float64           `yaml:"min_confidence"`      // Detection floor; 0 selects the strategy default.
	GlobalGapMs     int               `yaml:"global_gap_ms"`       // Minimum spacing between any two detections.
	ClassCooldownMs int               `yaml:"class_cooldown_ms"`   // Minimum spacing between same-class detections.
	HistoryMax      int               `yaml:"history_max"`         // Rolling history count bound.
	HistoryAgeMs    int               `yaml:"history_age_ms"`      // Rolling history age bound.
	RMSFloor        float64           `yaml:"rms_floor"`           // Heuristic noise floor.
	HatZCR          float64           `yaml:"hat_zcr"`             // Heuristic ZCR where hat evidence saturates.
	OpenHatAirRatio float64           `yaml:"openhat_air_ratio"`   // Air-band share that flips hihat to openhat.
	Bands           []BandConfig      `yaml:"bands,omitempty"`     // Analysis bands; empty selects the defaults.
}

// BandConfig is one analysis band. HighHz 0 means "up to Nyquist".
type BandConfig struct {
	Name   string  `yaml:"name"`
	LowHz  float64 `yaml:"low_hz"`
	HighHz float64 `yaml:"high_hz"`
}

// PracticeConfig describes the target groove. Pattern rows use grid
// notation, one rune per step: "x---x---x---x---".
type PracticeConfig struct {
	BPM          float64           `yaml:"bpm"`
	StepsPerBeat int               `yaml:"steps_per_beat"`
	ToleranceMs  int               `yaml:"tolerance_ms"`
	Pattern      map[string]string `yaml:"pattern,omitempty"`
}

// MonitorConfig controls the live status feed for external UIs.
type MonitorConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Transport      string `yaml:"transport"`        // "websocket", "udp" or "log".
	Addr           string `yaml:"addr"`             // WebSocket listen address.
	UDPTarget      string `yaml:"udp_target"`       // UDP target address and port.
	SendIntervalMs int    `yaml:"send_interval_ms"` // Snapshot spacing.
}

// RecordingConfig controls the capture-to-WAV tee.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

// NewConfig creates a Config with default values: heuristic detection of a
// basic rock groove at 120 BPM on the system default input. This is the base
// configuration before applying a file, environment or command line flags.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:   DefaultDeviceID,
			SampleRate:    DefaultSampleRate,
			FrameSize:     DefaultFrameSize,
			Channels:      DefaultChannels,
			LowLatency:    false,
			OpenTimeoutMs: DefaultOpenTimeoutMs,
			GateThreshold: 0,
			Window:        DefaultWindow,
		},
		Detection: DetectionConfig{
			Strategy:        DefaultStrategy,
			GlobalGapMs:     DefaultGlobalGapMs,
			ClassCooldownMs: DefaultClassCooldownMs,
			HistoryMax:      DefaultHistoryMax,
			HistoryAgeMs:    DefaultHistoryAgeMs,
			RMSFloor:        DefaultRMSFloor,
			HatZCR:          DefaultHatZCR,
			OpenHatAirRatio: DefaultOpenHatAirRatio,
		},
		Practice: PracticeConfig{
			BPM:          DefaultBPM,
			StepsPerBeat: DefaultStepsPerBeat,
			ToleranceMs:  DefaultToleranceMs,
			Pattern: map[string]string{
				"kick":    "x---x---x---x---",
				"snare":   "----x-------x---",
				"hihat":   "x-x-x-x-x-x-x-x-",
				"openhat": "------x-------x-",
			},
		},
		Monitor: MonitorConfig{
			Enabled:        false,
			Transport:      DefaultMonitorTransport,
			Addr:           DefaultMonitorAddr,
			UDPTarget:      DefaultUDPTarget,
			SendIntervalMs: DefaultSendIntervalMs,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: DefaultRecordingDir,
		},
	}
}

// OpenTimeout returns the capture open deadline.
func (a AudioConfig) OpenTimeout() time.Duration {
	return time.Duration(a.OpenTimeoutMs) * time.Millisecond
}

// HopDuration returns the wall-clock span of one analysis frame.
func (a AudioConfig) HopDuration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(a.FrameSize) / a.SampleRate * float64(time.Second))
}

// EffectiveMinConfidence resolves the detection floor: an explicit value
// wins, zero selects the strategy's default.
func (d DetectionConfig) EffectiveMinConfidence() float64 {
	if d.MinConfidence > 0 {
		return d.MinConfidence
	}
	switch d.Strategy {
	case StrategyTrained:
		return DefaultTrainedMinConfidence
	case StrategyExternal:
		return DefaultExternalMinConfidence
	default:
		return DefaultMinConfidence
	}
}

// GlobalGap returns the debouncer's any-class gate.
func (d DetectionConfig) GlobalGap() time.Duration {
	return time.Duration(d.GlobalGapMs) * time.Millisecond
}

// ClassCooldown returns the debouncer's per-class gate.
func (d DetectionConfig) ClassCooldown() time.Duration {
	return time.Duration(d.ClassCooldownMs) * time.Millisecond
}

// HistoryAge returns the rolling history age bound.
func (d DetectionConfig) HistoryAge() time.Duration {
	return time.Duration(d.HistoryAgeMs) * time.Millisecond
}

// FeatureBands converts the configured bands for the feature extractor.
// An empty list selects the default drum-tuned layout.
func (d DetectionConfig) FeatureBands() []dsp.Band {
	if len(d.Bands) == 0 {
		return dsp.DefaultBands()
	}
	bands := make([]dsp.Band, len(d.Bands))
	for i, b := range d.Bands {
		bands[i] = dsp.Band{Name: b.Name, LowHz: b.LowHz, HighHz: b.HighHz}
	}
	return bands
}

// Tolerance returns the on-time window half-width.
func (p PracticeConfig) Tolerance() time.Duration {
	return time.Duration(p.ToleranceMs) * time.Millisecond
}

// StepDuration derives the grid step from the tempo.
func (p PracticeConfig) StepDuration() (time.Duration, error) {
	return pattern.StepDuration(p.BPM, p.StepsPerBeat)
}

// Target parses the configured pattern rows into a playable grid.
func (p PracticeConfig) Target() (pattern.Pattern, error) {
	return pattern.FromRows(p.Pattern)
}

// SendInterval returns the monitor snapshot spacing.
func (m MonitorConfig) SendInterval() time.Duration {
	return time.Duration(m.SendIntervalMs) * time.Millisecond
}
