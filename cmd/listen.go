// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/audio"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/config"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/engine"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/practice"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/transport"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/transport/udp"
)

func newListenCommand() *cobra.Command {
	var (
		flagMonitor   bool
		flagTransport string
		flagAddr      string
		flagRecord    bool
		flagOutput    string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Detect drum hits live and score the take against the practice pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("monitor") {
				cfg.Monitor.Enabled = flagMonitor
			}
			if flags.Changed("transport") {
				cfg.Monitor.Transport = flagTransport
			}
			if flags.Changed("addr") {
				cfg.Monitor.Addr = flagAddr
			}
			if flags.Changed("record") {
				cfg.Recording.Enabled = flagRecord
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runListen(cfg, flagOutput)
		},
	}

	cmd.Flags().BoolVar(&flagMonitor, "monitor", false,
		"Publish live status snapshots for an external UI")
	cmd.Flags().StringVar(&flagTransport, "transport", config.DefaultMonitorTransport,
		"Monitor transport: websocket, udp or log")
	cmd.Flags().StringVar(&flagAddr, "addr", config.DefaultMonitorAddr,
		"WebSocket listen address for the monitor")
	cmd.Flags().BoolVarP(&flagRecord, "record", "r", false,
		"Record the take to a WAV file for offline re-scoring")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "",
		"Recording file name. Default is a timestamped name in the recording directory.")
	return cmd
}

// runListen runs one live practice session until interrupted, then scores it.
func runListen(cfg *config.Config, output string) error {
	// One OS thread stays available for the audio callback, one for
	// everything else.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	eng, capture, err := buildLivePipeline(cfg)
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

	if err := eng.StartListening(); err != nil {
		return err
	}
	defer eng.StopListening()

	// The session anchors its grid at the moment listening actually began.
	session, err := practice.NewSession(target, stepDur, cfg.Practice.Tolerance(), time.Now())
	if err != nil {
		return err
	}
	eng.Subscribe(engine.ObserverFunc(session.Add))

	if cfg.Recording.Enabled {
		path, err := recordingPath(cfg.Recording, output)
		if err != nil {
			return err
		}
		if err := capture.StartRecording(path); err != nil {
			return err
		}
		fmt.Printf("Recording to %s\n", path)
	}

	if cfg.Monitor.Enabled {
		mon, tr, err := startMonitor(cfg.Monitor, eng)
		if err != nil {
			return err
		}
		defer tr.Close()
		defer mon.Stop()
	}

	fmt.Printf("Listening at %.0f Hz, %.0f BPM grid. Press Ctrl+C to stop and score the take.\n",
		cfg.Audio.SampleRate, cfg.Practice.BPM)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
	fmt.Println()

	if err := eng.StopListening(); err != nil {
		applog.Errorf("Stopping pipeline: %v", err)
	}
	session.Stop()

	if dropped := eng.Dropped(); dropped > 0 {
		applog.Warnf("Backpressure dropped %d frames during the take", dropped)
	}

	printReport(session)
	return nil
}

// buildLivePipeline assembles capture, extraction, classification and
// debouncing from the configuration.
func buildLivePipeline(cfg *config.Config) (*engine.Engine, *audio.Capture, error) {
	winFn, err := dsp.ParseWindow(cfg.Audio.Window)
	if err != nil {
		return nil, nil, err
	}

	clf, err := buildClassifier(cfg.Detection)
	if err != nil {
		return nil, nil, err
	}

	// Cepstra cost extraction time, so they are computed only when the
	// strategy consumes them.
	mfcc := 0
	if net, ok := clf.(*classify.FFNet); ok {
		mfcc = net.Inputs()
	}

	extractor, err := dsp.NewExtractor(dsp.ExtractorConfig{
		FrameSize:  cfg.Audio.FrameSize,
		SampleRate: cfg.Audio.SampleRate,
		Window:     winFn,
		Bands:      cfg.Detection.FeatureBands(),
		MFCCCoeffs: mfcc,
	})
	if err != nil {
		return nil, nil, err
	}

	capture := audio.NewCapture(cfg.Audio)
	eng, err := engine.New(capture, extractor, clf, buildDebouncer(cfg.Detection))
	if err != nil {
		return nil, nil, err
	}
	return eng, capture, nil
}

// startMonitor builds the configured transport and begins publishing. The
// caller closes both the monitor and the transport.
func startMonitor(mc config.MonitorConfig, source transport.StatusSource) (*transport.Monitor, transport.Transport, error) {
	var (
		tr  transport.Transport
		err error
	)
	switch mc.Transport {
	case config.TransportWebSocket:
		tr = transport.NewWebSocketTransport(mc.Addr, mc.SendInterval())
	case config.TransportUDP:
		tr, err = udp.NewUDPTransport(mc.UDPTarget)
		if err != nil {
			return nil, nil, err
		}
	default:
		tr = transport.NewLoggingTransport()
	}

	mon, err := transport.NewMonitor(mc.SendInterval(), tr, source)
	if err != nil {
		tr.Close()
		return nil, nil, err
	}
	mon.Start()
	return mon, tr, nil
}

// recordingPath picks the output file: the explicit name when given,
// otherwise a timestamped name inside the recording directory.
func recordingPath(rc config.RecordingConfig, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recording directory: %w", err)
	}
	name := "take-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(rc.OutputDir, name), nil
}
