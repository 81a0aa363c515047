// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// defaultInterval is used when the configured send interval is invalid.
const defaultInterval = 100 * time.Millisecond

// StatusSource provides the live numbers a snapshot carries. The running
// engine satisfies it.
type StatusSource interface {
	Level() float64
	Detections() []detect.Detection
	Dropped() uint64
}

// Snapshot is one monitor update: the current input level, the detection
// history and how many frames backpressure has shed so far.
type Snapshot struct {
	Level      float64            `json:"level"`
	Detections []detect.Detection `json:"detections"`
	Dropped    uint64             `json:"dropped_frames"`
	At         int64              `json:"at_ms"`
}

// Monitor periodically samples a StatusSource and pushes snapshots through a
// Transport. It runs in a separate goroutine managed by Start and Stop.
type Monitor struct {
	transport Transport
	source    StatusSource
	interval  time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.
}

// NewMonitor creates a monitor that samples source every interval. An
// invalid interval falls back to defaultInterval.
func NewMonitor(interval time.Duration, transport Transport, source StatusSource) (*Monitor, error) {
	if transport == nil {
		return nil, fmt.Errorf("monitor: transport cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("monitor: status source cannot be nil")
	}
	if interval <= 0 {
		applog.Warnf("Monitor: invalid interval, defaulting to %s", defaultInterval)
		interval = defaultInterval
	}
	return &Monitor{
		transport: transport,
		source:    source,
		interval:  interval,
	}, nil
}

// Start begins periodic publishing. Safe to call multiple times; subsequent
// calls are no-ops while running.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.ticker != nil {
		m.mu.Unlock()
		applog.Warnf("Monitor: Start called but already running")
		return
	}

	m.ticker = time.NewTicker(m.interval)
	m.doneChan = make(chan struct{})
	m.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := m.ticker
	doneChan := m.doneChan

	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		applog.Debugf("Monitor: publishing every %s", m.interval)
		for {
			select {
			case <-ticker.C:
				m.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine to terminate and waits for it.
// Safe to call multiple times.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if m.ticker == nil {
		m.mu.Unlock()
		return nil
	}

	m.stopOnce.Do(func() {
		close(m.doneChan)
		m.ticker.Stop()
		m.ticker = nil
	})
	m.mu.Unlock()

	m.wg.Wait()
	applog.Debugf("Monitor: stopped")
	return nil
}

// publish samples the source and hands one snapshot to the transport.
func (m *Monitor) publish() {
	snap := Snapshot{
		Level:      m.source.Level(),
		Detections: m.source.Detections(),
		Dropped:    m.source.Dropped(),
		At:         time.Now().UnixMilli(),
	}
	if err := m.transport.Send(snap); err != nil {
		applog.Errorf("Monitor: send failed: %v", err)
	}
}

// Close implements io.Closer by stopping the monitor.
func (m *Monitor) Close() error {
	return m.Stop()
}
