// SPDX-License-Identifier: MIT
//
// Package engine wires an audio frame source to feature extraction,
// classification and debouncing. It owns the single processing goroutine;
// sources push frames from their own callback threads and never block on
// classification.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// frameQueueDepth bounds the frame queue between the audio callback and the
// processing goroutine. When classification falls behind, the oldest queued
// frame is dropped; a late drum hit is worthless to the player.
const frameQueueDepth = 2

// Source delivers capture frames. Open starts delivery to onFrame and Close
// stops it; Level reports the current input RMS in [0, 1] and must return 0
// once closed. audio.Capture is the production implementation.
type Source interface {
	Open(onFrame func(dsp.Frame)) error
	Close() error
	Level() float64
}

// DetectionObserver is notified of every detection that survives
// debouncing, on the processing goroutine. Implementations must not block.
type DetectionObserver interface {
	OnDetection(detect.Detection)
}

// ObserverFunc adapts a function to the DetectionObserver interface.
type ObserverFunc func(detect.Detection)

func (f ObserverFunc) OnDetection(d detect.Detection) { f(d) }

// Engine runs the detection pipeline over a frame source.
type Engine struct {
	src       Source
	extractor *dsp.Extractor
	debouncer *detect.Debouncer

	mu         sync.RWMutex
	classifier classify.Classifier
	observers  []DetectionObserver
	lastErr    error

	frames  chan dsp.Frame
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	dropped atomic.Uint64
}

// New assembles an engine. The extractor's frame size and rate must match
// what the source delivers; the classifier may be swapped later with
// SetClassifier.
func New(src Source, extractor *dsp.Extractor, classifier classify.Classifier, debouncer *detect.Debouncer) (*Engine, error) {
	if src == nil {
		return nil, errors.New("engine: nil source")
	}
	if extractor == nil {
		return nil, errors.New("engine: nil extractor")
	}
	if classifier == nil {
		return nil, errors.New("engine: nil classifier")
	}
	if debouncer == nil {
		return nil, errors.New("engine: nil debouncer")
	}
	return &Engine{
		src:        src,
		extractor:  extractor,
		classifier: classifier,
		debouncer:  debouncer,
	}, nil
}

// StartListening opens the source and begins classifying frames. It fails
// when the classifier is not ready or listening has already started.
func (e *Engine) StartListening() error {
	e.mu.RLock()
	clf := e.classifier
	e.mu.RUnlock()
	if !clf.Ready() {
		return fmt.Errorf("engine: %w", classify.ErrModelNotReady)
	}

	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already listening")
	}

	e.frames = make(chan dsp.Frame, frameQueueDepth)
	e.done = make(chan struct{})
	e.wg.Add(1)
	go e.loop()

	if err := e.src.Open(e.enqueue); err != nil {
		close(e.done)
		e.wg.Wait()
		e.running.Store(false)
		return err
	}

	log.Infof("engine: listening with the %s classifier", clf.Name())
	return nil
}

// StopListening closes the source and stops the processing goroutine.
// Detections collected so far stay available; extra calls are no-ops.
func (e *Engine) StopListening() error {
	if !e.running.CompareAndSwap(true, false) {
		return nil
	}

	err := e.src.Close()
	close(e.done)
	e.wg.Wait()

	log.Infof("engine: stopped listening")
	return err
}

// Listening reports whether the engine is consuming frames.
func (e *Engine) Listening() bool {
	return e.running.Load()
}

// Level returns the source's current input level, 0 when stopped.
func (e *Engine) Level() float64 {
	return e.src.Level()
}

// Detections returns a copy of the debounced detection history.
func (e *Engine) Detections() []detect.Detection {
	return e.debouncer.Detections()
}

// ClearDetections empties the detection history. Safe while listening.
func (e *Engine) ClearDetections() {
	e.debouncer.Clear()
}

// Dropped returns how many frames were discarded because classification
// fell behind capture.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Err returns the last frame-processing error, nil when everything has
// been classified cleanly.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// SetClassifier swaps the classifier between frames. The replacement must
// be ready; the previous classifier finishes any frame in flight.
func (e *Engine) SetClassifier(c classify.Classifier) error {
	if c == nil {
		return errors.New("engine: nil classifier")
	}
	if !c.Ready() {
		return fmt.Errorf("engine: %w", classify.ErrModelNotReady)
	}
	e.mu.Lock()
	e.classifier = c
	e.mu.Unlock()
	log.Infof("engine: classifier switched to %s", c.Name())
	return nil
}

// Subscribe registers an observer for accepted detections. Register before
// StartListening; observers are not removable.
func (e *Engine) Subscribe(obs DetectionObserver) {
	if obs == nil {
		return
	}
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	e.mu.Unlock()
}

// enqueue hands one frame to the processing goroutine without ever blocking
// the audio callback. A full queue sheds its oldest entry first.
func (e *Engine) enqueue(frame dsp.Frame) {
	for {
		select {
		case e.frames <- frame:
			return
		default:
		}
		select {
		case <-e.frames:
			e.dropped.Add(1)
		default:
		}
	}
}

func (e *Engine) loop() {
	defer e.wg.Done()
	feats := e.extractor.NewFeatures()
	for {
		select {
		case <-e.done:
			return
		case frame := <-e.frames:
			e.process(frame, feats)
		}
	}
}

// process runs one frame through extraction, classification and debouncing.
func (e *Engine) process(frame dsp.Frame, feats *dsp.Features) {
	if err := e.extractor.ExtractInto(&frame, feats); err != nil {
		e.setErr(err)
		log.Debugf("engine: dropping frame: %v", err)
		return
	}

	e.mu.RLock()
	clf := e.classifier
	e.mu.RUnlock()

	result, err := clf.Classify(&frame, feats)
	if err != nil {
		e.setErr(err)
		log.Debugf("engine: classify failed: %v", err)
		return
	}

	at := frame.Time
	if at.IsZero() {
		at = time.Now()
	}
	detection, ok := e.debouncer.Offer(at, result)
	if !ok {
		return
	}

	log.Debugf("engine: %s at %s (confidence %.2f)",
		detection.Class, detection.Time.Format("15:04:05.000"), detection.Confidence)

	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	for _, obs := range observers {
		obs.OnDetection(detection)
	}
}

func (e *Engine) setErr(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}
