// SPDX-License-Identifier: MIT
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/detect"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// replayCepstra matches the live pipeline's cepstral depth so trained
// models see the same inputs offline as they do on the microphone.
const replayCepstra = 13

// Replay runs the detection pipeline over a prerecorded mono take, frame by
// frame, as if it had arrived live starting at start. Frame timestamps are
// derived from the sample offset, so debounce gates and practice alignment
// behave exactly as they would in real time. The trailing partial frame is
// zero-padded rather than discarded.
func Replay(samples []float64, rate float64, frameSize int, clf classify.Classifier, deb *detect.Debouncer, start time.Time) ([]detect.Detection, error) {
	if clf == nil {
		return nil, errors.New("engine: nil classifier")
	}
	if !clf.Ready() {
		return nil, fmt.Errorf("engine: %w", classify.ErrModelNotReady)
	}
	if deb == nil {
		return nil, errors.New("engine: nil debouncer")
	}

	extractor, err := dsp.NewExtractor(dsp.ExtractorConfig{
		FrameSize:  frameSize,
		SampleRate: rate,
		MFCCCoeffs: replayCepstra,
	})
	if err != nil {
		return nil, err
	}

	feats := extractor.NewFeatures()
	skipped := 0
	for offset := 0; offset < len(samples); offset += frameSize {
		end := offset + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		frame := dsp.Frame{
			Samples: samples[offset:end],
			Rate:    rate,
			Time:    start.Add(time.Duration(float64(offset) / rate * float64(time.Second))),
		}

		if err := extractor.ExtractInto(&frame, feats); err != nil {
			skipped++
			log.Debugf("engine: replay skipping frame at sample %d: %v", offset, err)
			continue
		}
		result, err := clf.Classify(&frame, feats)
		if err != nil {
			if errors.Is(err, classify.ErrModelNotReady) {
				return nil, err
			}
			skipped++
			log.Debugf("engine: replay classify failed at sample %d: %v", offset, err)
			continue
		}
		deb.Offer(frame.Time, result)
	}

	if skipped > 0 {
		log.Warnf("engine: replay skipped %d of %d frames", skipped, (len(samples)+frameSize-1)/frameSize)
	}
	return deb.Detections(), nil
}
