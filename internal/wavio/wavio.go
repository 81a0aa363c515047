// SPDX-License-Identifier: MIT
//
// Package wavio reads practice takes from WAV files into the mono float64
// samples the detection pipeline consumes.
package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadMono decodes a WAV file into mono samples in [-1, 1] plus the file's
// sample rate. Multi-channel files keep channel 0 only, matching the live
// capture downmix.
func ReadMono(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, 0, fmt.Errorf("wav carries no channel layout")
	}

	bitDepth := int(decoder.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		v := buf.Data[i*channels]
		if bitDepth == 8 {
			// 8-bit WAV is unsigned.
			out[i] = (float64(v) - 128) / 128
		} else {
			out[i] = float64(v) / scale
		}
	}

	return out, float64(buf.Format.SampleRate), nil
}
