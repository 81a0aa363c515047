// SPDX-License-Identifier: MIT
package wavio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const testRate = 44100

// writeWAV encodes raw integer samples into a fresh WAV file under dir.
func writeWAV(t *testing.T, dir string, data []int, channels, bitDepth int) string {
	t.Helper()

	path := filepath.Join(dir, "take.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	enc := wav.NewEncoder(f, testRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close file: %v", err)
	}

	return path
}

func TestReadMonoRoundTrip(t *testing.T) {
	// Half-scale 16-bit samples should come back as 0.5 exactly.
	data := make([]int, 256)
	for i := range data {
		data[i] = 16384
	}
	path := writeWAV(t, t.TempDir(), data, 1, 16)

	samples, rate, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono failed: %v", err)
	}

	if rate != testRate {
		t.Errorf("Expected sample rate %d, got %v", testRate, rate)
	}
	if len(samples) != len(data) {
		t.Fatalf("Expected %d samples, got %d", len(data), len(samples))
	}
	for i, s := range samples {
		if math.Abs(s-0.5) > 1e-9 {
			t.Fatalf("Sample %d: expected 0.5, got %v", i, s)
		}
	}
}

func TestReadMonoKeepsFirstChannel(t *testing.T) {
	// Interleaved stereo: channel 0 at quarter scale, channel 1 slammed
	// negative. Only channel 0 should survive.
	const frames = 128
	data := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = 8192
		data[i*2+1] = -30000
	}
	path := writeWAV(t, t.TempDir(), data, 2, 16)

	samples, _, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono failed: %v", err)
	}

	if len(samples) != frames {
		t.Fatalf("Expected %d mono samples, got %d", frames, len(samples))
	}
	for i, s := range samples {
		if math.Abs(s-0.25) > 1e-9 {
			t.Fatalf("Sample %d: expected 0.25, got %v", i, s)
		}
	}
}

func TestReadMonoErrors(t *testing.T) {
	dir := t.TempDir()

	notWAV := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notWAV, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	tests := []struct {
		desc    string
		path    string
		wantErr string
	}{
		{
			desc:    "missing file",
			path:    filepath.Join(dir, "missing.wav"),
			wantErr: "failed to open wav",
		},
		{
			desc:    "not a wav file",
			path:    notWAV,
			wantErr: "not a valid WAV file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, _, err := ReadMono(tt.path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
