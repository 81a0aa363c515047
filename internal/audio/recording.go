// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// StartRecording tees the raw capture buffers to a 32-bit WAV file until
// StopRecording or Close. Detection keeps running while recording.
func (c *Capture) StartRecording(filename string) error {
	if atomic.LoadInt32(&c.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	c.recMu.Lock()
	c.outputFile = file
	c.wavEncoder = wav.NewEncoder(file, int(c.cfg.SampleRate),
		32, c.cfg.Channels, 1)
	c.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: c.cfg.Channels,
			SampleRate:  int(c.cfg.SampleRate),
		},
		Data: make([]int, c.cfg.FrameSize*c.cfg.Channels),
	}
	c.recMu.Unlock()

	// Flip the flag last so the callback never sees a half-built encoder.
	atomic.StoreInt32(&c.isRecording, 1)

	log.Infof("audio: recording to %s", filename)
	return nil
}

// StopRecording finalizes the WAV file. Calling it while not recording is a
// no-op.
func (c *Capture) StopRecording() error {
	if !atomic.CompareAndSwapInt32(&c.isRecording, 1, 0) {
		return nil
	}

	c.recMu.Lock()
	defer c.recMu.Unlock()

	if c.wavEncoder != nil {
		if err := c.wavEncoder.Close(); err != nil {
			return err
		}
		c.wavEncoder = nil
	}
	if c.outputFile != nil {
		if err := c.outputFile.Close(); err != nil {
			return err
		}
		c.outputFile = nil
	}

	log.Debugf("audio: recording stopped")
	return nil
}

// Recording reports whether a recording is in progress.
func (c *Capture) Recording() bool {
	return atomic.LoadInt32(&c.isRecording) == 1
}

// writeRecording copies one raw interleaved buffer into the reusable sample
// buffer and hands it to the encoder. Called from the audio callback; the
// cost when not recording is a single atomic load.
func (c *Capture) writeRecording(in []int32) {
	if atomic.LoadInt32(&c.isRecording) == 0 {
		return
	}

	c.recMu.Lock()
	defer c.recMu.Unlock()
	if c.wavEncoder == nil {
		return
	}

	n := len(in)
	if n > cap(c.sampleBuf.Data) {
		n = cap(c.sampleBuf.Data)
	}
	c.sampleBuf.Data = c.sampleBuf.Data[:n]
	for i := 0; i < n; i++ {
		c.sampleBuf.Data[i] = int(in[i])
	}

	if err := c.wavEncoder.Write(c.sampleBuf); err != nil {
		log.Errorf("audio: recording write failed: %v", err)
	}
}
