// SPDX-License-Identifier: MIT
package audio

import "math"

// SetGateThreshold adjusts the noise gate threshold. The value is in the
// range 0.0-1.0 where 0 disables the gate entirely. Safe to call while the
// stream is running.
func (c *Capture) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	c.gateThreshold.Store(int32(threshold * float64(math.MaxInt32)))
}

// GateThreshold returns the current noise gate threshold as a float64 in
// the range 0.0-1.0.
func (c *Capture) GateThreshold() float64 {
	return float64(c.gateThreshold.Load()) / float64(math.MaxInt32)
}
