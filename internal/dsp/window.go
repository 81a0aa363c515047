// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc scales a sample buffer in place and returns it, matching the
// shape of the gonum/dsp/window functions.
type WindowFunc func([]float64) []float64

// ParseWindow resolves a window function by name (case-insensitive). The
// empty string selects Hann, the default for spectral feature extraction.
func ParseWindow(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "hann":
		return window.Hann, nil
	case "hamming":
		return window.Hamming, nil
	case "bartletthann":
		return window.BartlettHann, nil
	case "blackman":
		return window.Blackman, nil
	case "blackmannuttall":
		return window.BlackmanNuttall, nil
	case "nuttall":
		return window.Nuttall, nil
	case "lanczos":
		return window.Lanczos, nil
	default:
		return nil, fmt.Errorf("unsupported window function: %s", name)
	}
}

// WindowNames lists the accepted ParseWindow arguments, for help text and
// config validation messages.
func WindowNames() []string {
	return []string{"hann", "hamming", "bartletthann", "blackman", "blackmannuttall", "nuttall", "lanczos"}
}
