// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for capture failures the caller can act on. Errors
// returned by Open and Close wrap one of these where the cause is known.
var (
	ErrAlreadyOpen      = errors.New("capture already open")
	ErrNoInputDevice    = errors.New("no input device available")
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceLost       = errors.New("input device lost")
	ErrOpenTimeout      = errors.New("timed out opening input stream")
)

// mapOpenError folds PortAudio's stringly-typed failures into the sentinel
// errors. PortAudio reports host errors as text, so substring matching is
// the only classification available.
func mapOpenError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no default input"), strings.Contains(msg, "no such device"),
		strings.Contains(msg, "invalid device"):
		return fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	case strings.Contains(msg, "device unavailable"), strings.Contains(msg, "unanticipated host error"):
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	default:
		return err
	}
}
