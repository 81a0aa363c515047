// SPDX-License-Identifier: MIT
package transport

import "testing"

func TestLoggingTransportNeverFails(t *testing.T) {
	lt := NewLoggingTransport()

	if err := lt.Send(Snapshot{Level: 0.5, At: 1}); err != nil {
		t.Errorf("Send failed: %v", err)
	}
	// Unmarshalable payloads are logged and swallowed, not surfaced.
	if err := lt.Send(make(chan int)); err != nil {
		t.Errorf("Send with unmarshalable payload should not error, got %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
