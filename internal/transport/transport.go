// SPDX-License-Identifier: MIT
//
// Package transport publishes live pipeline status to whatever wants to
// render it: a practice UI over WebSocket, a visualizer over UDP, or the log
// when nothing is listening. Publishing is best-effort; a slow or absent
// consumer must never stall detection.
package transport

// Transport delivers one status payload to all connected consumers.
// Implementations must be safe for concurrent use and must not block the
// caller; drop over delay.
type Transport interface {
	Send(data any) error
	Close() error
}
