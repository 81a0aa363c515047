// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// LoggingTransport renders payloads into the application log. It is the
// fallback when no monitor consumer is configured and doubles as a debugging
// aid alongside the real transports.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Info("Transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the payload as JSON at info level. Logging never fails the
// pipeline; marshal errors are themselves logged and swallowed.
func (lt *LoggingTransport) Send(data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		applog.Errorf("LoggingTransport: cannot marshal %T: %v", data, err)
		return nil
	}
	applog.Infof("status %s", jsonData)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
