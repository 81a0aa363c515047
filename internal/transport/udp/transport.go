// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/classify"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type | Size (Bytes) | Description                   |
|-------------------|-----------|--------------|-------------------------------|
| Sequence Number   | uint32    | 4            | Monotonically increasing      |
| Timestamp         | int64     | 8            | Nanoseconds since epoch       |
| Level             | float32   | 4            | Current input RMS [0, 1]      |
| Dropped Frames    | uint32    | 4            | Frames shed by backpressure   |
| Detection Count   | uint16    | 2            | Number of entries (N)         |
| Detections        | N entries | N * 13       | See below                     |
+------------------------------------------------------------------------------+

Each detection entry:

+------------------------------------------------------------------------------+
| Class Index       | uint8     | 1            | classify.Classes() position  |
| Hit Time          | int64     | 8            | Milliseconds since epoch     |
| Confidence        | float32   | 4            | Classifier confidence [0, 1] |
+------------------------------------------------------------------------------+
*/

// UDPTransport packs monitor snapshots into the binary layout above and
// ships each one as a single datagram.
type UDPTransport struct {
	sender *UDPSender

	// mu serializes packing; the packet buffer and sequence number are
	// reused across sends.
	mu           sync.Mutex
	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewUDPTransport dials the target address and returns a ready transport.
func NewUDPTransport(targetAddress string) (*UDPTransport, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &UDPTransport{
		sender:       sender,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send packs one snapshot and transmits it. Payloads other than snapshots
// are rejected; this transport speaks a fixed binary format.
func (t *UDPTransport) Send(data any) error {
	var snap transport.Snapshot
	switch v := data.(type) {
	case transport.Snapshot:
		snap = v
	case *transport.Snapshot:
		snap = *v
	default:
		return fmt.Errorf("UDPTransport: unsupported payload %T", data)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// --- 1. Pack the header ---

	t.sequenceNum++
	t.packetBuffer.Reset()

	count := len(snap.Detections)
	if count > math.MaxUint16 {
		count = math.MaxUint16
	}

	err := binary.Write(t.packetBuffer, binary.BigEndian, t.sequenceNum)
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, float32(snap.Level))
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, uint32(snap.Dropped))
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, uint16(count))
	}
	if err != nil {
		return fmt.Errorf("UDPTransport: packing header: %w", err)
	}

	// --- 2. Pack the detections ---

	for _, d := range snap.Detections[:count] {
		idx := classify.Index(d.Class)
		if idx < 0 {
			// Unknown class, skip rather than lie about the index. The
			// count stays as written; consumers must treat it as an upper
			// bound when the packet ends early.
			applog.Warnf("UDPTransport: skipping detection with unknown class %q", d.Class)
			continue
		}
		err = binary.Write(t.packetBuffer, binary.BigEndian, uint8(idx))
		if err == nil {
			err = binary.Write(t.packetBuffer, binary.BigEndian, d.Time.UnixMilli())
		}
		if err == nil {
			err = binary.Write(t.packetBuffer, binary.BigEndian, float32(d.Confidence))
		}
		if err != nil {
			return fmt.Errorf("UDPTransport: packing detection: %w", err)
		}
	}

	// --- 3. Ship it ---

	packetBytes := t.packetBuffer.Bytes()
	if err := t.sender.Send(packetBytes); err != nil {
		return err
	}
	applog.Debugf("UDPTransport: sent packet %d (%d bytes)", t.sequenceNum, len(packetBytes))
	return nil
}

// Close shuts down the underlying sender.
func (t *UDPTransport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*UDPTransport)(nil)
