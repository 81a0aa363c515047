// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

// WebSocketTransport broadcasts status payloads as JSON to every client
// connected on /ws. Sends are rate limited and queued through a buffered
// channel; when the queue is full the payload is dropped, never blocking the
// caller.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server

	// minSendInterval floors the time between broadcasts so a burst of
	// detections cannot flood slow clients. lastSend is only touched from
	// Send callers, which the monitor serializes.
	minSendInterval time.Duration
	lastSend        time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketTransport starts an HTTP server on addr serving WebSocket
// upgrades at /ws and begins broadcasting.
func NewWebSocketTransport(addr string, minSendInterval time.Duration) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Monitor UIs are served from other origins.
			},
		},
		clients:         make(map[*websocket.Conn]bool),
		broadcast:       make(chan any, 256),
		minSendInterval: minSendInterval,
		done:            make(chan struct{}),
	}

	wst.start()
	return wst
}

// start begins the WebSocket server and the broadcast loop.
func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: listening on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections and tracks the client until it
// disconnects.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: client connected, total: %d", total)

	// The read loop exists only to notice the disconnect; clients never send
	// anything the server acts on.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.clientsMu.Lock()
				delete(wst.clients, conn)
				total := len(wst.clients)
				wst.clientsMu.Unlock()
				conn.Close()
				applog.Infof("WebSocketTransport: client disconnected, total: %d", total)
				return
			}
		}
	}()
}

// handleBroadcasts fans queued payloads out to every connected client.
// Clients that error on write are dropped.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					applog.Debugf("WebSocketTransport: dropping client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send queues data for broadcast. Payloads inside the rate-limit window or
// arriving while the queue is full are silently dropped.
func (wst *WebSocketTransport) Send(data any) error {
	now := time.Now()
	if now.Sub(wst.lastSend) < wst.minSendInterval {
		return nil
	}
	wst.lastSend = now

	select {
	case wst.broadcast <- data:
	default:
		// Queue full: the broadcast loop is behind, shed the update.
	}
	return nil
}

// Close shuts down the broadcast loop, all client connections and the
// server. Idempotent.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Info("WebSocketTransport: closing")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
