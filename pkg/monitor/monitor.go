// Package monitor streams per-step snapshots of a running simulation to
// WebSocket clients. The engine publishes through Notify and never blocks on
// a slow consumer: the hub drops events when its queue is full and drops
// clients whose connection fails.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Monitor is a broadcast hub for simulation snapshots.
type Monitor struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New starts a monitor hub. Close must be called to release it.
func New(log *zap.Logger) *Monitor {
	m := &Monitor{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// with the hub. The connection stays open until the client goes away or the
// monitor closes.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn("monitor: upgrade failed", zap.Error(err))
		return
	}

	select {
	case m.register <- conn:
	case <-m.done:
		conn.Close()
		return
	}

	// Drain the read side so control frames are processed; clients only
	// listen.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case m.unregister <- conn:
				case <-m.done:
				}
				return
			}
		}
	}()
}

// Notify broadcasts v as JSON to every connected client. It never blocks: if
// the queue is full the event is dropped.
func (m *Monitor) Notify(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warn("monitor: marshal failed", zap.Error(err))
		return
	}
	select {
	case m.broadcast <- data:
	default:
	}
}

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return

		case conn := <-m.register:
			m.mu.Lock()
			m.clients[conn] = true
			m.mu.Unlock()

		case conn := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[conn]; ok {
				delete(m.clients, conn)
				conn.Close()
			}
			m.mu.Unlock()

		case data := <-m.broadcast:
			m.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(m.clients))
			for conn := range m.clients {
				conns = append(conns, conn)
			}
			m.mu.RUnlock()

			var failed []*websocket.Conn
			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					failed = append(failed, conn)
				}
			}

			if len(failed) > 0 {
				m.mu.Lock()
				for _, conn := range failed {
					delete(m.clients, conn)
					conn.Close()
				}
				m.mu.Unlock()
			}
		}
	}
}

// Close disconnects every client and stops the hub goroutine.
func (m *Monitor) Close() error {
	close(m.done)

	m.mu.Lock()
	for conn := range m.clients {
		conn.Close()
		delete(m.clients, conn)
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}
