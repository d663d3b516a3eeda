package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"parking-core/internal/logging"
	"parking-core/internal/parking"
)

const writeWait = 5 * time.Second

// Hub pushes the latest lot snapshot to connected display clients. Every
// client has its own writer goroutine fed through a one-slot channel, so
// Publish never waits on the network and slow clients only miss
// intermediate states.
type Hub struct {
	upgrader websocket.Upgrader

	latest atomic.Pointer[[]byte]

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// offer replaces any undelivered snapshot with data. Only the writer
// goroutine receives from send, so the loop ends after at most one drain.
func (c *hubClient) offer(data []byte) {
	for {
		select {
		case c.send <- data:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Publish is safe to call while the lot is locked: it only encodes and
// hands the result to the client channels without blocking.
func (h *Hub) Publish(snapshot parking.Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	h.latest.Store(&data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.offer(data)
	}
}

// Run holds the hub open until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(r.Context()).Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &hubClient{
		conn: conn,
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}

	// Loading latest under mu pairs with Publish storing before it locks, so a
	// concurrent change reaches the client through one path or the other.
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if data := h.latest.Load(); data != nil {
		c.offer(*data)
	}
	count := len(h.clients)
	h.mu.Unlock()

	logging.Debug(r.Context()).Int("clients", count).Msg("display client connected")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *hubClient) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// readPump discards client messages and unregisters the client once the
// connection drops.
func (h *Hub) readPump(c *hubClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		close(c.done)
	}
	c.conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll drops every connection; each readPump then unregisters its client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
