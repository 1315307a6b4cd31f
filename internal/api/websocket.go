package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// writeTimeout bounds how long a slow dashboard client can stall a
// broadcast before it is dropped.
const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // any origin may subscribe; the CORS middleware only sets headers and rejects nothing
	},
}

// Hub fans risk results, ledger entries, and alerts out to every
// connected dashboard. Frames are pre-encoded JSON; the hub does not
// interpret them.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	outbox chan []byte
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]struct{}),
		outbox: make(chan []byte, 256),
	}
}

// Run drains the outbox, writing each frame to every live subscriber.
// Connections that miss the write deadline are closed and dropped.
func (h *Hub) Run() {
	for frame := range h.outbox {
		h.mu.Lock()
		for conn := range h.conns {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("[Stream] dropping subscriber: %v", err)
				conn.Close()
				delete(h.conns, conn)
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and registers it for the
// live risk feed. The feed is push-only; the read loop exists solely to
// notice disconnects.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Stream] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	log.Printf("[Stream] subscriber connected (%d total)", n)

	go h.readUntilClose(conn)
}

func (h *Hub) readUntilClose(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		n := len(h.conns)
		h.mu.Unlock()
		conn.Close()
		log.Printf("[Stream] subscriber disconnected (%d remaining)", n)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Stream] read error: %v", err)
			}
			return
		}
	}
}

// Broadcast queues a pre-encoded JSON frame for delivery to all subscribers.
func (h *Hub) Broadcast(frame []byte) {
	h.outbox <- frame
}
