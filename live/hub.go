package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kuzowebsite/ider-surver/aggregate"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/store"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	loadTimeout  = 5 * time.Second
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Snapshot is the payload of a "snapshot" message: every submission,
// newest first, with the summary figures.
type Snapshot struct {
	Submissions   []model.Submission `json:"submissions"`
	Stats         aggregate.Stats    `json:"stats"`
	CatalogSource catalog.Source     `json:"catalogSource"`
}

// Hub holds one store subscription and fans every snapshot out to the
// connected admin clients. A client that cannot keep up is dropped.
type Hub struct {
	store    store.Store
	upgrader websocket.Upgrader

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	changed    chan struct{}
	done       chan struct{}

	mu   sync.RWMutex
	last []byte
}

type client struct {
	hub    *Hub
	socket *websocket.Conn
	send   chan []byte
}

func NewHub(s store.Store) *Hub {
	return &Hub{
		store: s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		changed:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run subscribes to the store and serves clients until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	unsubscribe, err := h.store.Subscribe(ctx, h.onSnapshot, h.onError)
	if err != nil {
		h.onError(err)
	} else {
		defer unsubscribe()
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			if msg := h.latest(); msg != nil {
				h.deliver(c, msg)
			}
			log.Debugf("live.register: %d clients", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
			log.Debugf("live.unregister: %d clients", len(h.clients))

		case <-h.changed:
			msg := h.latest()
			for c := range h.clients {
				h.deliver(c, msg)
			}
		}
	}
}

func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		log.Warn("live.send: client too slow, dropping it")
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

func (h *Hub) publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("live.encode: %s", err)
		return
	}

	h.mu.Lock()
	h.last = data
	h.mu.Unlock()

	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *Hub) onSnapshot(submissions []model.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	questions, source := catalog.Load(ctx, h.store)

	h.publish(Message{
		Type: "snapshot",
		Payload: Snapshot{
			Submissions:   store.NewestFirst(submissions),
			Stats:         aggregate.Summarize(submissions, questions),
			CatalogSource: source,
		},
	})
}

func (h *Hub) onError(err error) {
	log.Errorf("live.subscribe: %s", err)
	h.publish(Message{Type: "error", Payload: err.Error()})
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("live.upgrade: %s", err)
		return
	}

	c := &client{hub: h, socket: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for the connection going away.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.socket.Close()
	}()

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("live.read: %s", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	defer c.socket.Close()

	for msg := range c.send {
		c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
