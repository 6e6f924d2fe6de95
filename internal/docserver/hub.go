package docserver

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 4096

	sendBuffer = 16
)

// client is one WebSocket watching a single document.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

type message struct {
	topic string
	data  []byte
}

// Hub fans document snapshots out to the clients watching them. A client
// whose buffer is full is dropped rather than slowing the others.
type Hub struct {
	clients    map[string]map[*client]bool
	broadcast  chan message
	register   chan *client
	unregister chan *client
	quit       chan struct{}
	done       chan struct{}
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		broadcast:  make(chan message),
		register:   make(chan *client),
		unregister: make(chan *client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        logging.OrDiscard(log),
	}
}

// Publish queues data for every client watching topic.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.broadcast <- message{topic: topic, data: data}:
	case <-h.quit:
	}
}

func (h *Hub) Register(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(c *client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			if h.clients[c.topic] == nil {
				h.clients[c.topic] = make(map[*client]bool)
			}
			h.clients[c.topic][c] = true
			h.log.WithFields(logrus.Fields{"event": logging.EventClientConnected, "topic": c.topic}).Debug("client connected")
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.broadcast:
			for c := range h.clients[m.topic] {
				select {
				case c.send <- m.data:
				default:
					h.log.WithFields(logrus.Fields{"event": logging.EventClientDropped, "topic": m.topic}).Warn("client send buffer full, dropping client")
					h.remove(c)
				}
			}
		case <-h.quit:
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = nil
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	set := h.clients[c.topic]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.topic)
	}
	close(c.send)
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	<-h.done
}

// readPump only services control frames; any read error ends the client.
func (c *client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("websocket read")
			}
			return
		}
	}
}

// writePump sends each snapshot in its own frame.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
