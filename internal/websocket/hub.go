// Package websocket fans server-side events out to connected dashboard
// sockets. Clients subscribe to a topic (for example "announcements") and the
// Hub copies every message published on that topic into each client's Send
// channel. The socket handler drains Send onto the wire.
package websocket

import (
	"context"
	"sync"
)

// Client is one connected socket's subscription.
type Client struct {
	Topic string      // What this client listens to
	Send  chan []byte // Outgoing frames; closed by the Hub on unregister
}

// NewClient returns a client with a buffered Send channel.
func NewClient(topic string) *Client {
	return &Client{Topic: topic, Send: make(chan []byte, 64)}
}

// Message is a frame addressed to every client on Topic.
type Message struct {
	Topic string
	Data  []byte
}

// Hub tracks clients by topic. All map writes happen on the Run goroutine;
// Count reads under the read lock.
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.clients {
				for c := range clients {
					close(c.Send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.Topic] == nil {
				h.clients[c.Topic] = make(map[*Client]bool)
			}
			h.clients[c.Topic][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.Topic] {
				select {
				case c.Send <- msg.Data:
				default:
					// Too slow to keep up; its handler sees Send close and hangs up.
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.clients[c.Topic]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(h.clients, c.Topic)
	}
}

// Publish queues data for every client on topic. After Run has returned it
// is a no-op.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
	case <-h.done:
	}
}

// Register subscribes c. A client registered after shutdown gets its Send
// closed straight away.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

// Unregister removes c. It is safe to call for a client the Hub already
// dropped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Count returns how many clients listen on topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
