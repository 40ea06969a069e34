package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leftovers/server/internal/observability"
)

// Event types pushed to party subscribers
const (
	EventPartyUpdated    = "party_updated"
	EventLeftoverClaimed = "leftover_claimed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

// PartyEvent is the JSON frame sent to websocket clients
type PartyEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// PartyTopic returns the topic name carrying events of one party
func PartyTopic(partyID string) string {
	return "party:" + partyID
}

// EventPublisher fans party events out to subscribers
type EventPublisher interface {
	Publish(topic string, event PartyEvent)
}

var _ EventPublisher = (*PartyHub)(nil)

// HubClient is one websocket connection subscribed to party topics
type HubClient struct {
	ID         string
	Topics     map[string]bool
	Conn       *websocket.Conn
	Send       chan []byte
	hub        *PartyHub
	closedOnce sync.Once
}

// PartyHub manages websocket subscribers grouped by topic
type PartyHub struct {
	clients    map[*HubClient]bool
	topics     map[string]map[*HubClient]bool
	register   chan *HubClient
	unregister chan *HubClient
	broadcast  chan *topicMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     *observability.Logger
}

type topicMessage struct {
	topic   string
	message []byte
}

// NewPartyHub creates a hub; call Run to start delivering events
func NewPartyHub() *PartyHub {
	return &PartyHub{
		clients:    make(map[*HubClient]bool),
		topics:     make(map[string]map[*HubClient]bool),
		register:   make(chan *HubClient),
		unregister: make(chan *HubClient),
		broadcast:  make(chan *topicMessage, 256),
		done:       make(chan struct{}),
		logger:     observability.GetLogger().WithField("component", "party_hub"),
	}
}

// Run delivers registrations and broadcasts until ctx is cancelled
func (h *PartyHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debugf("websocket client connected: %s", client.ID)

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debugf("websocket client disconnected: %s", client.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*HubClient
			for client := range h.topics[msg.topic] {
				select {
				case client.Send <- msg.message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			// clients that cannot keep up are dropped
			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

func (h *PartyHub) remove(client *HubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for topic := range client.Topics {
		if topicClients, ok := h.topics[topic]; ok {
			delete(topicClients, client)
			if len(topicClients) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	close(client.Send)
}

func (h *PartyHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*HubClient]bool)
	h.topics = make(map[string]map[*HubClient]bool)
}

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *PartyHub) Register(client *HubClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *PartyHub) Unregister(client *HubClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe adds a client to a topic
func (h *PartyHub) Subscribe(client *HubClient, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Topics[topic] = true
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*HubClient]bool)
	}
	h.topics[topic][client] = true
}

// Publish queues an event for the topic's subscribers.
// It never blocks; events are dropped when the queue is full.
func (h *PartyHub) Publish(topic string, event PartyEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("failed to marshal %s event: %v", event.Type, err)
		return
	}

	select {
	case h.broadcast <- &topicMessage{topic: topic, message: data}:
	default:
		h.logger.WithField("topic", topic).Warnf("event queue full, dropping %s event", event.Type)
	}
}

// TopicSubscriberCount returns the number of subscribers for a topic
func (h *PartyHub) TopicSubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// NewClient creates a client for conn bound to this hub
func (h *PartyHub) NewClient(id string, conn *websocket.Conn) *HubClient {
	return &HubClient{
		ID:     id,
		Topics: make(map[string]bool),
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		hub:    h,
	}
}

// Close unregisters the client and closes its connection
func (c *HubClient) Close() {
	c.closedOnce.Do(func() {
		go c.hub.Unregister(c)
		c.Conn.Close()
	})
}

// WritePump writes queued events and keepalive pings to the connection
func (c *HubClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes client frames until the connection closes.
// Clients only listen; anything they send is discarded.
func (c *HubClient) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("websocket error: %v", err)
			}
			return
		}
	}
}
