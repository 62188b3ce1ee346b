// Package events delivers note lifecycle events to connected clients.
// Delivery is best-effort and happens strictly after the mutation commits;
// it is not part of any transaction.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"sharednotes/internal/utils"
)

const (
	NoteCreated  = "note_created"
	NoteUpdated  = "note_updated"
	NoteDeleted  = "note_deleted"
	NoteShared   = "note_shared"
	NoteUnshared = "note_unshared"

	redisChannel = "notes:events"
)

type Event struct {
	Type           string    `json:"type"`
	NoteID         string    `json:"note_id"`
	Actor          string    `json:"actor"`
	RecipientEmail string    `json:"recipient_email,omitempty"`
	At             time.Time `json:"at"`
}

type redisEnvelope struct {
	SenderID string `json:"senderId"`
	Event    Event  `json:"event"`
}

// Hub fans events out to local websocket clients and, when a redis client is
// configured, relays them between instances over a pub/sub channel.
type Hub struct {
	logger *slog.Logger

	redisClient *redis.Client
	instanceID  string
	ctx         context.Context
	cancelRedis context.CancelFunc

	clients  map[*websocket.Conn]string
	clientMu sync.RWMutex
}

func NewHub(logger *slog.Logger, redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	instanceID, _ := utils.RandomString(16)

	h := &Hub{
		logger:      logger,
		redisClient: redisClient,
		instanceID:  instanceID,
		ctx:         ctx,
		cancelRedis: cancel,
		clients:     make(map[*websocket.Conn]string),
	}

	if redisClient != nil {
		go h.subscribeToRedis()
	}

	return h
}

// Publish broadcasts the event locally and across instances. Failures are
// logged, never surfaced to the mutation that triggered the event.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}
	h.broadcastLocal(payload)

	if h.redisClient == nil {
		return
	}
	envelope, err := json.Marshal(redisEnvelope{SenderID: h.instanceID, Event: event})
	if err != nil {
		h.logger.Error("Failed to marshal event envelope", "error", err)
		return
	}
	if err := h.redisClient.Publish(h.ctx, redisChannel, envelope).Err(); err != nil {
		h.logger.Error("Failed to publish event to Redis", "error", err)
	}
}

// AddClient registers a websocket connection and blocks reading it until the
// peer goes away. Inbound frames are discarded; the feed is one-way.
func (h *Hub) AddClient(c *websocket.Conn) {
	h.clientMu.Lock()
	connID, _ := utils.RandomString(12)
	h.clients[c] = connID
	h.clientMu.Unlock()

	defer h.removeClient(c)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) ClientCount() int {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastLocal(payload []byte) {
	h.clientMu.RLock()
	var failed []*websocket.Conn
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(time.Second * 5))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			failed = append(failed, c)
		}
	}
	h.clientMu.RUnlock()

	for _, c := range failed {
		h.removeClient(c)
	}
}

func (h *Hub) removeClient(c *websocket.Conn) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	delete(h.clients, c)
	_ = c.Close()
}

func (h *Hub) subscribeToRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case msg := <-ch:
			var envelope redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Error("Failed to unmarshal event envelope", "error", err)
				continue
			}
			// This instance already delivered its own events locally.
			if envelope.SenderID == h.instanceID {
				continue
			}
			payload, err := json.Marshal(envelope.Event)
			if err != nil {
				h.logger.Error("Failed to marshal relayed event", "error", err)
				continue
			}
			h.broadcastLocal(payload)

		case <-h.ctx.Done():
			return
		}
	}
}

// Close stops the redis subscription and drops every client.
func (h *Hub) Close() {
	h.cancelRedis()
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	for c := range h.clients {
		_ = c.Close()
	}
	h.clients = make(map[*websocket.Conn]string)
}
