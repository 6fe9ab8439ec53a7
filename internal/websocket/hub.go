package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisChannel carries console messages between instances.
const RedisChannel = "knowledge_console"

type clusterMessage struct {
	Origin   string          `json:"origin"`
	ClientId string          `json:"client_id,omitempty"`
	Message  json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients grouped by tenant key.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Instance id used to skip our own cluster messages.
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			key := client.Actor.TenantKey()
			h.mu.Lock()
			h.clients[key] = append(h.clients[key], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"user_id": client.Actor.UserId,
				"tenant":  key,
			})

		case client := <-h.unregister:
			key := client.Actor.TenantKey()
			h.mu.Lock()
			clients := h.clients[key]
			for i, c := range clients {
				if c == client {
					h.clients[key] = append(clients[:i], clients[i+1:]...)
					client.close()
					break
				}
			}
			if len(h.clients[key]) == 0 {
				delete(h.clients, key)
			}
			h.mu.Unlock()
		}
	}
}

// SendToTenant pushes msg to local connections that may see documents owned by
// clientId and publishes it for the other instances. A nil clientId reaches admins only.
func (h *Hub) SendToTenant(clientId *uuid.UUID, msg dto.ConsoleMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode console message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(clientId, data)

	if h.rdb != nil {
		payload := clusterMessage{Origin: h.origin, Message: data}
		if clientId != nil {
			payload.ClientId = clientId.String()
		}
		raw, _ := json.Marshal(payload)
		if err := h.rdb.Publish(context.Background(), RedisChannel, raw).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to fan out console message", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliver(clientId *uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for _, client := range clients {
			if !client.Actor.CanAccess(clientId) {
				continue
			}
			if !client.Enqueue(data) {
				h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{
					"user_id": client.Actor.UserId,
				})
			}
		}
	}
}

// ConnectionCount returns the number of registered local connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleClusterMessage([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var payload clusterMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Warn("Hub", "Dropping malformed cluster message", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload.Origin == h.origin {
		return
	}

	var clientId *uuid.UUID
	if payload.ClientId != "" {
		id, err := uuid.Parse(payload.ClientId)
		if err != nil {
			return
		}
		clientId = &id
	}
	h.deliver(clientId, payload.Message)
}
