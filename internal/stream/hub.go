package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans recorder snapshots out to websocket subscribers, mirroring through
// Redis pub/sub so subscribers connected to other instances see the same stream.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RecordingID string
	Send        chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(recordingID string) *Client {
	client := &Client{
		RecordingID: recordingID,
		Send:        make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[recordingID] == nil {
		h.clients[recordingID] = map[*Client]struct{}{}
	}
	h.clients[recordingID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if recClients, ok := h.clients[client.RecordingID]; ok {
		delete(recClients, client)
		if len(recClients) == 0 {
			delete(h.clients, client.RecordingID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a snapshot to subscribers. With Redis configured the
// snapshot is published exactly once and every instance, this one included,
// delivers it to its local subscribers from the subscription, so no frame is
// duplicated. Without Redis, or when the publish fails, delivery is direct.
// Slow subscribers drop frames rather than block the recorder.
func (h *Hub) Broadcast(recordingID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(recordingID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliverLocal(recordingID, payload)
}

func (h *Hub) deliverLocal(recordingID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[recordingID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// subscribeRedis pattern-subscribes so publishes from any instance, for any
// recording, reach this instance's subscribers.
func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "recording:*:snapshots")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliverLocal(recordingIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(recordingID string) string {
	return "recording:" + recordingID + ":snapshots"
}

func recordingIDFromChannel(ch string) string {
	// recording:{id}:snapshots
	const prefix = "recording:"
	const suffix = ":snapshots"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
