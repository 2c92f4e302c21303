package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/planit-app/ranking-backend/internal/models"
)

// SnapshotFunc produces the INITIAL_RANKING event for a period, sourced
// from the live ranking core. The snapshot always has UpdatedUser = nil.
type SnapshotFunc func(models.PeriodType) *models.RankingUpdateEvent

// subscription is an interest-set change requested by a connected client.
type subscription struct {
	client  *Client
	periods []models.PeriodType
	add     bool
}

// Hub maintains active WebSocket connections and fans ranking events out
// to every subscribed client watching the event's period. Delivery is
// per-client and best-effort: a client whose send buffer is full is
// closed and dropped so it never delays the others.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *models.RankingUpdateEvent
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	snapshot   SnapshotFunc
	delivered  uint64
	mu         sync.RWMutex
}

// NewHub creates a hub; snapshot supplies the INITIAL_RANKING payloads.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *models.RankingUpdateEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		snapshot:   snapshot,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			client.state = stateSubscribed
			count := len(h.clients)
			h.mu.Unlock()
			// The initial interest set gets its snapshots immediately.
			h.sendInitialRankings(client, client.watchedPeriods())
			log.Printf("✅ Ranking subscriber connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropClientLocked(client)
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("❌ Ranking subscriber disconnected (total: %d)", count)

		case sub := <-h.subscribe:
			h.mu.RLock()
			active := h.clients[sub.client]
			h.mu.RUnlock()
			if !active {
				continue
			}
			if sub.add {
				added := sub.client.addPeriods(sub.periods)
				h.sendInitialRankings(sub.client, added)
			} else {
				sub.client.removePeriods(sub.periods)
			}

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Broadcast queues a ranking event for fan-out to subscribed clients.
func (h *Hub) Broadcast(event *models.RankingUpdateEvent) {
	h.broadcast <- event
}

// deliver pushes one event to every subscribed client watching its
// period. Clients that cannot keep up are dropped on the spot.
func (h *Hub) deliver(event *models.RankingUpdateEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  Failed to marshal ranking event: %v", err)
		return
	}

	h.mu.Lock()
	for client := range h.clients {
		if !client.watches(event.PeriodType) {
			continue
		}
		select {
		case client.send <- data:
			h.delivered++
		default:
			// Send buffer full: slow consumer, cut it loose.
			h.dropClientLocked(client)
		}
	}
	h.mu.Unlock()
}

// sendInitialRankings pushes one INITIAL_RANKING per newly watched
// period. Failure to enqueue follows the same drop policy as broadcast.
func (h *Hub) sendInitialRankings(client *Client, periods []models.PeriodType) {
	if h.snapshot == nil {
		return
	}
	for _, pt := range periods {
		event := h.snapshot(pt)
		if event == nil {
			continue
		}
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("⚠️  Failed to marshal initial ranking: %v", err)
			continue
		}
		select {
		case client.send <- data:
		default:
			h.mu.Lock()
			h.dropClientLocked(client)
			h.mu.Unlock()
			return
		}
	}
}

// dropClientLocked removes a client from all interest sets and closes
// its send channel. Caller holds h.mu.
func (h *Hub) dropClientLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.state = stateClosed
	close(client.send)
}

// ClientCount returns the number of subscribed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Status returns the aggregate connection status line for ops visibility.
func (h *Hub) Status() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return "idle"
	}
	return fmt.Sprintf("broadcasting to %d clients (%d events delivered)", len(h.clients), h.delivered)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds periods to a client's interest set and triggers their
// initial snapshots.
func (h *Hub) Subscribe(client *Client, periods []models.PeriodType) {
	h.subscribe <- subscription{client: client, periods: periods, add: true}
}

// Unsubscribe removes periods from a client's interest set.
func (h *Hub) Unsubscribe(client *Client, periods []models.PeriodType) {
	h.subscribe <- subscription{client: client, periods: periods, add: false}
}
