package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/planit-app/ranking-backend/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

type clientState int

const (
	stateConnecting clientState = iota
	stateSubscribed
	stateClosed
)

// clientMessage is the only inbound message shape: interest-set changes.
type clientMessage struct {
	Action  string   `json:"action"`
	Periods []string `json:"periods"`
}

// Client is one WebSocket subscriber. A single connection carries an
// independent interest set of zero or more period types.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// state is guarded by hub.mu.
	state clientState

	mu      sync.RWMutex
	periods map[models.PeriodType]bool
}

// NewClient creates a subscriber with its initial interest set.
func NewClient(hub *Hub, conn *websocket.Conn, bufferSize int, initial []models.PeriodType) *Client {
	periods := make(map[models.PeriodType]bool, len(initial))
	for _, pt := range initial {
		periods[pt] = true
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, bufferSize),
		state:   stateConnecting,
		periods: periods,
	}
}

func (c *Client) watches(pt models.PeriodType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.periods[pt]
}

func (c *Client) watchedPeriods() []models.PeriodType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.PeriodType, 0, len(c.periods))
	for pt := range c.periods {
		out = append(out, pt)
	}
	return out
}

// addPeriods returns only the periods that were newly added, so the hub
// sends each initial snapshot at most once.
func (c *Client) addPeriods(periods []models.PeriodType) []models.PeriodType {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := make([]models.PeriodType, 0, len(periods))
	for _, pt := range periods {
		if !c.periods[pt] {
			c.periods[pt] = true
			added = append(added, pt)
		}
	}
	return added
}

func (c *Client) removePeriods(periods []models.PeriodType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pt := range periods {
		delete(c.periods, pt)
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage applies subscribe/unsubscribe requests; anything else is
// ignored. Unknown period names are skipped, not fatal.
func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("📩 Ignoring malformed client message: %v", err)
		return
	}

	periods := make([]models.PeriodType, 0, len(msg.Periods))
	for _, raw := range msg.Periods {
		pt, err := models.ParsePeriodType(raw)
		if err != nil {
			log.Printf("📩 Ignoring unknown period %q", raw)
			continue
		}
		periods = append(periods, pt)
	}
	if len(periods) == 0 {
		return
	}

	switch msg.Action {
	case "subscribe":
		c.hub.Subscribe(c, periods)
	case "unsubscribe":
		c.hub.Unsubscribe(c, periods)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One complete JSON event per WebSocket frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("⚠️  Failed to write message: %v", err)
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
