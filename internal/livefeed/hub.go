// Package livefeed pushes ride change signals to websocket clients watching a board date.
package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ride-planner/internal/dayplan"
	"ride-planner/internal/events"
	"ride-planner/pkg/kafka"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *safeConn) close() { c.ws.Close() }

// Message is sent to every socket watching an affected date. Clients re-fetch their board on it.
type Message struct {
	Type  string                  `json:"type"`
	Date  string                  `json:"date"`
	Event events.RideChangedEvent `json:"event"`
}

// Subscriber is the consuming side of *kafka.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error)
}

// Hub manages WebSocket connections per board date.
type Hub struct {
	log   *slog.Logger
	mu    sync.RWMutex
	conns map[string][]*safeConn
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log.With("component", "livefeed"), conns: make(map[string][]*safeConn)}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/board", h.HandleWS)
	return r
}

// Start subscribes to every ride topic. Each instance uses its own consumer group so all
// instances see all events.
func (h *Hub) Start(ctx context.Context, sub Subscriber) {
	group := "board-feed-" + uuid.NewString()
	for _, topic := range kafka.RideTopics {
		sub.Subscribe(ctx, topic, group, h.Handle)
	}
	h.log.Info("live feed subscribed", "group", group, "topics", kafka.RideTopics)
}

// HandleWS upgrades the connection and subscribes it to ?date=YYYY-MM-DD.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	d, err := dayplan.Parse(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := d.String()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}
	conn := &safeConn{ws: ws}

	h.mu.Lock()
	h.conns[date] = append(h.conns[date], conn)
	h.mu.Unlock()
	h.log.Debug("client connected", "date", date)

	// Block until the client disconnects
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.removeConn(date, conn)
	conn.close()
	h.log.Debug("client disconnected", "date", date)
}

// Handle decodes a ride event from the broker and broadcasts it.
func (h *Hub) Handle(payload []byte) error {
	var ev events.RideChangedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode ride event: %w", err)
	}
	h.Broadcast(ev)
	return nil
}

// Broadcast pushes ev to the watchers of every date it touches.
func (h *Hub) Broadcast(ev events.RideChangedEvent) {
	for _, date := range ev.Dates() {
		h.mu.RLock()
		conns := append([]*safeConn(nil), h.conns[date]...)
		h.mu.RUnlock()

		msg := Message{Type: "ride_changed", Date: date, Event: ev}
		for _, c := range conns {
			if err := c.writeJSON(msg); err != nil {
				h.log.Warn("write failed", "date", date, "error", err)
			}
		}
	}
}

// Watchers reports how many sockets watch date.
func (h *Hub) Watchers(date string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[date])
}

func (h *Hub) removeConn(date string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[date]
	for i, c := range conns {
		if c == conn {
			h.conns[date] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[date]) == 0 {
		delete(h.conns, date)
	}
}
