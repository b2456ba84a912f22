package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	liveWriteWait  = 10 * time.Second
	livePingPeriod = 30 * time.Second
	livePongWait   = 60 * time.Second
)

// liveClient is one connected dashboard watching the live feed.
type liveClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// LiveMessage is pushed to connected dashboards as telemetry arrives.
type LiveMessage struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Hub fans ingested telemetry out to live dashboard connections using the
// Gorilla hub pattern. Slow clients are dropped rather than applying
// backpressure to the ingestion path.
type Hub struct {
	clients    map[string]*liveClient
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan []byte

	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         *zap.Logger
	metrics        *Metrics
	mu             sync.RWMutex
	ctx            context.Context
}

func NewHub(ctx context.Context, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:        make(map[string]*liveClient),
		register:       make(chan *liveClient),
		unregister:     make(chan *liveClient),
		broadcast:      make(chan []byte, 256),
		allowedOrigins: allowedOrigins,
		logger:         logger,
		metrics:        GetMetrics(),
		ctx:            ctx,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: h.checkOrigin,
	}
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				client.conn.Close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetLiveStreamClients(int64(count))
			h.logger.Debug("live stream client connected", zap.String("client_id", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetLiveStreamClients(int64(count))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- msg:
				default:
					h.logger.Warn("dropping slow live stream client", zap.String("client_id", id))
					close(client.send)
					delete(h.clients, id)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetLiveStreamClients(int64(count))
		}
	}
}

// Publish queues a telemetry message for broadcast. It never blocks the
// ingestion path: if the broadcast buffer is full the message is dropped.
func (h *Hub) Publish(kind string, payload interface{}) {
	msg := LiveMessage{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("marshal live message failed", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
	}
}

// ClientCount returns the number of connected live stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a live stream connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live stream upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) writePump(client *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one way. It exists to notice
// closes and keep pong handling alive.
func (h *Hub) readPump(client *liveClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.ctx.Done():
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(livePongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(livePongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if parsed.Host == allowed || origin == allowed {
			return true
		}
	}
	return false
}
