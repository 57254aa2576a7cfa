package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"livepoll/internal/domain"
	"livepoll/internal/metrics"
	"livepoll/internal/service/poll"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8 * 1024
)

// SocketConfig tunes the per-connection transport
type SocketConfig struct {
	SendQueueSize int
	RatePerSecond float64
	Burst         int
	PingInterval  time.Duration
	// CheckOrigin decides whether a browser origin may connect
	CheckOrigin func(origin string) bool
}

func (c SocketConfig) withDefaults() SocketConfig {
	if c.SendQueueSize < 1 {
		c.SendQueueSize = 64
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 10
	}
	if c.Burst < 1 {
		c.Burst = 20
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	return c
}

// SocketHandler upgrades /ws requests and feeds intents into the coordinator
type SocketHandler struct {
	coord    *poll.Coordinator
	hub      *poll.Broadcaster
	cfg      SocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSocketHandler(coord *poll.Coordinator, hub *poll.Broadcaster, cfg SocketConfig, logger *zap.Logger) *SocketHandler {
	cfg = cfg.withDefaults()
	h := &SocketHandler{
		coord:  coord,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || cfg.CheckOrigin == nil {
				return true
			}
			return cfg.CheckOrigin(origin)
		},
	}
	return h
}

// ServeWS handles GET /ws. It blocks until the connection closes.
func (h *SocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an error response
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, h.cfg, h.logger)
	log := h.logger.With(zap.String("connection_id", c.id))

	h.hub.Register(c)
	metrics.ConnectionOpened()
	log.Info("Connection opened", zap.String("remote_addr", r.RemoteAddr))

	go c.writePump(h.cfg.PingInterval)
	c.readPump(2*h.cfg.PingInterval, h.handleMessage)

	h.hub.Unregister(c.id)
	h.coord.Disconnect(c.id)
	c.Close()
	metrics.ConnectionClosed()
	log.Info("Connection closed")
}

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Type domain.EventType `json:"type"`
	Data domain.Event     `json:"data"`
}

// client is one WebSocket connection. It implements poll.Connection.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan domain.Event
	limiter *rate.Limiter
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, cfg SocketConfig, logger *zap.Logger) *client {
	return &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan domain.Event, cfg.SendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  logger,
	}
}

func (c *client) ID() string { return c.id }

// Deliver queues ev without blocking. A full queue means the peer stopped
// keeping up: the event is dropped and the connection is closed, so the read
// pump fails and the client has to reconnect and resync.
func (c *client) Deliver(ev domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		metrics.IncEventDropped()
		c.logger.Warn("Send queue full, closing connection",
			zap.String("connection_id", c.id),
			zap.String("event", string(ev.Type())))
		c.closeLocked()
		return false
	}
}

// Close stops delivery and closes the socket. Safe to call more than once.
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

func (c *client) readPump(pongWait time.Duration, handle func(*client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Info("Connection read failed", zap.String("connection_id", c.id), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		handle(c, data)
	}
}

func (c *client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(outboundEnvelope{Type: ev.Type(), Data: ev}); err != nil {
				c.logger.Debug("Connection write failed", zap.String("connection_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
