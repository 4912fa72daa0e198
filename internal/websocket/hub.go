package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Frame types pushed to dashboards
const (
	FrameActivity      = "activity"
	FrameNotifications = "notifications"
	FrameConnection    = "connection"
	FrameError         = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// Frame is one JSON message sent to a dashboard
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ConnectionState is the data of a connection frame
type ConnectionState struct {
	Connected bool `json:"connected"`
	Terminal  bool `json:"terminal,omitempty"`
}

// ErrorData is the data of an error frame
type ErrorData struct {
	Message string `json:"message"`
}

// SessionFactory creates the realtime service backing one connection
type SessionFactory func() RealtimeSession

// RealtimeSession is the part of AdminRealtimeService a connection drives
type RealtimeSession interface {
	Initialize(ctx context.Context, adminID uuid.UUID, callbacks services.RealtimeCallbacks) error
	RefreshActivityFeed(ctx context.Context) ([]models.ActivityFeedItem, error)
	RefreshNotifications(ctx context.Context, adminID uuid.UUID) ([]models.SystemNotification, error)
	Cleanup()
}

// Hub tracks the open dashboard connections
type Hub struct {
	newSession SessionFactory
	upgrader   websocket.Upgrader
	logger     *logrus.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// Client is one dashboard connection
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	adminID uuid.UUID
	session RealtimeSession
	log     *logrus.Entry

	closeOnce sync.Once
	done      chan struct{}
}

// NewHub creates a hub. allowedOrigins empty or containing "*" accepts any origin.
func NewHub(newSession SessionFactory, allowedOrigins []string, logger *logrus.Logger) *Hub {
	h := &Hub{
		newSession: newSession,
		logger:     logger,
		clients:    make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || origin == "" || set[origin]
	}
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll closes every open connection
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Serve upgrades the request and runs a dashboard session for adminID until the socket closes
func (h *Hub) Serve(c *gin.Context, adminID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		adminID: adminID,
		session: h.newSession(),
		log:     h.logger.WithField("admin_id", adminID),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	client.log.Info("Dashboard connected")

	go client.writePump()
	client.start()
	client.readPump()
}

func (c *Client) start() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c.done
		cancel()
	}()

	callbacks := services.RealtimeCallbacks{
		OnActivityUpdate: func(items []models.ActivityFeedItem) {
			c.push(FrameActivity, items)
		},
		OnNotificationUpdate: func(items []models.SystemNotification) {
			c.push(FrameNotifications, items)
		},
		OnConnectionChange: func(connected bool) {
			c.push(FrameConnection, ConnectionState{Connected: connected})
		},
		OnError: func(err error) {
			c.push(FrameError, ErrorData{Message: err.Error()})
		},
		OnTerminalFailure: func(err error) {
			c.push(FrameConnection, ConnectionState{Connected: false, Terminal: true})
			c.push(FrameError, ErrorData{Message: err.Error()})
		},
	}

	if err := c.session.Initialize(ctx, c.adminID, callbacks); err != nil {
		c.log.WithError(err).Warn("Realtime subscription failed, retrying in background")
	}
	c.refresh(ctx)
}

// refresh pushes the current activity feed and notifications
func (c *Client) refresh(ctx context.Context) {
	if items, err := c.session.RefreshActivityFeed(ctx); err != nil {
		c.push(FrameError, ErrorData{Message: "Failed to load activity feed"})
	} else {
		c.push(FrameActivity, items)
	}
	if items, err := c.session.RefreshNotifications(ctx, c.adminID); err != nil {
		c.push(FrameError, ErrorData{Message: "Failed to load notifications"})
	} else {
		c.push(FrameNotifications, items)
	}
}

func (c *Client) push(frameType string, data interface{}) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		c.log.WithError(err).Error("Failed to encode frame")
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.log.WithField("type", frameType).Warn("Dashboard too slow, dropping frame")
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.session.Cleanup()
		c.conn.Close()

		c.hub.mu.Lock()
		delete(c.hub.clients, c)
		c.hub.mu.Unlock()
		c.log.Info("Dashboard disconnected")
	})
}

// readPump handles client requests. The only one understood is {"type":"refresh"}.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.push(FrameError, ErrorData{Message: "Malformed message"})
			continue
		}
		switch msg.Type {
		case "refresh":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			c.refresh(ctx)
			cancel()
		case "ping":
		default:
			c.push(FrameError, ErrorData{Message: "Unknown message type " + msg.Type})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("WebSocket write error")
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
