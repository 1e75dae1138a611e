package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Options controls upgrade and keepalive behavior for the realtime feed.
// Zero values fall back to sensible defaults.
type Options struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	MaxConnections    int
	EnableCompression bool
	AllowedOrigins    []string
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = 1024
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = 1024
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = 10 * time.Second
	}
	if out.PongTimeout <= 0 {
		out.PongTimeout = 60 * time.Second
	}
	if out.PingInterval <= 0 || out.PingInterval >= out.PongTimeout {
		out.PingInterval = (out.PongTimeout * 9) / 10
	}
	return &out
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	maxConns int
}

func NewHandler(opts *Options) *Handler {
	opts = opts.withDefaults()

	hub := NewHub(opts.PingInterval, opts.PongTimeout)
	go hub.Run()

	return &Handler{
		hub:      hub,
		maxConns: opts.MaxConnections,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    opts.ReadBufferSize,
			WriteBufferSize:   opts.WriteBufferSize,
			HandshakeTimeout:  opts.HandshakeTimeout,
			EnableCompression: opts.EnableCompression,
			CheckOrigin:       originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin header.
		return origin == "" || set[origin]
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userType, exists := c.Get("user_type")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User type not found"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userTypeStr, ok := userType.(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user type"})
		return
	}

	if h.maxConns > 0 && h.hub.ClientCount() >= h.maxConns {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Connection limit reached"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, userObjectID, userTypeStr)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// SendDeliveryUpdate pushes an event to everyone watching a delivery.
func (h *Handler) SendDeliveryUpdate(deliveryID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    "delivery_" + deliveryID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendDeliveryUpdate(deliveryID, message)
}

// SendOrderUpdate pushes a reduced event to the order-scoped channel.
func (h *Handler) SendOrderUpdate(orderID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    "order_" + orderID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendOrderUpdate(orderID, message)
}

func (h *Handler) SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	message := Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToUser(userID, message)
}

func (h *Handler) SendOpsAlert(alertType string, data map[string]interface{}) {
	message := Message{
		Type:      alertType,
		RoomID:    "ops_issues",
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendOpsAlert(message)
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
