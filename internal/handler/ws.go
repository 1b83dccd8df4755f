package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"worktrack/internal/events"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	// Heartbeat interval
	pingInterval = 30 * time.Second
	// Write timeout
	writeTimeout = 10 * time.Second
)

// Subscriber is the part of the event bus the hub reads from
type Subscriber interface {
	Subscribe(subject string, h events.Handler) (func(), error)
}

// LiveMessage is one event pushed to websocket clients
type LiveMessage struct {
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// WSMessage represents a WebSocket message from client
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type broadcast struct {
	employeeID string
	data       []byte
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *LiveHub

	mu         sync.RWMutex
	employeeID string // empty means every employee

	sendMu sync.Mutex
	closed bool // Send is closed; guarded by sendMu
}

// LiveHub fans bus events out to connected managers
type LiveHub struct {
	bus         Subscriber
	clients     map[*Client]bool
	broadcast   chan broadcast
	register    chan *Client
	unregister  chan *Client
	stop        chan struct{}
	unsubscribe func()
	mu          sync.RWMutex
}

// NewLiveHub creates a new hub reading from bus
func NewLiveHub(bus Subscriber) *LiveHub {
	return &LiveHub{
		bus:        bus,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcast, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run subscribes to every event and runs the hub's loop until Stop
func (h *LiveHub) Run() {
	unsubscribe, err := h.bus.Subscribe(events.SubjectAll, h.onEvent)
	if err != nil {
		log.Printf("[WS] Failed to subscribe to events: %v", err)
		return
	}
	h.unsubscribe = unsubscribe
	log.Println("[WS] Hub started, subscribed to attendance, movement and location events")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s, total clients: %d", client.ID, n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client disconnected: %s, total clients: %d", client.ID, n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var full []*Client
			for client := range h.clients {
				if !client.wants(msg.employeeID) {
					continue
				}
				if !client.send(msg.data) {
					full = append(full, client)
				}
			}
			h.mu.RUnlock()

			// slow clients are dropped
			for _, client := range full {
				h.drop(client)
			}

		case <-h.stop:
			return
		}
	}
}

func (h *LiveHub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
}

// onEvent is called by the bus for every published event
func (h *LiveHub) onEvent(subject string, payload []byte) {
	data, err := json.Marshal(LiveMessage{Type: eventType(subject), Subject: subject, Data: payload})
	if err != nil {
		log.Printf("[WS] Failed to marshal broadcast message: %v", err)
		return
	}

	// an event without a readable owner reaches only clients following everyone
	var owner struct {
		EmployeeID string `json:"employee_id"`
	}
	if err := json.Unmarshal(payload, &owner); err != nil {
		log.Printf("[WS] No employee_id in %s payload: %v", subject, err)
	}

	select {
	case h.broadcast <- broadcast{employeeID: owner.EmployeeID, data: data}:
	default:
		log.Printf("[WS] Broadcast queue full, dropping %s", subject)
	}
}

// eventType is the second subject token: attendance, movement or location
func eventType(subject string) string {
	parts := strings.Split(subject, ".")
	if len(parts) > 1 {
		return parts[1]
	}
	return subject
}

// Stop stops the hub and closes every client
func (h *LiveHub) Stop() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	close(h.stop)

	h.mu.Lock()
	for client := range h.clients {
		client.close()
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// send queues data without blocking; false when the queue is full or closed
func (c *Client) send(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) wants(employeeID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.employeeID == "" || c.employeeID == employeeID
}

func (c *Client) follow(employeeID string) {
	c.mu.Lock()
	c.employeeID = employeeID
	c.mu.Unlock()
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.stop:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(64 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Client %s read error: %v", c.ID, err)
			}
			break
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			continue
		}
		switch wsMsg.Type {
		case "subscribe":
			// an empty employee_id follows everyone again
			var data struct {
				EmployeeID string `json:"employee_id"`
			}
			if err := json.Unmarshal(wsMsg.Data, &data); err == nil {
				c.follow(data.EmployeeID)
				log.Printf("[WS] Client %s following employee %q", c.ID, data.EmployeeID)
			}
		case "ping":
			c.send([]byte(`{"type":"pong"}`))
		}
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub *LiveHub
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(hub *LiveHub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleLive streams attendance, movement and location events
// @Summary Live event feed
// @Description Websocket feed for managers. Pass the bearer token as the token query parameter.
// @Tags Live
// @Param token query string true "Bearer token"
// @Param employee_id query string false "Only events of this employee"
// @Router /ws/live [get]
func (h *WSHandler) HandleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:         uuid.New().String(),
		Conn:       conn,
		Send:       make(chan []byte, 256),
		Hub:        h.hub,
		employeeID: c.Query("employee_id"),
	}
	select {
	case client.Hub.register <- client:
	case <-client.Hub.stop:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	welcome := map[string]interface{}{
		"type":      "connected",
		"client_id": client.ID,
		"viewer":    caller(c).EmployeeID,
	}
	if data, err := json.Marshal(welcome); err == nil {
		client.send(data)
	}
}

// Stats returns hub statistics
// @Summary Live feed stats
// @Tags Live
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /ws/stats [get]
func (h *WSHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connected_clients": h.hub.ClientCount()})
}
