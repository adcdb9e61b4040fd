package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yegors/co-wx/pkg/logger"
)

// Client to server message types
const (
	MessageTypeInput            = "input"             // {"text": "..."}
	MessageTypeSubmit           = "submit"            // {"text": "..."}
	MessageTypeBlur             = "blur"              // {"text": "..."}
	MessageTypeSelectSuggestion = "select_suggestion" // {"text": "Москва, RU"}
	MessageTypeGeolocation      = "geolocation"       // {"lat": 55.7, "lon": 37.6} or {"error": "denied"}
	MessageTypeRefresh          = "refresh"
	MessageTypeView             = "view"       // {"view": "daily" | "hourly"}
	MessageTypeSelectDay        = "select_day" // {"index": 2}
	MessageTypeBack             = "back"
	MessageTypeDismiss          = "dismiss" // click outside the search block
)

// Server to client message types
const (
	MessageTypeRender      = "render"      // full display tree
	MessageTypeSuggestions = "suggestions" // suggestion list subtree
	MessageTypeError       = "error"
)

const (
	sendBufferSize = 64
	maxMessageSize = 64 * 1024
	writeWait      = 10 * time.Second
)

// Message represents an outgoing WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// incoming is a message as read from the browser; Data is decoded by the handler
type incoming struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessageHandler defines the interface for handling WebSocket client lifecycle and messages
type MessageHandler interface {
	OnConnect(client *Client)
	HandleMessage(client *Client, messageType string, data json.RawMessage) error
	OnDisconnect(client *Client)
}

// Client represents a WebSocket client
type Client struct {
	id         string
	lang       string
	remoteAddr string
	conn       *websocket.Conn
	send       chan *Message
	server     *Server
	mu         sync.Mutex
	closed     bool
	closeChan  chan struct{}
}

// Server represents a WebSocket server
type Server struct {
	clients        map[*Client]bool
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
	upgrader       websocket.Upgrader
	logger         *logger.Logger
	mu             sync.RWMutex
	messageHandler MessageHandler // Handler for incoming messages
}

// NewServer creates a new WebSocket server
func NewServer(log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: log.Named("web-socket"),
	}
}

// SetMessageHandler sets the message handler for incoming WebSocket messages
func (s *Server) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

// Run starts the WebSocket server and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("Starting WebSocket server")
	defer close(s.done)

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered",
				logger.String("client_id", client.id),
				logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				s.closeSend(client)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered",
				logger.String("client_id", client.id),
				logger.Int("client_count", clientCount))

		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				s.closeSend(client)
			}
			s.mu.Unlock()
			s.logger.Info("WebSocket server stopped")
			return
		}
	}
}

// closeSend marks the client closed and closes its send channel once
func (s *Server) closeSend(client *Client) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.send == nil {
		return
	}
	client.closed = true
	close(client.send)
	client.send = nil
}

// ClientCount returns the number of registered clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleConnection handles a WebSocket connection
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Handling new WebSocket connection request",
		logger.String("remote_addr", r.RemoteAddr),
		logger.String("user_agent", r.UserAgent()))

	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}

	// Create client
	client := &Client{
		id:         uuid.NewString(),
		lang:       lang,
		remoteAddr: r.RemoteAddr,
		conn:       conn,
		send:       make(chan *Message, sendBufferSize),
		server:     s,
		closeChan:  make(chan struct{}),
	}

	// Register client
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	s.logger.Debug("Successfully upgraded connection to WebSocket",
		logger.String("client_id", client.id),
		logger.String("remote_addr", r.RemoteAddr))

	if s.messageHandler != nil {
		s.messageHandler.OnConnect(client)
	}

	// Start client goroutines
	go client.readPump()
	go client.writePump()
}

// ID returns the unique client identifier
func (c *Client) ID() string {
	return c.id
}

// Lang returns the language requested by the client (query parameter or
// Accept-Language header)
func (c *Client) Lang() string {
	if i := strings.IndexAny(c.lang, ",;"); i >= 0 {
		return strings.TrimSpace(c.lang[:i])
	}
	return strings.TrimSpace(c.lang)
}

// readPump pumps messages from the WebSocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		if c.server.messageHandler != nil {
			c.server.messageHandler.OnDisconnect(c)
		}
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		// Read message
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		// Parse incoming message
		var message incoming
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Error("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", message.Type),
			logger.String("client_id", c.id))

		// Handle message if handler is set
		if c.server.messageHandler != nil {
			if err := c.server.messageHandler.HandleMessage(c, message.Type, message.Data); err != nil {
				c.server.logger.Warn("Failed to handle WebSocket message",
					logger.Error(err),
					logger.String("type", message.Type))
				c.SendMessage(&Message{Type: MessageTypeError, Data: map[string]string{"message": err.Error()}})
			}
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()

	defer c.conn.Close()

	if send == nil {
		return
	}

	for {
		select {
		case message, ok := <-send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Marshal message to JSON
			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message", logger.Error(err))
				continue
			}

			c.server.logger.Debug("Sending message to client",
				logger.String("message_type", message.Type),
				logger.Int("message_length", len(data)))

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
	c.conn.Close()
}

// SendMessage sends a message to this specific client. It never blocks;
// the message is dropped when the client is closed or its buffer is full.
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if client is closed
	if c.closed || c.send == nil {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		c.server.logger.Warn("Client send buffer full, dropping message",
			logger.String("client_id", c.id),
			logger.String("message_type", message.Type))
		return false
	}
}
