package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/peer-relay/internal/codec"
	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/mossy-p/peer-relay/internal/signaling"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultSendBuffer      = 256
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageBytes = 64 * 1024
)

var (
	ErrBackpressure     = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// SignalingOptions tunes the WebSocket transport. Zero values fall back to defaults.
type SignalingOptions struct {
	SendBuffer      int
	PongWait        time.Duration
	MaxMessageBytes int64
}

// SignalingHandler adapts WebSocket connections to the signaling router.
// It assigns every connection its session id and turns the end of a
// connection into exactly one Disconnect.
type SignalingHandler struct {
	router   *signaling.Router
	codec    codec.Codec
	upgrader websocket.Upgrader
	opts     SignalingOptions

	mu       sync.Mutex
	clients  map[string]*Client
	shutdown bool
}

func NewSignalingHandler(router *signaling.Router, c codec.Codec, opts SignalingOptions) *SignalingHandler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = defaultMaxMessageBytes
	}
	return &SignalingHandler{
		router: router,
		codec:  c,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin checking is handled by middleware
				return true
			},
		},
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn

	codec codec.Codec
	send  chan []byte

	mu     sync.RWMutex
	closed bool
}

// Send encodes ev and queues it without blocking. A full queue means the
// client cannot keep up; the connection is closed and the client will be
// disconnected by its read pump.
func (c *Client) Send(ev models.Event) error {
	data, err := c.codec.Marshal(ev)
	if err != nil {
		return err
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
		return nil
	default:
	}
	c.mu.RUnlock()

	log.Warn().Str("module", "handlers").Str("sid", c.ID).Msg("send buffer full, dropping connection")
	c.Close()
	_ = c.Conn.Close()
	return ErrBackpressure
}

// Close stops accepting events. The write pump flushes what is queued, sends
// a close frame and closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// HandleSignaling upgrades the request and runs the connection
func (h *SignalingHandler) HandleSignaling(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "handlers").Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		ID:    uuid.NewString(),
		Conn:  conn,
		codec: h.codec,
		send:  make(chan []byte, h.opts.SendBuffer),
	}

	if !h.track(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	if err := h.router.Connect(client.ID, client); err != nil {
		log.Error().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("failed to register session")
		h.untrack(client)
		_ = conn.Close()
		return
	}

	log.Info().Str("module", "handlers").Str("sid", client.ID).Str("remote", conn.RemoteAddr().String()).Msg("peer connected")

	// Start goroutines for reading and writing
	go h.writePump(client)
	go h.readPump(client)
}

// CloseAll closes every live connection and refuses new ones. Each closed
// connection goes through the normal disconnect path.
func (h *SignalingHandler) CloseAll() {
	h.mu.Lock()
	h.shutdown = true
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
	log.Info().Str("module", "handlers").Int("connections", len(clients)).Msg("closed signaling connections")
}

// ConnectionCount returns the number of live connections
func (h *SignalingHandler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *SignalingHandler) track(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return false
	}
	h.clients[client.ID] = client
	return true
}

func (h *SignalingHandler) untrack(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
}

func (h *SignalingHandler) readPump(client *Client) {
	defer func() {
		h.router.Disconnect(client.ID)
		h.untrack(client)
		client.Close()
		log.Info().Str("module", "handlers").Str("sid", client.ID).Msg("peer disconnected")
	}()

	conn := client.Conn
	conn.SetReadLimit(h.opts.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("websocket error")
			}
			return
		}
		if err := h.dispatch(client, message); err != nil {
			log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("malformed frame, closing connection")
			return
		}
	}
}

// dispatch routes one inbound frame. It only fails when the frame is not an
// envelope at all; bad payloads are dropped.
func (h *SignalingHandler) dispatch(client *Client, message []byte) error {
	var env models.Envelope
	if err := h.codec.Unmarshal(message, &env); err != nil {
		return err
	}

	switch env.Type {
	case models.EventJoinRoom:
		var req models.JoinRequest
		if err := h.codec.Unmarshal(env.Payload, &req); err != nil {
			log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("bad join-room payload")
			return nil
		}
		if err := h.router.Join(client.ID, req); err != nil {
			log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("join rejected")
		}
	case models.EventSignal:
		var req models.SignalRequest
		if err := h.codec.Unmarshal(env.Payload, &req); err != nil {
			log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("bad signal payload")
			return nil
		}
		h.router.Relay(client.ID, req)
	default:
		log.Warn().Str("module", "handlers").Str("sid", client.ID).Str("type", string(env.Type)).Msg("unknown event type")
	}
	return nil
}

func (h *SignalingHandler) writePump(client *Client) {
	ticker := time.NewTicker(h.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	conn := client.Conn
	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := conn.WriteMessage(h.codec.FrameType(), message); err != nil {
				log.Warn().Err(err).Str("module", "handlers").Str("sid", client.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
