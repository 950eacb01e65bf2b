package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/logging"
)

// Frame types exchanged on the event socket.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameAck         = "ack"
	FrameError       = "error"
)

// Event channels.
const (
	// ChannelStateChanged carries the committed device tree after every write.
	ChannelStateChanged = "state.changed"
	// ChannelDiagnostic carries commands that were ignored or rejected.
	ChannelDiagnostic = "diagnostic"
)

var knownChannels = map[string]bool{
	ChannelStateChanged: true,
	ChannelDiagnostic:   true,
}

// outboxSize is the number of frames queued per subscriber before new
// events are dropped for it.
const outboxSize = 64

// Frame is one JSON message on the socket, in either direction.
type Frame struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channel  string   `json:"channel,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Time     string   `json:"time,omitempty"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Hub fans state and diagnostic events out to socket subscribers.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// subscriber is one connected socket. conn is nil for in-process
// subscribers used in tests.
type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	outbox chan []byte

	mu       sync.Mutex
	channels map[string]bool
	closed   bool
	dropped  int
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // CORS middleware filters origins
	},
}

// NewHub creates a hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.close()
		if s.conn != nil {
			s.conn.Close()
		}
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("websocket subscriber connected", "subscribers", n)
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	s.close()
	h.logger.Debug("websocket subscriber disconnected", "subscribers", n, "dropped", s.droppedFrames())
}

// Broadcast sends payload as an event on channel to every subscriber of
// that channel. Subscribers with a full outbox miss the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(Frame{
		Type:    FrameEvent,
		Channel: channel,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Data:    payload,
	})
	if err != nil {
		h.logger.Error("failed to encode event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.wants(channel) {
			s.push(data)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func newSubscriber(h *Hub, conn *websocket.Conn) *subscriber {
	return &subscriber{
		hub:      h,
		conn:     conn,
		outbox:   make(chan []byte, outboxSize),
		channels: make(map[string]bool),
	}
}

func (s *subscriber) wants(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[channel]
}

// push queues data without blocking.
func (s *subscriber) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.outbox <- data:
	default:
		s.dropped++
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.outbox)
	}
}

func (s *subscriber) droppedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *subscriber) reply(f Frame) {
	f.Time = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	s.push(data)
}

// handle applies one client frame.
func (s *subscriber) handle(raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		s.reply(Frame{Type: FrameError, Error: "invalid JSON frame"})
		return
	}

	switch f.Type {
	case FrameSubscribe, FrameUnsubscribe:
		var unknown []string
		s.mu.Lock()
		for _, ch := range f.Channels {
			if !knownChannels[ch] {
				unknown = append(unknown, ch)
				continue
			}
			s.channels[ch] = f.Type == FrameSubscribe
		}
		s.mu.Unlock()

		if len(unknown) > 0 {
			s.reply(Frame{Type: FrameError, ID: f.ID, Error: "unknown channels: " + strings.Join(unknown, ", ")})
			return
		}
		s.reply(Frame{Type: FrameAck, ID: f.ID, Channels: f.Channels})
	case FramePing:
		s.reply(Frame{Type: FramePong, ID: f.ID})
	default:
		s.reply(Frame{Type: FrameError, ID: f.ID, Error: "unknown frame type: " + f.Type})
	}
}

// handleWebSocket upgrades to the event socket. Nothing is sent until the
// client subscribes to a channel.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := newSubscriber(s.hub, conn)
	s.hub.add(sub)

	go sub.writeLoop(s.wsCfg)
	go sub.readLoop(s.wsCfg)
}

func (s *subscriber) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		s.hub.remove(s)
		s.conn.Close()
	}()

	deadline := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func() error { return s.conn.SetReadDeadline(time.Now().Add(deadline)) }

	s.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend() //nolint:errcheck // a failed deadline surfaces as a read error
	s.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // as above
		s.handle(raw)
	}
}

func (s *subscriber) writeLoop(cfg config.WebSocketConfig) {
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error reported below
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error reported below
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
