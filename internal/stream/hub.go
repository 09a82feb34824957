// Package stream broadcasts a live session to websocket clients.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library"
	"github.com/SeamusWaldron/giiker_ble_library/internal/codec"
	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// StateSource provides the snapshot served on connect and on /state.
type StateSource interface {
	State() giiker.VisibleState
}

// Hub fans session events out to every connected websocket client.
type Hub struct {
	codec    codec.Codec
	source   StateSource
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub encoding events with c. source may be nil.
func NewHub(c codec.Codec, source StateSource, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		codec:   c,
		source:  source,
		log:     log.Named("stream"),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Attach subscribes the hub to a session's events. It replaces any
// callbacks previously set on the session.
func (h *Hub) Attach(s *giiker.Session) {
	s.OnFrame(func(f giiker.Frame) {
		if f.Move != nil {
			ev := codec.NewEvent(codec.EventMove, f.Time)
			m := codec.FromMove(*f.Move)
			ev.Move = &m
			ev.Frame = protocol.FormatHex(f.Data)
			h.Publish(ev)
		}
		if f.Err != nil {
			ev := codec.NewEvent(codec.EventError, f.Time)
			ev.Frame = protocol.FormatHex(f.Data)
			ev.Error = f.Err.Error()
			h.Publish(ev)
		}
		if f.Err == nil || f.Move != nil {
			ev := codec.NewEvent(codec.EventState, f.Time)
			st := codec.FromState(s.State())
			ev.State = &st
			h.Publish(ev)
		}
	})
	s.OnDisconnect(func(err error) {
		ev := codec.NewEvent(codec.EventDisconnect, time.Now())
		if err != nil {
			ev.Error = err.Error()
		}
		h.Publish(ev)
	})
}

// PublishBattery sends a battery reading to every client.
func (h *Hub) PublishBattery(level int) {
	ev := codec.NewEvent(codec.EventBattery, time.Now())
	ev.Battery = &level
	h.Publish(ev)
}

// Publish encodes ev once and queues it for every client. Clients whose
// queue is full are dropped.
func (h *Hub) Publish(ev codec.Event) {
	data, err := h.codec.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("client too slow, dropping", zap.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) messageType() int {
	if h.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// ServeWS upgrades the request and streams events until the client leaves.
// The current state is sent first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	if h.source != nil {
		ev := codec.NewEvent(codec.EventState, time.Now())
		st := codec.FromState(h.source.State())
		ev.State = &st
		if data, err := h.codec.Marshal(ev); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.readPump(c)
	h.writePump(c)
}

// readPump discards client messages and unregisters the client when the
// connection drops.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(h.messageType(), data); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// ServeState writes the current state with the hub's codec.
func (h *Hub) ServeState(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		http.Error(w, "no session", http.StatusServiceUnavailable)
		return
	}
	data, err := h.codec.Marshal(codec.FromState(h.source.State()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.codec.Binary() {
		w.Header().Set("Content-Type", "application/"+h.codec.Name())
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write(data)
}

// Handler routes /ws and /state.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/state", h.ServeState)
	return mux
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
