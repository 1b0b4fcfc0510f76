package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// message types pushed to browser clients
const (
	TypeStatus    = "status"
	TypeDevices   = "devices"
	TypeEntries   = "entries"
	TypeAlert     = "alert"
	TypeBeep      = "beep"
	TypeVibrate   = "vibrate"
	TypeHighlight = "highlight"
	TypeToast     = "toast"
)

// Message - envelope of every websocket push
type Message struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// DevicesData - camera selector contents
type DevicesData struct {
	Devices  []camera.Device `json:"devices"`
	Selected string          `json:"selected"`
}

// ToastData - toast visibility and text
type ToastData struct {
	Visible bool   `json:"visible"`
	Value   string `json:"value,omitempty"`
}

// ToneData - success tone parameters
type ToneData struct {
	Frequency  int   `json:"frequency"`
	DurationMs int64 `json:"durationMs"`
}

// Client - connected browser
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub - websocket view, every UI change is broadcast to all connected browsers
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	// closed once Run returns
	done chan struct{}

	mtx     sync.RWMutex
	clients map[*Client]bool

	// last known state, replayed to clients joining later
	stateMtx sync.RWMutex
	status   camera.StatusReport
	devices  DevicesData
	entries  []scanning.Entry

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHub - Hub constructor
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client, 10),
		unregister: make(chan *Client, 10),
		broadcast:  make(chan []byte, 100),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		status:     camera.StatusReport{State: camera.StatusIdle},
		entries:    []scanning.Entry{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logging.OrDiscard(log),
	}
}

// Run - dispatches registrations and broadcasts until the context is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mtx.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mtx.Unlock()
			close(h.done)
			return

		case c := <-h.register:
			h.mtx.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mtx.Unlock()
			h.log.Debug("websocket client connected", "client", c.ID, "clients", n)
			for _, msg := range h.snapshot() {
				c.send <- msg
			}

		case c := <-h.unregister:
			h.mtx.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mtx.Unlock()
			h.log.Debug("websocket client disconnected", "client", c.ID)

		case msg := <-h.broadcast:
			h.mtx.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn(fmt.Sprintf("websocket client %s is not reading, dropping it", c.ID))
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mtx.Unlock()
		}
	}
}

// Clients - number of connected browsers
func (h *Hub) Clients() int {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	return len(h.clients)
}

// ServeHTTP - upgrades the request and attaches the browser to the hub
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "scanner is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(fmt.Sprintf("websocket upgrade failed: %s", err))
		return
	}
	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) SetStatus(report camera.StatusReport) {
	h.stateMtx.Lock()
	h.status = report
	h.stateMtx.Unlock()
	h.publish(TypeStatus, report)
}

func (h *Hub) SetDevices(devices []camera.Device, selectedID string) {
	data := DevicesData{Devices: devices, Selected: selectedID}
	if data.Devices == nil {
		data.Devices = []camera.Device{}
	}
	h.stateMtx.Lock()
	h.devices = data
	h.stateMtx.Unlock()
	h.publish(TypeDevices, data)
}

func (h *Hub) RenderEntries(entries []scanning.Entry) {
	h.stateMtx.Lock()
	h.entries = entries
	h.stateMtx.Unlock()
	h.publish(TypeEntries, entries)
}

func (h *Hub) Alert(message string) {
	h.publish(TypeAlert, message)
}

// Beep - asks browsers to play the success tone
func (h *Hub) Beep() error {
	h.publish(TypeBeep, ToneData{Frequency: BeepFrequency, DurationMs: BeepDuration.Milliseconds()})
	return nil
}

// Vibrate - browsers vibrate when they support it, false when nobody listens
func (h *Hub) Vibrate(d time.Duration) bool {
	if h.Clients() == 0 {
		return false
	}
	h.publish(TypeVibrate, d.Milliseconds())
	return true
}

func (h *Hub) Highlight(on bool) {
	h.publish(TypeHighlight, on)
}

func (h *Hub) ShowToast(value string) {
	h.publish(TypeToast, ToastData{Visible: true, Value: value})
}

func (h *Hub) HideToast() {
	h.publish(TypeToast, ToastData{Visible: false})
}

func (h *Hub) publish(kind string, data any) {
	b, err := encode(kind, data)
	if err != nil {
		h.log.Error(fmt.Sprintf("cannot encode %s message: %s", kind, err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn(fmt.Sprintf("websocket broadcast queue full, dropping %s message", kind))
	}
}

func (h *Hub) snapshot() [][]byte {
	h.stateMtx.RLock()
	defer h.stateMtx.RUnlock()
	var res [][]byte
	for _, m := range []struct {
		kind string
		data any
	}{
		{TypeStatus, h.status},
		{TypeDevices, h.devices},
		{TypeEntries, h.entries},
	} {
		if b, err := encode(m.kind, m.data); err == nil {
			res = append(res, b)
		}
	}
	return res
}

func encode(kind string, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      kind,
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	})
}

// readPump - drains the connection so control frames are handled, browsers send nothing
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
