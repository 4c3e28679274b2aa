package events

import (
	"net/http"
	"sync"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/logger"
	"billing-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// StatusEvent is pushed to feed subscribers after a status change commits.
type StatusEvent struct {
	Type          string                `json:"type"`
	InvoiceID     string                `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	From          billing.InvoiceStatus `json:"from"`
	To            billing.InvoiceStatus `json:"to"`
	ChangedBy     string                `json:"changed_by"`
	Timestamp     time.Time             `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans status events out to websocket clients. Delivery is best effort:
// events are dropped when the queue is full and slow clients are disconnected.
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan StatusEvent
	stopChan   chan struct{}
	wg         sync.WaitGroup
	log        zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan StatusEvent, 64),
		stopChan:  make(chan struct{}),
		log:       logger.WithComponent("events"),
	}
}

// Start runs the broadcaster goroutine
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

// Stop ends the broadcaster and closes all client connections
func (h *Hub) Stop() {
	close(h.stopChan)
	h.wg.Wait()

	h.clientsMux.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.clientsMux.Unlock()
	metrics.WebsocketClients.Set(0)
}

// Publish queues an event without blocking the caller
func (h *Hub) Publish(evt StatusEvent) {
	if h == nil {
		return
	}
	if evt.Type == "" {
		evt.Type = "invoice.status_changed"
	}
	select {
	case h.broadcast <- evt:
	default:
		h.log.Warn().Str("invoice_id", evt.InvoiceID).Msg("event queue full, dropping status event")
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection until it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.clientsMux.Lock()
	h.clients[conn] = true
	metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.clientsMux.Unlock()

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.stopChan:
			return
		case evt := <-h.broadcast:
			h.clientsMux.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(evt); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.clientsMux.Unlock()
		}
	}
}
