package hub

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/client"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

const (
	broadcastBufferSize = 1000
	metricsInterval     = 30 * time.Second
)

// Hub maintains the set of active clients and fans simulation results out to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.SimulationResult
	register   chan *client.Client
	unregister chan *client.Client
	done       chan struct{}

	logger  log.Logger
	metrics *metrics.Metrics

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(logger log.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.SimulationResult, broadcastBufferSize),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
		logger:     log.With(logger, "component", "hub"),
		metrics:    m,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	level.Info(h.logger).Log("msg", "hub started")
	defer close(h.done)

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case result := <-h.broadcast:
			h.broadcastResult(result)
		}
	}
}

// Register adds a client to the hub. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *client.Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a result for every matching client, dropping it when the buffer is full
func (h *Hub) Broadcast(result models.SimulationResult) {
	select {
	case h.broadcast <- result:
	default:
		level.Warn(h.logger).Log("msg", "broadcast buffer full, dropping result", "simulation", result.ID)
		h.metrics.WSDropped.Inc()
	}
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()
	h.metrics.WSClients.Set(float64(len(h.clients)))

	level.Info(h.logger).Log("msg", "client connected", "client", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		h.metrics.WSClients.Set(float64(len(h.clients)))
		level.Info(h.logger).Log("msg", "client disconnected", "client", c.ID, "total", len(h.clients))
	}
}

// broadcastResult sends a result to every client whose filter matches.
// Clients with a full buffer are too slow and get disconnected.
func (h *Hub) broadcastResult(result models.SimulationResult) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeSimulation,
		Payload:   result,
		Timestamp: time.Now(),
	}

	sent, dropped := 0, 0
	for _, c := range clients {
		if !c.MatchesFilter(result) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		dropped++
		level.Warn(h.logger).Log("msg", "client buffer full, disconnecting", "client", c.ID)
		h.unregisterClient(c)
	}

	h.metrics.WSMessages.Add(float64(sent))
	h.metrics.WSDropped.Add(float64(dropped))
	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	level.Info(h.logger).Log("msg", "shutting down hub", "clients", len(h.clients))

	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	h.metrics.WSClients.Set(0)
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.GetMetrics()
			level.Debug(h.logger).Log("msg", "hub metrics",
				"clients", m["active_clients"],
				"total_connections", m["total_connections"],
				"messages", m["total_messages"])
		}
	}
}
