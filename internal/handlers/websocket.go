package handlers

import (
	"net/http"
	"slices"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/client"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header and those the CORS list allows
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.AllowedOrigins, "*") || slices.Contains(h.AllowedOrigins, origin)
}

// HandleWebSocket upgrades the connection and streams simulation results to it
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		level.Warn(h.Logger).Log("msg", "websocket upgrade failed", "err", err)
		return
	}

	c := client.NewClient(uuid.NewString(), conn, h.Hub, h.Logger)
	h.Hub.Register(c)

	// pumps outlive the request
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)
}

// HubMetrics returns hub counters as JSON
func (h *Handler) HubMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Hub.GetMetrics())
}
