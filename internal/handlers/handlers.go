package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/hub"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/store"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/chance"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

const maxBodyBytes = 1 << 20

// ConversionCache is the read-through cache in front of Convert
type ConversionCache interface {
	GetConversion(ctx context.Context, kind chance.Kind, value float64) (*models.ConversionResponse, error)
	SetConversion(ctx context.Context, kind chance.Kind, value float64, resp *models.ConversionResponse) error
}

// ResultPublisher appends finished simulations to a stream
type ResultPublisher interface {
	Publish(ctx context.Context, result *models.SimulationResult) (string, error)
}

// Dependencies wires a Handler. Cache and Publisher are optional.
type Dependencies struct {
	Simulator      *calculator.Simulator
	Store          store.SimulationStore
	Hub            *hub.Hub
	Cache          ConversionCache
	Publisher      ResultPublisher
	Metrics        *metrics.Metrics
	Logger         log.Logger
	AllowedOrigins []string
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Dependencies
	ctx context.Context
}

// NewHandler creates a new handler. ctx outlives requests and bounds websocket pumps.
func NewHandler(ctx context.Context, deps Dependencies) *Handler {
	if deps.Logger == nil {
		deps.Logger = log.NewNopLogger()
	}
	return &Handler{Dependencies: deps, ctx: ctx}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	health := map[string]interface{}{
		"status":         "healthy",
		"service":        "chance-calculator",
		"active_clients": h.Hub.GetClientCount(),
		"cache_enabled":  h.Cache != nil,
		"stream_enabled": h.Publisher != nil,
	}

	if err := h.Store.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		health["status"] = "degraded"
		health["store_error"] = err.Error()
	}

	respondJSON(w, status, health)
}

// Convert returns a chance in every representation plus its complement
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var in models.ChanceInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := calculator.Parse(in)
	if err != nil {
		h.respondCalcError(w, err)
		return
	}
	h.Metrics.Conversions.WithLabelValues(c.Kind().String()).Inc()

	if h.Cache != nil {
		cached, err := h.Cache.GetConversion(r.Context(), c.Kind(), c.Value())
		switch {
		case err != nil:
			h.Metrics.CacheResults.WithLabelValues("error").Inc()
			level.Warn(h.Logger).Log("msg", "conversion cache read failed", "err", err)
		case cached != nil:
			h.Metrics.CacheResults.WithLabelValues("hit").Inc()
			respondJSON(w, http.StatusOK, cached)
			return
		default:
			h.Metrics.CacheResults.WithLabelValues("miss").Inc()
		}
	}

	resp, err := calculator.Convert(in)
	if err != nil {
		h.respondCalcError(w, err)
		return
	}

	if h.Cache != nil {
		if err := h.Cache.SetConversion(r.Context(), c.Kind(), c.Value(), resp); err != nil {
			level.Warn(h.Logger).Log("msg", "conversion cache write failed", "err", err)
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Complement returns the negated event's chance in the input's representation
func (h *Handler) Complement(w http.ResponseWriter, r *http.Request) {
	var in models.ChanceInput
	if !h.decode(w, r, &in) {
		return
	}

	view, err := calculator.Complement(in)
	if err != nil {
		h.respondCalcError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Compare orders two chances
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := calculator.Compare(req)
	if err != nil {
		h.respondCalcError(w, err)
		return
	}
	h.Metrics.Comparisons.Inc()
	respondJSON(w, http.StatusOK, resp)
}

// CreateSimulation runs, stores and fans out a simulation
func (h *Handler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Simulator.Run(r.Context(), req)
	if err != nil {
		h.respondCalcError(w, err)
		return
	}

	h.Metrics.Simulations.WithLabelValues(result.Kind, strconv.FormatBool(result.WithinTolerance)).Inc()
	h.Metrics.Trials.Add(float64(result.Trials))

	if err := h.Store.Save(r.Context(), result); err != nil {
		level.Error(h.Logger).Log("msg", "failed to store simulation", "simulation", result.ID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to store simulation")
		return
	}

	h.fanOut(r.Context(), result)

	level.Info(h.Logger).Log("msg", "simulation complete",
		"simulation", result.ID, "kind", result.Kind, "trials", result.Trials,
		"ratio", result.Ratio, "expected", result.Expected, "within_tolerance", result.WithinTolerance)
	respondJSON(w, http.StatusCreated, result)
}

// fanOut publishes to the stream when one is configured. The stream consumer
// then feeds the hub; without a stream the hub is fed directly.
func (h *Handler) fanOut(ctx context.Context, result *models.SimulationResult) {
	if h.Publisher != nil {
		_, err := h.Publisher.Publish(ctx, result)
		if err == nil {
			return
		}
		level.Warn(h.Logger).Log("msg", "stream publish failed, broadcasting locally", "simulation", result.ID, "err", err)
	}
	h.Hub.Broadcast(*result)
}

// ListSimulations returns recent simulations, newest first
func (h *Handler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.Store.List(r.Context(), limit)
	if err != nil {
		level.Error(h.Logger).Log("msg", "failed to list simulations", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulations": results,
		"count":       len(results),
	})
}

// GetSimulation returns one stored simulation
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("simulation %s not found", id))
		return
	}
	if err != nil {
		level.Error(h.Logger).Log("msg", "failed to get simulation", "simulation", id, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to get simulation")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

// respondCalcError maps domain errors to 422 and malformed input to 400
func (h *Handler) respondCalcError(w http.ResponseWriter, err error) {
	var domainErr *chance.DomainError
	switch {
	case errors.As(err, &domainErr):
		h.Metrics.DomainErrors.WithLabelValues(domainErr.Kind.String()).Inc()
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, calculator.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		level.Error(h.Logger).Log("msg", "calculation failed", "err", err)
		respondError(w, http.StatusInternalServerError, "calculation failed")
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
