package sink

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

// Handler exposes the sink over HTTP.
type Handler struct {
	service SinkService
}

func NewHandler(service SinkService) *Handler {
	return &Handler{service: service}
}

// Routes registers the sink endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.HandleReceive)
	mux.HandleFunc("GET /api/deliveries", h.HandleListDeliveries)
	mux.HandleFunc("GET /api/deliveries/{requestId}", h.HandleGetDeliveries)
	mux.HandleFunc("DELETE /api/deliveries", h.HandleReset)
	mux.HandleFunc("PUT /api/responses", h.HandleScriptResponses)
	mux.HandleFunc("GET /health", h.HandleHealth)
	return mux
}

// HandleReceive handles POST /webhook
// Answers with the next scripted status, or the default one.
func (h *Handler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	delivery, err := h.service.Receive(ctx, body)
	if err != nil {
		slog.WarnContext(ctx, "rejected webhook delivery", "error", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSONResponse(w, delivery.ResponseStatus, map[string]any{
		"received":  delivery.ResponseStatus == http.StatusOK,
		"requestId": delivery.RequestID,
	})
}

// HandleListDeliveries handles GET /api/deliveries?hsCode=
func (h *Handler) HandleListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deliveries, err := h.service.ListDeliveries(ctx, r.URL.Query().Get("hsCode"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list deliveries", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to list deliveries")
		return
	}
	WriteJSONResponse(w, http.StatusOK, deliveries)
}

// HandleGetDeliveries handles GET /api/deliveries/{requestId}
func (h *Handler) HandleGetDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := r.PathValue("requestId")

	deliveries, err := h.service.GetDeliveries(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrDeliveryNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Delivery not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get deliveries", "requestID", requestID, "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get deliveries")
		return
	}
	WriteJSONResponse(w, http.StatusOK, deliveries)
}

// HandleScriptResponses handles PUT /api/responses with {"statuses": [500, 500, 200]}
func (h *Handler) HandleScriptResponses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Statuses []int `json:"statuses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.ScriptResponses(req.Statuses); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.InfoContext(r.Context(), "sink responses scripted", "statuses", req.Statuses)
	WriteJSONResponse(w, http.StatusOK, map[string]any{"statuses": req.Statuses})
}

// HandleReset handles DELETE /api/deliveries
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Reset(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to reset sink", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to reset sink")
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]any{"deleted": n})
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "webhook-sink",
	})
}

func WriteJSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteJSONError(w http.ResponseWriter, status int, message string) {
	WriteJSONResponse(w, status, map[string]any{"error": message})
}
