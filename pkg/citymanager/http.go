package citymanager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/gorilla/mux"
)

// AuditReader lists the recorded changes of a city. *AuditRepository implements it.
type AuditReader interface {
	ListByCity(ctx context.Context, city string, limit int) ([]models.AuditLog, error)
}

type Handler struct {
	service *Service
	audit   AuditReader
}

// NewHandler builds the configuration API. audit may be nil, in which case the
// audit route is not registered.
func NewHandler(service *Service, audit AuditReader) *Handler {
	return &Handler{service: service, audit: audit}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/parking-manager", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/parking-manager/city", h.handleCreate).Methods(http.MethodPut)
	r.HandleFunc("/parking-manager/city/{city}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/parking-manager/city/{city}", h.handleUpdate).Methods(http.MethodPost)
	r.HandleFunc("/parking-manager/city/{city}", h.handleDelete).Methods(http.MethodDelete)
	if h.audit != nil {
		r.HandleFunc("/parking-manager/city/{city}/audit", h.handleAudit).Methods(http.MethodGet)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, "failed to list city configurations", err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetByCity(r.Context(), mux.Vars(r)["city"])
	if err != nil {
		writeError(w, "failed to get city configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CityConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	cfg, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, "failed to create city configuration", err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.CityConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	cfg, err := h.service.Update(r.Context(), mux.Vars(r)["city"], req)
	if err != nil {
		writeError(w, "failed to update city configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["city"]); err != nil {
		writeError(w, "failed to delete city configuration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	logs, err := h.audit.ListByCity(r.Context(), mux.Vars(r)["city"], parseLimit(r, 100))
	if err != nil {
		writeError(w, "failed to list audit logs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": logs})
}

// StatusFor maps configuration errors to HTTP status codes.
func StatusFor(err error) int {
	var invalid *ValidationError
	switch {
	case errors.Is(err, ErrCityConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCityConfigAlreadyExists), errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.WithError(err).Error(msg)
		http.Error(w, msg, status)
		return
	}
	logger.Log.WithError(err).Warn(msg)
	http.Error(w, err.Error(), status)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
