package parking

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/citypark/platform/pkg/aggregation"
	"github.com/citypark/platform/pkg/citymanager"
	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/fetcher"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/parkings/city/{city}", h.handleListParkings).Methods(http.MethodGet)
	r.HandleFunc("/parkings/city/{city}/name/{name}", h.handleGetParking).Methods(http.MethodGet)
}

func (h *Handler) handleListParkings(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	pos, rangeKm, err := parsePosition(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"city":  city,
		"range": rangeKm,
		"pos":   pos,
	}).Info("Retrieve parkings for city")

	facilities, err := h.service.GetParkings(r.Context(), city, pos, rangeKm)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facilities)
}

func (h *Handler) handleGetParking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	facility, err := h.service.GetParking(r.Context(), vars["city"], vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facility)
}

// parsePosition reads the optional lat, lon and range query parameters.
// lat and lon go together; range defaults to DefaultRangeKm.
func parsePosition(r *http.Request) (*models.Position, float64, error) {
	q := r.URL.Query()
	rangeKm := DefaultRangeKm
	if raw := q.Get("range"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsNaN(v) {
			return nil, 0, errors.New("range must be a non-negative number")
		}
		rangeKm = v
	}

	rawLat, rawLon := q.Get("lat"), q.Get("lon")
	if rawLat == "" && rawLon == "" {
		return nil, rangeKm, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, 0, errors.New("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, 0, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, 0, errors.New("lon must be a number")
	}
	return &models.Position{Latitude: lat, Longitude: lon}, rangeKm, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		unsupported *fetcher.UnsupportedMethodError
		transport   *fetcher.TransportError
		malformed   *aggregation.MalformedResponseError
		mapping     *aggregation.MappingError
	)
	switch {
	case errors.As(err, &unsupported):
		return http.StatusNotAcceptable
	case errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.As(err, &malformed), errors.As(err, &mapping):
		return http.StatusInternalServerError
	case errors.Is(err, ErrParkingNotFound), errors.Is(err, citymanager.ErrCityConfigNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	entry := logger.Log.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("Failed to retrieve parkings")
	} else {
		entry.Warn("Failed to retrieve parkings")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
