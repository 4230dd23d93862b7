// Package aggregation builds the facility list of a city by merging the
// partial records contributed by each of its configured sources.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/extract"
	"github.com/citypark/platform/pkg/fetcher"
	"github.com/citypark/platform/pkg/observability/metrics"
	"github.com/sirupsen/logrus"
)

// Fetcher retrieves the raw body of one source.
type Fetcher interface {
	Fetch(ctx context.Context, city string, req models.SourceRequest) ([]byte, error)
}

// MalformedResponseError is returned when a source body is not JSON or its
// item list cannot be located.
type MalformedResponseError struct {
	City string
	URL  string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("Failed to retrieve parkings for city %s", e.City)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// MappingError is returned when a declared field path cannot be resolved on an
// item of a source list.
type MappingError struct {
	City string
	URL  string
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("Failed to retrieve parking for city %s\n We were not able to map the data, please contact your administrator.", e.City)
}

func (e *MappingError) Unwrap() error { return e.Err }

// FailureKind names the class of an aggregation error for logs and metrics.
func FailureKind(err error) string {
	var (
		unsupported *fetcher.UnsupportedMethodError
		transport   *fetcher.TransportError
		malformed   *MalformedResponseError
		mapping     *MappingError
	)
	switch {
	case errors.As(err, &unsupported):
		return "unsupported_method"
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &malformed):
		return "malformed_response"
	case errors.As(err, &mapping):
		return "mapping"
	default:
		return "other"
	}
}

type Engine struct {
	fetcher Fetcher
}

func NewEngine(fetcher Fetcher) *Engine {
	return &Engine{fetcher: fetcher}
}

// table keeps facilities in first-insertion order.
type table struct {
	index map[string]int
	items []*models.Facility
}

func (t *table) entry(id string) *models.Facility {
	if i, ok := t.index[id]; ok {
		return t.items[i]
	}
	f := &models.Facility{ID: id}
	t.index[id] = len(t.items)
	t.items = append(t.items, f)
	return f
}

func (t *table) values() []models.Facility {
	out := make([]models.Facility, len(t.items))
	for i, f := range t.items {
		out[i] = *f
	}
	return out
}

// Aggregate fetches every source of cfg in order and merges their items by id.
// A source declaring an attribute overwrites whatever an earlier source set;
// attributes it does not declare are left alone. Any failure aborts the whole
// aggregation and no facility is returned.
func (e *Engine) Aggregate(ctx context.Context, cfg models.CityConfig) ([]models.Facility, error) {
	start := time.Now()
	log := logger.Log.WithFields(logrus.Fields{
		"city":    cfg.City,
		"sources": len(cfg.RequestsData),
	})
	log.Info("Aggregating parkings")

	t := &table{index: make(map[string]int)}
	for i, req := range cfg.RequestsData {
		if err := e.mergeSource(ctx, cfg.City, req, t); err != nil {
			metrics.ObserveAggregationFailure(FailureKind(err))
			log.WithError(err).WithFields(logrus.Fields{
				"source_index": i,
				"url":          req.URL,
			}).Error("Parking aggregation failed")
			return nil, err
		}
	}

	facilities := t.values()
	metrics.ObserveAggregation(len(facilities), time.Since(start))
	log.WithFields(logrus.Fields{
		"facilities": len(facilities),
		"duration":   time.Since(start).Milliseconds(),
	}).Info("Parkings aggregated")
	return facilities, nil
}

func (e *Engine) mergeSource(ctx context.Context, city string, req models.SourceRequest, t *table) error {
	body, err := e.fetcher.Fetch(ctx, city, req)
	metrics.ObserveSourceFetch(err == nil)
	if err != nil {
		return err
	}

	malformed := func(err error) error {
		return &MalformedResponseError{City: city, URL: req.URL, Err: err}
	}
	mapping := func(err error) error {
		return &MappingError{City: city, URL: req.URL, Err: err}
	}

	mapper := req.Mapping
	if mapper.ResponseType != "" && mapper.ResponseType != models.ResponseTypeJSONObject {
		return malformed(fmt.Errorf("unsupported response type %q", mapper.ResponseType))
	}

	doc, err := extract.Parse(body)
	if err != nil {
		return malformed(fmt.Errorf("parsing response body: %w", err))
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return malformed(errors.New("response body is not a JSON object"))
	}

	items, err := extract.List(doc, mapper.ListFieldPath)
	if err != nil {
		return malformed(err)
	}

	fields := mapper.Fields
	for _, item := range items {
		id, err := extract.String(item, fields.ID.Value())
		if err != nil {
			return mapping(err)
		}
		if err := assign(t.entry(id), city, item, fields); err != nil {
			return mapping(extract.WithItem(err, id))
		}
	}
	return nil
}

// assign copies every declared attribute of item onto f.
func assign(f *models.Facility, city string, item map[string]interface{}, fields models.FieldMapping) error {
	f.City = city

	if fields.Name.IsSet() {
		name, err := extract.String(item, fields.Name.Value())
		if err != nil {
			return err
		}
		f.Name = name
	}
	if fields.NbPlaces.IsSet() {
		n, err := extract.NullableInt(item, fields.NbPlaces.Value())
		if err != nil {
			return err
		}
		f.NbPlaces = n
	}
	if fields.NbPlacesRemaining.IsSet() {
		n, err := extract.NullableInt(item, fields.NbPlacesRemaining.Value())
		if err != nil {
			return err
		}
		f.NbPlacesRemaining = n
	}
	if fields.Description.IsSet() {
		desc, err := extract.NullableString(item, fields.Description.Value())
		if err != nil {
			return err
		}
		f.Description = desc
	}
	// A position needs both paths; with only one declared the position is
	// left as earlier sources set it.
	if fields.Latitude.IsSet() && fields.Longitude.IsSet() {
		lat, err := extract.Float(item, fields.Latitude.Value())
		if err != nil {
			return err
		}
		lon, err := extract.Float(item, fields.Longitude.Value())
		if err != nil {
			return err
		}
		f.Position = &models.Position{Latitude: lat, Longitude: lon}
	}
	return nil
}
