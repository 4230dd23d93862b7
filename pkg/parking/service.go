package parking

import (
	"context"
	"errors"
	"fmt"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/geo"
	"github.com/sirupsen/logrus"
)

// DefaultRangeKm is the search radius used when a position is given without a range.
const DefaultRangeKm = 0.5

var ErrParkingNotFound = errors.New("parking not found")

// NotFoundError carries the requested name and city of a missing facility.
type NotFoundError struct {
	City string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Unable to find parking : %s for city %s", e.Name, e.City)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrParkingNotFound }

// ConfigProvider resolves the configuration document of a city.
type ConfigProvider interface {
	GetByCity(ctx context.Context, city string) (models.CityConfig, error)
}

// Aggregator builds the facility list of a configured city.
type Aggregator interface {
	Aggregate(ctx context.Context, cfg models.CityConfig) ([]models.Facility, error)
}

type Service struct {
	configs    ConfigProvider
	aggregator Aggregator
}

func NewService(configs ConfigProvider, aggregator Aggregator) *Service {
	return &Service{configs: configs, aggregator: aggregator}
}

// GetParkings returns every facility of city. When pos is set only facilities
// with a known position within rangeKm of it are kept.
func (s *Service) GetParkings(ctx context.Context, city string, pos *models.Position, rangeKm float64) ([]models.Facility, error) {
	facilities, err := s.aggregate(ctx, city)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return facilities, nil
	}

	nearby := make([]models.Facility, 0, len(facilities))
	for _, f := range facilities {
		if geo.InRange(pos, f, rangeKm) {
			nearby = append(nearby, f)
		}
	}
	logger.Log.WithFields(logrus.Fields{
		"city":     city,
		"range_km": rangeKm,
		"total":    len(facilities),
		"nearby":   len(nearby),
	}).Debug("Filtered parkings by distance")
	return nearby, nil
}

// GetParking returns the first facility of city whose name is exactly name.
func (s *Service) GetParking(ctx context.Context, city, name string) (models.Facility, error) {
	facilities, err := s.aggregate(ctx, city)
	if err != nil {
		return models.Facility{}, err
	}
	for _, f := range facilities {
		if f.Name == name {
			return f, nil
		}
	}
	return models.Facility{}, &NotFoundError{City: city, Name: name}
}

func (s *Service) aggregate(ctx context.Context, city string) ([]models.Facility, error) {
	cfg, err := s.configs.GetByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Aggregate(ctx, cfg)
}
