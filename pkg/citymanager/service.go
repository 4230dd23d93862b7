// Package citymanager stores the configuration document of each city: the
// sources to query and how to map their responses onto facilities.
package citymanager

import (
	"context"
	"errors"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/observability/metrics"
	"github.com/sirupsen/logrus"
)

// Store persists configuration documents. *Repository implements it.
type Store interface {
	List(ctx context.Context) ([]models.CityConfig, error)
	GetByCity(ctx context.Context, city string) (models.CityConfig, error)
	Create(ctx context.Context, cfg models.CityConfig) (models.CityConfig, error)
	Update(ctx context.Context, cfg models.CityConfig) (models.CityConfig, error)
	Delete(ctx context.Context, city string) error
}

// Service manages configuration documents. The cache and the publisher are
// optional.
type Service struct {
	store  Store
	cache  Cache
	events Publisher
}

func NewService(store Store, cache Cache, events Publisher) *Service {
	return &Service{store: store, cache: cache, events: events}
}

func (s *Service) List(ctx context.Context) ([]models.CityConfig, error) {
	return s.store.List(ctx)
}

// GetByCity reads through the cache. Cache failures fall back to the store.
func (s *Service) GetByCity(ctx context.Context, city string) (models.CityConfig, error) {
	if s.cache != nil {
		cfg, ok, err := s.cache.Get(ctx, city)
		if err != nil {
			logger.Log.WithError(err).WithField("city", city).Warn("City config cache read failed")
		}
		metrics.ObserveCityConfigCache(ok)
		if ok {
			return cfg, nil
		}
	}

	cfg, err := s.store.GetByCity(ctx, city)
	if err != nil {
		return models.CityConfig{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cfg); err != nil {
			logger.Log.WithError(err).WithField("city", city).Warn("City config cache write failed")
		}
	}
	return cfg, nil
}

// Create stores a new document. A city holds at most one document.
func (s *Service) Create(ctx context.Context, cfg models.CityConfig) (models.CityConfig, error) {
	if err := Validate(cfg); err != nil {
		return models.CityConfig{}, err
	}
	if _, err := s.store.GetByCity(ctx, cfg.City); err == nil {
		logger.WithField("city", cfg.City).Warn("City configuration already exists")
		return models.CityConfig{}, alreadyExists(cfg.City)
	} else if !errors.Is(err, ErrCityConfigNotFound) {
		return models.CityConfig{}, err
	}

	created, err := s.store.Create(ctx, cfg)
	if err != nil {
		return models.CityConfig{}, err
	}
	s.changed(ctx, EventCityConfigCreated, created)
	return created, nil
}

// Update replaces the document of city. The stored id and city are kept
// whatever cfg carries.
func (s *Service) Update(ctx context.Context, city string, cfg models.CityConfig) (models.CityConfig, error) {
	existing, err := s.store.GetByCity(ctx, city)
	if err != nil {
		return models.CityConfig{}, err
	}
	cfg.ID = existing.ID
	cfg.City = existing.City
	if err := Validate(cfg); err != nil {
		return models.CityConfig{}, err
	}

	updated, err := s.store.Update(ctx, cfg)
	if err != nil {
		return models.CityConfig{}, err
	}
	s.changed(ctx, EventCityConfigUpdated, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, city string) error {
	existing, err := s.store.GetByCity(ctx, city)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, city); err != nil {
		return err
	}
	s.changed(ctx, EventCityConfigDeleted, existing)
	return nil
}

// Seed creates every configuration whose city has none yet and returns how
// many were created.
func (s *Service) Seed(ctx context.Context, configs []models.CityConfig) (int, error) {
	created := 0
	for _, cfg := range configs {
		_, err := s.Create(ctx, cfg)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrCityConfigAlreadyExists):
			logger.WithField("city", cfg.City).Info("Seed skipped, city already configured")
		default:
			return created, err
		}
	}
	return created, nil
}

// changed drops the cached copy of cfg and announces the change. Neither step
// fails the write.
func (s *Service) changed(ctx context.Context, eventType string, cfg models.CityConfig) {
	log := logger.Log.WithFields(logrus.Fields{
		"city":       cfg.City,
		"id":         cfg.ID,
		"event_type": eventType,
	})
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cfg.City); err != nil {
			log.WithError(err).Warn("City config cache invalidation failed")
		}
	}
	if s.events != nil {
		if err := s.events.PublishEvent(ctx, eventType, eventSource, eventData(cfg)); err != nil {
			log.WithError(err).Warn("Failed to publish city config event")
		}
	}
	log.Info("City configuration changed")
}
