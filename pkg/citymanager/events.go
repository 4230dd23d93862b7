package citymanager

import (
	"context"

	"github.com/citypark/platform/pkg/common/models"
)

const (
	EventCityConfigCreated = "city_config.created"
	EventCityConfigUpdated = "city_config.updated"
	EventCityConfigDeleted = "city_config.deleted"

	eventSource = "parking-service"
)

// Publisher emits configuration change events. kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

func eventData(cfg models.CityConfig) map[string]interface{} {
	urls := make([]string, 0, len(cfg.RequestsData))
	for _, req := range cfg.RequestsData {
		urls = append(urls, req.URL)
	}
	return map[string]interface{}{
		"id":      cfg.ID,
		"city":    cfg.City,
		"sources": urls,
	}
}
