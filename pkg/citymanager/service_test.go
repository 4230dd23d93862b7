package citymanager

import (
	"context"
	"errors"
	"testing"

	"github.com/citypark/platform/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	items   map[string]models.CityConfig
	gets    int
	hits    int
	dropped []string
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]models.CityConfig{}}
}

func (c *memoryCache) Get(_ context.Context, city string) (models.CityConfig, bool, error) {
	c.gets++
	if c.failGet {
		return models.CityConfig{}, false, errors.New("redis: connection refused")
	}
	cfg, ok := c.items[city]
	if ok {
		c.hits++
	}
	return cfg, ok, nil
}

func (c *memoryCache) Set(_ context.Context, cfg models.CityConfig) error {
	c.items[cfg.City] = cfg
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, city string) error {
	delete(c.items, city)
	c.dropped = append(c.dropped, city)
	return nil
}

type publishedEvent struct {
	Type string
	Data map[string]interface{}
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType string, _ string, data map[string]interface{}) error {
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
	return p.err
}

func newTestService(t *testing.T) (*Service, *memoryCache, *recordingPublisher) {
	t.Helper()
	cache := newMemoryCache()
	events := &recordingPublisher{}
	return NewService(newTestRepository(t), cache, events), cache, events
}

func TestServiceCreate(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	require.Len(t, events.events, 1)
	assert.Equal(t, EventCityConfigCreated, events.events[0].Type)
	assert.Equal(t, "Poitier", events.events[0].Data["city"])
	assert.Equal(t, []string{"http://localhost:9000/list", "http://localhost:9000/places"}, events.events[0].Data["sources"])

	_, err = svc.Create(ctx, poitierConfig())
	require.ErrorIs(t, err, ErrCityConfigAlreadyExists)
	assert.Equal(t, "City configuration already exists for city Poitier", err.Error())
	assert.Len(t, events.events, 1)
}

func TestServiceCreateRejectsInvalidConfig(t *testing.T) {
	svc, _, events := newTestService(t)

	cfg := poitierConfig()
	cfg.City = " "
	_, err := svc.Create(context.Background(), cfg)

	var invalid *ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"city is required"}, invalid.Problems)
	assert.Empty(t, events.events)
}

func TestServiceGetByCityReadsThroughCache(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)

	first, err := svc.GetByCity(ctx, "Poitier")
	require.NoError(t, err)
	second, err := svc.GetByCity(ctx, "Poitier")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
}

func TestServiceGetByCityIgnoresCacheFailures(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)
	cache.failGet = true

	cfg, err := svc.GetByCity(ctx, "Poitier")
	require.NoError(t, err)
	assert.Equal(t, "Poitier", cfg.City)
}

func TestServiceGetByCityMissing(t *testing.T) {
	svc, cache, _ := newTestService(t)

	_, err := svc.GetByCity(context.Background(), "Lyon")
	require.ErrorIs(t, err, ErrCityConfigNotFound)
	assert.Empty(t, cache.items)
}

func TestServiceUpdateKeepsIdentity(t *testing.T) {
	svc, cache, events := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)
	_, err = svc.GetByCity(ctx, "Poitier")
	require.NoError(t, err)
	require.Contains(t, cache.items, "Poitier")

	change := poitierConfig()
	change.ID = "another-id"
	change.City = "Lyon"
	change.RequestsData = change.RequestsData[1:]
	updated, err := svc.Update(ctx, "Poitier", change)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Poitier", updated.City)
	assert.Len(t, updated.RequestsData, 1)
	assert.NotContains(t, cache.items, "Poitier", "update drops the cached document")
	assert.Equal(t, EventCityConfigUpdated, events.events[len(events.events)-1].Type)

	_, err = svc.GetByCity(ctx, "Lyon")
	require.ErrorIs(t, err, ErrCityConfigNotFound)
}

func TestServiceUpdateMissingCity(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "Lyon", poitierConfig())
	require.ErrorIs(t, err, ErrCityConfigNotFound)
}

func TestServiceDelete(t *testing.T) {
	svc, cache, events := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "Poitier"))
	assert.Contains(t, cache.dropped, "Poitier")
	assert.Equal(t, EventCityConfigDeleted, events.events[len(events.events)-1].Type)

	require.ErrorIs(t, svc.Delete(ctx, "Poitier"), ErrCityConfigNotFound)
}

func TestServicePublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, events := newTestService(t)
	events.err = errors.New("kafka: leader not available")

	_, err := svc.Create(context.Background(), poitierConfig())
	require.NoError(t, err)
}

func TestServiceWithoutCacheOrEvents(t *testing.T) {
	svc := NewService(newTestRepository(t), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)
	cfg, err := svc.GetByCity(ctx, "Poitier")
	require.NoError(t, err)
	assert.Equal(t, "Poitier", cfg.City)
}

func TestServiceSeed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, poitierConfig())
	require.NoError(t, err)

	configs, err := LoadSeed("testdata/seed.yaml")
	require.NoError(t, err)

	created, err := svc.Seed(ctx, configs)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "Poitier was already configured")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
