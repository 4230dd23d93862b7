package citymanager

import (
	"context"
	"testing"
	"time"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Discard()
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func poitierConfig() models.CityConfig {
	return models.CityConfig{
		City: "Poitier",
		RequestsData: []models.SourceRequest{
			{
				Method: "get",
				URL:    "http://localhost:9000/list",
				Mapping: models.SourceMapping{
					ResponseType:  models.ResponseTypeJSONObject,
					ListFieldPath: "records",
					Fields: models.FieldMapping{
						ID:          models.Path("fields.nom"),
						Name:        models.Path("fields.nom"),
						Description: models.Path("fields.info"),
						Latitude:    models.Path("fields.ylat"),
						Longitude:   models.Path("fields.xlong"),
					},
				},
			},
			{
				Method: "get",
				URL:    "http://localhost:9000/places",
				Mapping: models.SourceMapping{
					ResponseType:  models.ResponseTypeJSONObject,
					ListFieldPath: "records",
					Fields: models.FieldMapping{
						ID:                models.Path("fields.nom"),
						NbPlaces:          models.Path("fields.capacite"),
						NbPlacesRemaining: models.Path("fields.places_restantes"),
					},
				},
			},
		},
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, poitierConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetByCity(ctx, "Poitier")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, poitierConfig().RequestsData, got.RequestsData)
	assert.False(t, got.RequestsData[1].Mapping.Fields.Name.IsSet(), "absent paths survive the round trip")
}

func TestRepositoryGetMissingCity(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByCity(context.Background(), "Lyon")
	require.ErrorIs(t, err, ErrCityConfigNotFound)
	assert.Equal(t, "No city configuration found for city Lyon", err.Error())
}

func TestRepositoryRejectsSecondDocumentForCity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, poitierConfig())
	require.NoError(t, err)
	_, err = repo.Create(ctx, poitierConfig())
	require.Error(t, err)
}

func TestRepositoryList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, city := range []string{"Poitier", "Bordeaux"} {
		cfg := poitierConfig()
		cfg.City = city
		_, err := repo.Create(ctx, cfg)
		require.NoError(t, err)
	}

	configs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "Bordeaux", configs[0].City)
	assert.Equal(t, "Poitier", configs[1].City)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, poitierConfig())
	require.NoError(t, err)

	created.RequestsData = created.RequestsData[:1]
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Len(t, updated.RequestsData, 1)

	_, err = repo.Update(ctx, models.CityConfig{ID: "missing", City: "Lyon"})
	require.ErrorIs(t, err, ErrCityConfigNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, poitierConfig())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "Poitier"))
	_, err = repo.GetByCity(ctx, "Poitier")
	require.ErrorIs(t, err, ErrCityConfigNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "Poitier"), ErrCityConfigNotFound)
}

func TestAuditRepositoryHandleEvent(t *testing.T) {
	db := openTestDB(t)
	audit := NewAuditRepository(db)
	require.NoError(t, audit.AutoMigrate())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		{ID: "evt-1", Type: EventCityConfigCreated, Data: map[string]interface{}{"city": "Poitier"}, Timestamp: base},
		{ID: "evt-2", Type: EventCityConfigUpdated, Data: map[string]interface{}{"city": "Poitier"}, Timestamp: base.Add(time.Minute)},
		{ID: "evt-3", Type: EventCityConfigCreated, Data: map[string]interface{}{"city": "Bordeaux"}, Timestamp: base},
		{ID: "evt-4", Type: "parking.viewed", Data: map[string]interface{}{"city": "Poitier"}, Timestamp: base},
	}
	for _, event := range events {
		require.NoError(t, audit.HandleEvent(ctx, event))
	}
	// Redelivery is ignored.
	require.NoError(t, audit.HandleEvent(ctx, events[1]))

	logs, err := audit.ListByCity(ctx, "Poitier", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "evt-2", logs[0].EventID)
	assert.Equal(t, "updated", logs[0].Action)
	assert.Equal(t, "evt-1", logs[1].EventID)
	assert.Equal(t, "created", logs[1].Action)
	assert.Equal(t, "Poitier", logs[1].Payload["city"])
}

func TestAuditRecordKeepsEntryWhenPayloadIsNotEncodable(t *testing.T) {
	db := openTestDB(t)
	audit := NewAuditRepository(db)
	require.NoError(t, audit.AutoMigrate())
	hook := logtest.NewLocal(logger.Log)
	defer hook.Reset()

	err := audit.Record(context.Background(), models.AuditLog{
		EventID: "evt-1",
		City:    "Poitier",
		Action:  "updated",
		Payload: map[string]interface{}{"city": "Poitier", "watcher": make(chan int)},
	})
	require.NoError(t, err)

	logs, err := audit.ListByCity(context.Background(), "Poitier", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "evt-1", logs[0].EventID)
	assert.Nil(t, logs[0].Payload)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "evt-1", entry.Data["event_id"])
	assert.Contains(t, entry.Data, logrus.ErrorKey)
}
