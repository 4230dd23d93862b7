package citymanager

import (
	"context"
	"errors"
	"time"

	"github.com/citypark/platform/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type cityConfigModel struct {
	ID           string                                     `gorm:"primaryKey;column:id;size:36"`
	City         string                                     `gorm:"column:city;uniqueIndex;not null"`
	RequestsData datatypes.JSONType[[]models.SourceRequest] `gorm:"column:requests_data"`
	CreatedAt    time.Time                                  `gorm:"column:created_at"`
	UpdatedAt    time.Time                                  `gorm:"column:updated_at"`
}

func (cityConfigModel) TableName() string { return "city_configs" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&cityConfigModel{})
}

func (r *Repository) List(ctx context.Context) ([]models.CityConfig, error) {
	var rows []cityConfigModel
	if err := r.db.WithContext(ctx).Order("city").Find(&rows).Error; err != nil {
		return nil, err
	}
	configs := make([]models.CityConfig, 0, len(rows))
	for i := range rows {
		configs = append(configs, toCityConfig(&rows[i]))
	}
	return configs, nil
}

func (r *Repository) GetByCity(ctx context.Context, city string) (models.CityConfig, error) {
	var row cityConfigModel
	if err := r.db.WithContext(ctx).First(&row, "city = ?", city).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CityConfig{}, notFound(city)
		}
		return models.CityConfig{}, err
	}
	return toCityConfig(&row), nil
}

// Create stores cfg under a fresh id.
func (r *Repository) Create(ctx context.Context, cfg models.CityConfig) (models.CityConfig, error) {
	now := time.Now().UTC()
	row := &cityConfigModel{
		ID:           uuid.New().String(),
		City:         cfg.City,
		RequestsData: datatypes.NewJSONType(cfg.RequestsData),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.CityConfig{}, alreadyExists(cfg.City)
		}
		return models.CityConfig{}, err
	}
	return toCityConfig(row), nil
}

// Update replaces the sources of the document identified by cfg.ID.
func (r *Repository) Update(ctx context.Context, cfg models.CityConfig) (models.CityConfig, error) {
	result := r.db.WithContext(ctx).Model(&cityConfigModel{}).Where("id = ?", cfg.ID).Updates(map[string]interface{}{
		"requests_data": datatypes.NewJSONType(cfg.RequestsData),
		"updated_at":    time.Now().UTC(),
	})
	if result.Error != nil {
		return models.CityConfig{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.CityConfig{}, notFound(cfg.City)
	}
	return r.GetByCity(ctx, cfg.City)
}

func (r *Repository) Delete(ctx context.Context, city string) error {
	result := r.db.WithContext(ctx).Where("city = ?", city).Delete(&cityConfigModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(city)
	}
	return nil
}

func toCityConfig(row *cityConfigModel) models.CityConfig {
	sources := row.RequestsData.Data()
	if sources == nil {
		sources = []models.SourceRequest{}
	}
	return models.CityConfig{
		ID:           row.ID,
		City:         row.City,
		RequestsData: sources,
	}
}
