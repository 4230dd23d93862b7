package citymanager

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository keeps the history of configuration changes, one row per
// change event.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

type auditLogModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	EventID   string         `gorm:"column:event_id;uniqueIndex"`
	City      string         `gorm:"column:city;index"`
	Action    string         `gorm:"column:action"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string { return "city_config_audit_logs" }

func (r *AuditRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&auditLogModel{})
}

// Record stores entry. An entry whose event id is already stored is ignored,
// so redelivered events are harmless.
func (r *AuditRepository) Record(ctx context.Context, entry models.AuditLog) error {
	row := &auditLogModel{
		EventID:   entry.EventID,
		City:      entry.City,
		Action:    entry.Action,
		CreatedAt: entry.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if entry.Payload != nil {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			// Keep the row, only the payload is lost.
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"event_id": entry.EventID,
				"city":     entry.City,
			}).Warn("Audit payload not encodable, stored without payload")
		} else {
			row.Payload = datatypes.JSON(data)
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(row).Error
}

// ListByCity returns the most recent entries of city first.
func (r *AuditRepository) ListByCity(ctx context.Context, city string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []auditLogModel
	if err := r.db.WithContext(ctx).Where("city = ?", city).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]models.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := models.AuditLog{
			ID:        row.ID,
			EventID:   row.EventID,
			City:      row.City,
			Action:    row.Action,
			CreatedAt: row.CreatedAt,
		}
		if len(row.Payload) > 0 {
			var payload map[string]interface{}
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				logger.Log.WithError(err).WithField("event_id", row.EventID).Warn("Unreadable audit payload")
			}
			entry.Payload = payload
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// HandleEvent records a configuration change event. Events of other types are
// skipped. Its signature matches kafka.EventHandler.
func (r *AuditRepository) HandleEvent(ctx context.Context, event models.Event) error {
	if !strings.HasPrefix(event.Type, "city_config.") {
		logger.Log.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("Skipping unrelated event")
		return nil
	}
	city, _ := event.Data["city"].(string)
	if err := r.Record(ctx, models.AuditLog{
		EventID:   event.ID,
		City:      city,
		Action:    strings.TrimPrefix(event.Type, "city_config."),
		Payload:   event.Data,
		CreatedAt: event.Timestamp.UTC(),
	}); err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"city":     city,
		"action":   event.Type,
	}).Info("Recorded city configuration change")
	return nil
}
