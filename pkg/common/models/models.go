package models

import (
	"time"
)

// City configuration models
type CityConfig struct {
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	City         string          `json:"city" yaml:"city"`
	RequestsData []SourceRequest `json:"requestsData" yaml:"requestsData"`
}

// SourceRequest is one configured endpoint contributing facility data.
type SourceRequest struct {
	Method     string        `json:"method" yaml:"method"` // GET, POST, PUT, DELETE, PATCH (any case)
	URL        string        `json:"url" yaml:"url"`
	Parameters []string      `json:"parameters,omitempty" yaml:"parameters,omitempty"` // not used by extraction
	Mapping    SourceMapping `json:"iSMapper" yaml:"iSMapper"`
}

type SourceMapping struct {
	ResponseType  string       `json:"responseType" yaml:"responseType"` // JSONObject only
	ListFieldPath string       `json:"listFieldPath" yaml:"listFieldPath"`
	Fields        FieldMapping `json:"iSFields" yaml:"iSFields"`
}

// FieldMapping holds, for every facility attribute, where the value lives in
// one item of the source list. Absent paths are neither read nor written.
type FieldMapping struct {
	ID                FieldPath `json:"id" yaml:"id"`
	Name              FieldPath `json:"name" yaml:"name"`
	City              FieldPath `json:"city" yaml:"city"`
	NbPlaces          FieldPath `json:"nbPlaces" yaml:"nbPlaces"`
	NbPlacesRemaining FieldPath `json:"nbPlacesRemaining" yaml:"nbPlacesRemaining"`
	Description       FieldPath `json:"description" yaml:"description"`
	Latitude          FieldPath `json:"latitude" yaml:"latitude"`
	Longitude         FieldPath `json:"longitude" yaml:"longitude"`
}

const ResponseTypeJSONObject = "JSONObject"

// Aggregated output
type Facility struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	City              string    `json:"city"`
	NbPlaces          *int      `json:"nbPlaces"`
	NbPlacesRemaining *int      `json:"nbPlacesRemaining"`
	Description       *string   `json:"description"`
	Position          *Position `json:"position"`
}

type Position struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Equal compares two facilities field by field, following pointers.
func (f Facility) Equal(other Facility) bool {
	return f.ID == other.ID &&
		f.Name == other.Name &&
		f.City == other.City &&
		equalPtr(f.NbPlaces, other.NbPlaces) &&
		equalPtr(f.NbPlacesRemaining, other.NbPlacesRemaining) &&
		equalPtr(f.Description, other.Description) &&
		equalPtr(f.Position, other.Position)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // city_config.created, city_config.updated, city_config.deleted
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

type AuditLog struct {
	ID        int64                  `json:"id"`
	EventID   string                 `json:"event_id"`
	City      string                 `json:"city"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
