package citymanager

import (
	"fmt"
	"strings"

	"github.com/citypark/platform/pkg/common/models"
)

// Validate checks the structure of a configuration document before it is
// stored. HTTP methods are not checked here: an unknown method is reported
// when the city is aggregated.
func Validate(cfg models.CityConfig) error {
	var problems []string
	if strings.TrimSpace(cfg.City) == "" {
		problems = append(problems, "city is required")
	}
	for i, req := range cfg.RequestsData {
		prefix := fmt.Sprintf("requestsData[%d]", i)
		if strings.TrimSpace(req.URL) == "" {
			problems = append(problems, prefix+": url is required")
		}
		mapping := req.Mapping
		if mapping.ResponseType != "" && mapping.ResponseType != models.ResponseTypeJSONObject {
			problems = append(problems, fmt.Sprintf("%s: unsupported responseType %q", prefix, mapping.ResponseType))
		}
		if mapping.ListFieldPath == "" {
			problems = append(problems, prefix+": listFieldPath is required")
		}
		fields := mapping.Fields
		if !fields.ID.IsSet() || fields.ID.Value() == "" {
			problems = append(problems, prefix+": iSFields.id is required")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
