package citymanager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/citypark/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk layout of a list of city configurations.
type SeedFile struct {
	Cities []models.CityConfig `yaml:"cities"`
}

// LoadSeed reads the city configurations listed in a YAML file. An empty path
// yields no configuration.
func LoadSeed(path string) ([]models.CityConfig, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	for i, cfg := range seed.Cities {
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("seed file %s, cities[%d]: %w", path, i, err)
		}
	}
	return seed.Cities, nil
}

// LoadConfig reads a single city configuration document from a YAML or JSON file.
func LoadConfig(path string) (models.CityConfig, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return models.CityConfig{}, err
	}
	var cfg models.CityConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return models.CityConfig{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
