package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// CityConfig carries the per-city tables used by the normalizer and the
// predictor.
type CityConfig struct {
	Scale     domain.ScaleFactors
	Dampening domain.Dampening
}

type cityFile struct {
	ScaleFactors map[string]float64        `yaml:"scale_factors"`
	Dampening    map[string]domain.Damping `yaml:"dampening"`
}

// DefaultCityConfig returns the built-in scale factors and dampening.
func DefaultCityConfig() CityConfig {
	return CityConfig{Scale: domain.DefaultScaleFactors(), Dampening: domain.DefaultDampening()}
}

// LoadCityConfig reads the YAML city file at path. An empty path yields the
// defaults; a section absent from the file keeps its default.
//
//	scale_factors:
//	  New Delhi: 1.3
//	dampening:
//	  Thimphu: {aqi: 0.65, health: 0.7}
func LoadCityConfig(fs afero.Fs, path string) (CityConfig, error) {
	cfg := DefaultCityConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return CityConfig{}, fmt.Errorf("%w: read city config %s: %w", domain.ErrArtifactIO, path, err)
	}
	var f cityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CityConfig{}, fmt.Errorf("%w: parse city config %s: %w", domain.ErrMalformedInput, path, err)
	}

	if f.ScaleFactors != nil {
		if cfg.Scale, err = domain.NewScaleFactors(f.ScaleFactors); err != nil {
			return CityConfig{}, fmt.Errorf("city config %s: %w", path, err)
		}
	}
	if f.Dampening != nil {
		if cfg.Dampening, err = domain.NewDampening(f.Dampening); err != nil {
			return CityConfig{}, fmt.Errorf("city config %s: %w", path, err)
		}
	}
	return cfg, nil
}
