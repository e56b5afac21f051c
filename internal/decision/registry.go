package decision

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

// DefaultCropKey is the registry entry returned for unknown crops.
const DefaultCropKey = "default"

// Registry is the immutable table of crop profiles keyed by lower-cased crop name.
type Registry struct {
	profiles map[string]entities.CropProfile
}

func builtinProfiles() map[string]entities.CropProfile {
	return map[string]entities.CropProfile{
		"tomato": {
			Name:               "Tomato",
			MoistureOptimalMin: 60, MoistureOptimalMax: 80,
			MoistureCriticalMin: 40, MoistureCriticalMax: 90,
			PHOptimalMin: 6.0, PHOptimalMax: 6.8,
			NitrogenMin: 100, PhosphorusMin: 40, PotassiumMin: 150,
			TempOptimalMin: 18, TempOptimalMax: 28,
			GrowthStageFactor: entities.StageFactors{
				entities.StageSeedling:   0.7,
				entities.StageVegetative: 1.0,
				entities.StageFlowering:  1.2,
				entities.StageFruiting:   1.3,
			},
		},
		"maize": {
			Name:               "Maize",
			MoistureOptimalMin: 55, MoistureOptimalMax: 75,
			MoistureCriticalMin: 35, MoistureCriticalMax: 85,
			PHOptimalMin: 5.8, PHOptimalMax: 7.0,
			NitrogenMin: 120, PhosphorusMin: 50, PotassiumMin: 100,
			TempOptimalMin: 20, TempOptimalMax: 30,
			GrowthStageFactor: entities.StageFactors{
				entities.StageSeedling:   0.6,
				entities.StageVegetative: 1.0,
				entities.StageTasseling:  1.4,
				entities.StageGrainFill:  1.2,
			},
		},
		"potato": {
			Name:               "Potato",
			MoistureOptimalMin: 65, MoistureOptimalMax: 85,
			MoistureCriticalMin: 45, MoistureCriticalMax: 90,
			PHOptimalMin: 5.0, PHOptimalMax: 6.5,
			NitrogenMin: 110, PhosphorusMin: 45, PotassiumMin: 180,
			TempOptimalMin: 15, TempOptimalMax: 24,
			GrowthStageFactor: entities.StageFactors{
				entities.StagePlanting:   0.5,
				entities.StageVegetative: 0.8,
				entities.StageTuberInit:  1.2,
				entities.StageBulking:    1.4,
			},
		},
		"lettuce": {
			Name:               "Lettuce",
			MoistureOptimalMin: 70, MoistureOptimalMax: 85,
			MoistureCriticalMin: 50, MoistureCriticalMax: 90,
			PHOptimalMin: 6.0, PHOptimalMax: 7.0,
			NitrogenMin: 80, PhosphorusMin: 30, PotassiumMin: 120,
			TempOptimalMin: 15, TempOptimalMax: 20,
			GrowthStageFactor: entities.StageFactors{
				entities.StageSeedling:   0.6,
				entities.StageVegetative: 1.0,
				entities.StageHeading:    1.1,
			},
		},
		DefaultCropKey: {
			Name:               "Generic Crop",
			MoistureOptimalMin: 60, MoistureOptimalMax: 80,
			MoistureCriticalMin: 40, MoistureCriticalMax: 90,
			PHOptimalMin: 6.0, PHOptimalMax: 7.0,
			NitrogenMin: 100, PhosphorusMin: 40, PotassiumMin: 150,
			TempOptimalMin: 18, TempOptimalMax: 28,
			GrowthStageFactor: entities.StageFactors{
				entities.StageDefault: 1.0,
			},
		},
	}
}

// DefaultRegistry returns the built-in crop table.
func DefaultRegistry() *Registry {
	return &Registry{profiles: builtinProfiles()}
}

// NewRegistry builds a registry from profiles. Keys are lower-cased, every
// profile is validated and the built-in default profile is added when missing.
func NewRegistry(profiles map[string]entities.CropProfile) (*Registry, error) {
	out := make(map[string]entities.CropProfile, len(profiles)+1)
	for k, p := range profiles {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return nil, fmt.Errorf("crop profile with empty key")
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("crop %q: %w", key, err)
		}
		out[key] = p.Clone()
	}
	if _, ok := out[DefaultCropKey]; !ok {
		out[DefaultCropKey] = builtinProfiles()[DefaultCropKey]
	}
	return &Registry{profiles: out}, nil
}

type registryFile struct {
	Crops map[string]entities.CropProfile `yaml:"crops"`
}

// LoadRegistry merges the profiles declared in a YAML file over the built-in
// table. An empty path yields the built-ins.
func LoadRegistry(path string) (*Registry, error) {
	profiles := builtinProfiles()
	if strings.TrimSpace(path) == "" {
		return &Registry{profiles: profiles}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop profiles: %w", err)
	}
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse crop profiles %s: %w", path, err)
	}
	for k, p := range f.Crops {
		if strings.TrimSpace(p.Name) == "" {
			p.Name = k
		}
		profiles[strings.ToLower(k)] = p
	}
	return NewRegistry(profiles)
}

// Lookup returns the profile for cropType, matching case-insensitively.
// Unknown or empty names resolve to the default profile.
func (r *Registry) Lookup(cropType string) entities.CropProfile {
	if p, ok := r.profiles[strings.ToLower(cropType)]; ok {
		return p.Clone()
	}
	return r.profiles[DefaultCropKey].Clone()
}

// Keys lists registered crop keys in alphabetical order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
