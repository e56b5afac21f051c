package entities

import "sort"

// Stage names used by the built-in crop profiles.
const (
	StageSeedling   = "seedling"
	StageVegetative = "vegetative"
	StageFlowering  = "flowering"
	StageFruiting   = "fruiting"
	StageTasseling  = "tasseling"
	StageGrainFill  = "grain_fill"
	StagePlanting   = "planting"
	StageTuberInit  = "tuber_init"
	StageBulking    = "bulking"
	StageHeading    = "heading"
	StageDefault    = "default"
)

// StageFactors maps a growth stage to its water-need multiplier.
type StageFactors map[string]float64

// Factor returns the multiplier for stage, 1.0 if the stage is not listed.
func (s StageFactors) Factor(stage string) float64 {
	if f, ok := s[stage]; ok {
		return f
	}
	return 1.0
}

// Stages lists the stage names in alphabetical order.
func (s StageFactors) Stages() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
