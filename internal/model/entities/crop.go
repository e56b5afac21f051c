package entities

import "fmt"

// CropProfile holds the water, nutrient, pH and temperature requirements of a crop.
// Moisture values are percentages, nutrients mg/kg, temperatures °C.
type CropProfile struct {
	Name string `json:"name" yaml:"name"`

	MoistureOptimalMin  float64 `json:"moisture_optimal_min" yaml:"moisture_optimal_min"`
	MoistureOptimalMax  float64 `json:"moisture_optimal_max" yaml:"moisture_optimal_max"`
	MoistureCriticalMin float64 `json:"moisture_critical_min" yaml:"moisture_critical_min"`
	MoistureCriticalMax float64 `json:"moisture_critical_max" yaml:"moisture_critical_max"`

	PHOptimalMin float64 `json:"ph_optimal_min" yaml:"ph_optimal_min"`
	PHOptimalMax float64 `json:"ph_optimal_max" yaml:"ph_optimal_max"`

	NitrogenMin   float64 `json:"nitrogen_min" yaml:"nitrogen_min"`
	PhosphorusMin float64 `json:"phosphorus_min" yaml:"phosphorus_min"`
	PotassiumMin  float64 `json:"potassium_min" yaml:"potassium_min"`

	TempOptimalMin float64 `json:"temp_optimal_min" yaml:"temp_optimal_min"`
	TempOptimalMax float64 `json:"temp_optimal_max" yaml:"temp_optimal_max"`

	GrowthStageFactor StageFactors `json:"growth_stage_factor" yaml:"growth_stage_factor"`
}

// StageFactor returns the water-need multiplier for a growth stage (1.0 when unknown).
func (c CropProfile) StageFactor(stage string) float64 {
	return c.GrowthStageFactor.Factor(stage)
}

// Validate checks the ordering of the moisture bounds and the stage factors.
func (c CropProfile) Validate() error {
	switch {
	case c.MoistureCriticalMin > c.MoistureOptimalMin:
		return fmt.Errorf("%s: moisture critical min %g above optimal min %g", c.Name, c.MoistureCriticalMin, c.MoistureOptimalMin)
	case c.MoistureOptimalMin > c.MoistureOptimalMax:
		return fmt.Errorf("%s: moisture optimal min %g above optimal max %g", c.Name, c.MoistureOptimalMin, c.MoistureOptimalMax)
	case c.MoistureOptimalMax > c.MoistureCriticalMax:
		return fmt.Errorf("%s: moisture optimal max %g above critical max %g", c.Name, c.MoistureOptimalMax, c.MoistureCriticalMax)
	case c.PHOptimalMin > c.PHOptimalMax:
		return fmt.Errorf("%s: ph optimal min %g above max %g", c.Name, c.PHOptimalMin, c.PHOptimalMax)
	case c.TempOptimalMin > c.TempOptimalMax:
		return fmt.Errorf("%s: temperature optimal min %g above max %g", c.Name, c.TempOptimalMin, c.TempOptimalMax)
	}
	for stage, f := range c.GrowthStageFactor {
		if f <= 0 {
			return fmt.Errorf("%s: stage %q factor must be positive, got %g", c.Name, stage, f)
		}
	}
	return nil
}

// Clone copies the stage map so callers cannot mutate a registry entry.
func (c CropProfile) Clone() CropProfile {
	out := c
	if c.GrowthStageFactor != nil {
		out.GrowthStageFactor = make(StageFactors, len(c.GrowthStageFactor))
		for k, v := range c.GrowthStageFactor {
			out.GrowthStageFactor[k] = v
		}
	}
	return out
}
