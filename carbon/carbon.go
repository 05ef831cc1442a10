// Package carbon estimates an approximate CO2e figure for bytes stored,
// using configurable coefficients rather than constants baked into the
// code, per the design's resolution of the carbon-estimation Open Question.
package carbon

import "github.com/diskwatch/diskwatch/internal/config"

const bytesPerGB = 1 << 30

// Estimate is the result of one carbon estimation.
type Estimate struct {
	TotalBytes         int64   `json:"totalBytes"`
	TotalGB            float64 `json:"totalGB"`
	CoefficientKgPerGB float64 `json:"coefficientKgPerGB"`
	GridIntensity      float64 `json:"gridIntensity"`
	EstimatedKgCO2e    float64 `json:"estimatedKgCO2e"`
}

// EstimateBytes scales totalBytes by cfg's configured coefficient and grid
// intensity to produce an approximate storage carbon figure.
func EstimateBytes(totalBytes int64, cfg config.CarbonConfig) Estimate {
	gb := float64(totalBytes) / bytesPerGB

	return Estimate{
		TotalBytes:         totalBytes,
		TotalGB:            gb,
		CoefficientKgPerGB: cfg.CoefficientKgPerGB,
		GridIntensity:      cfg.GridIntensity,
		EstimatedKgCO2e:    gb * cfg.CoefficientKgPerGB * cfg.GridIntensity,
	}
}
