// Package config holds the options recognized by the engine (§6 of the
// design) plus the fixed protected-path list shared by the scanner and the
// cleanup engine.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/internal/units"
)

// ProtectedPaths is never acceptable as a scan root or a cleanup target.
var ProtectedPaths = []string{
	"/", "/bin", "/boot", "/dev", "/etc", "/lib", "/lib64",
	"/proc", "/root", "/run", "/sbin", "/srv", "/sys", "/usr", "/var",
}

// IsProtected reports whether path equals one of the protected paths.
func IsProtected(path string) bool {
	clean := filepath.Clean(path)
	for _, p := range ProtectedPaths {
		if clean == p {
			return true
		}
	}

	return false
}

// Policy controls the Cleanup Engine's safety behavior.
type Policy struct {
	DryRun         bool `json:"dryRun"`
	QuarantineMode bool `json:"quarantineMode"`
	ForceHighRisk  bool `json:"forceHighRisk"`
	Confirm        bool `json:"confirm"`
}

// DefaultPolicy returns the safety-first default: dry-run, quarantine,
// no force, unconfirmed.
func DefaultPolicy() Policy {
	return Policy{
		DryRun:         true,
		QuarantineMode: true,
		ForceHighRisk:  false,
		Confirm:        false,
	}
}

// Config aggregates the options recognized by the engine.
type Config struct {
	DBPath          string   `json:"dbPath"`
	LogFile         string   `json:"logFile"`
	QuarantineDir   string   `json:"quarantineDir"`
	ClassifierRules string   `json:"classifierRules,omitempty"`
	Roots           []string `json:"roots"`
	FollowSymlinks  bool     `json:"followSymlinks"`
	IncludeHidden   bool     `json:"includeHidden"`
	TopN            int      `json:"topN"`
	MinSize         int64    `json:"minSize,omitempty"`
	OlderThanDays   int      `json:"olderThanDays,omitempty"`
	Policy          Policy   `json:"policy"`
	Carbon          CarbonConfig `json:"carbon"`
}

// CarbonConfig holds the coefficients used by the carbon estimate, kept
// configurable rather than hardcoded per the design's Open Question
// resolution.
type CarbonConfig struct {
	CoefficientKgPerGB float64 `json:"coefficientKgPerGB"`
	GridIntensity      float64 `json:"gridIntensity"`
}

// DefaultCarbonConfig returns widely cited reference figures: embodied
// storage carbon per GB-year, and a generic grid carbon intensity
// (kg CO2e per kWh), both overridable via config.
func DefaultCarbonConfig() CarbonConfig {
	return CarbonConfig{
		CoefficientKgPerGB: 0.012,
		GridIntensity:      0.4,
	}
}

// Default returns a Config with the documented defaults applied.
func Default() Config {
	return Config{
		TopN:   20,
		Policy: DefaultPolicy(),
		Carbon: DefaultCarbonConfig(),
	}
}

// MinSizeString parses a suffixed size string (e.g. "500MB") into c.MinSize.
func (c *Config) MinSizeString(s string) error {
	v, err := units.ParseSize(s)
	if err != nil {
		return errors.Wrap(err, "min_size")
	}

	c.MinSize = v

	return nil
}

// Load reads a JSON config file and merges it over Default().
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %q", path)
	}

	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %q", path)
	}

	return cfg, nil
}

// Validate rejects configuration errors before any scan or cleanup starts.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New("at least one root is required")
	}

	for _, r := range c.Roots {
		if IsProtected(r) {
			return errors.Errorf("root %q is a protected path", r)
		}

		info, err := os.Stat(r)
		if err != nil {
			return errors.Wrapf(err, "root %q", r)
		}

		if !info.IsDir() {
			return errors.Errorf("root %q is not a directory", r)
		}
	}

	return nil
}
