package cli

import "github.com/diskwatch/diskwatch/internal/units"

// parseSizeFlag parses a suffixed size flag (e.g. "500MB") if non-empty,
// otherwise falls back to a config-derived default.
func parseSizeFlag(flag string, fallback int64) (int64, error) {
	if flag == "" || flag == "0" {
		return fallback, nil
	}

	return units.ParseSize(flag)
}
