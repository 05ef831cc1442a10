// Package units formats and parses byte counts using binary (base-1024) suffixes.
package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	kb = 1024
	mb = kb * 1024
	gb = mb * 1024
	tb = gb * 1024
)

// FormatBytes renders n using binary units. The bare byte unit is rendered
// as an integer; every other unit is rendered with two decimal places.
func FormatBytes(n int64) string {
	switch {
	case n < kb:
		return fmt.Sprintf("%d B", n)
	case n < mb:
		return formatUnit(n, kb, "KB")
	case n < gb:
		return formatUnit(n, mb, "MB")
	case n < tb:
		return formatUnit(n, gb, "GB")
	default:
		return formatUnit(n, tb, "TB")
	}
}

func formatUnit(n, unit int64, suffix string) string {
	return fmt.Sprintf("%.2f %s", float64(n)/float64(unit), suffix)
}

// ParseSize parses a human size string such as "500MB" or "1GB" into bytes,
// using base-1024 suffixes B/KB/MB/GB/TB (case-insensitive).
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}

	upper := strings.ToUpper(s)

	var unit int64 = 1

	suffixes := []struct {
		suffix string
		mul    int64
	}{
		{"TB", tb},
		{"GB", gb},
		{"MB", mb},
		{"KB", kb},
		{"B", 1},
	}

	numeric := upper

	for _, sfx := range suffixes {
		if strings.HasSuffix(upper, sfx.suffix) {
			unit = sfx.mul
			numeric = strings.TrimSuffix(upper, sfx.suffix)

			break
		}
	}

	numeric = strings.TrimSpace(numeric)

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}

	if value < 0 {
		return 0, errors.Errorf("negative size %q", s)
	}

	return int64(value * float64(unit)), nil
}
