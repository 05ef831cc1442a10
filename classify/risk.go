package classify

import (
	"strings"

	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot"
)

// RiskLevel buckets a numeric risk score.
type RiskLevel string

// Risk levels, per the High/Medium/Low thresholds in the design.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const (
	riskHighThreshold   = 70
	riskMediumThreshold = 35
)

// Assessment is a derived, non-persisted risk evaluation.
type Assessment struct {
	Score   int
	Level   RiskLevel
	Reasons []string
}

func levelForScore(score int) RiskLevel {
	switch {
	case score >= riskHighThreshold:
		return RiskHigh
	case score >= riskMediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

var hintMarkers = []string{"/cache/", "/.cache/", "/tmp/", "/.tmp/", "/var/tmp/", "/log/", "/logs/"}

// Score computes a risk assessment for a path given its category and
// whether its name is hidden. Protected paths score +95 regardless of
// category; system category adds +70; hidden files add +25; cache/temp/log
// path hints subtract 30. The final score is clamped to [0, 100].
func Score(path string, category snapshot.Category, hidden bool) Assessment {
	var (
		score   int
		reasons []string
	)

	if config.IsProtected(path) {
		score += 95
		reasons = append(reasons, "protected-path")
	}

	if category == snapshot.CategorySystem {
		score += 70
		reasons = append(reasons, "system-category")
	}

	if hidden {
		score += 25
		reasons = append(reasons, "hidden-file")
	}

	lowered := strings.ToLower(path)

	for _, marker := range hintMarkers {
		if strings.Contains(lowered, marker) {
			score -= 30
			reasons = append(reasons, "cache-or-temp-hint")

			break
		}
	}

	if score < 0 {
		score = 0
	}

	if score > 100 {
		score = 100
	}

	return Assessment{
		Score:   score,
		Level:   levelForScore(score),
		Reasons: reasons,
	}
}
