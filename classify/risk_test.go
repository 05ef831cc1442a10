package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/snapshot"
)

func TestScoreProtectedPathIsAlwaysHigh(t *testing.T) {
	a := Score("/etc", snapshot.CategorySystem, false)

	require.Equal(t, RiskHigh, a.Level)
	require.Contains(t, a.Reasons, "protected-path")
	require.Contains(t, a.Reasons, "system-category")
}

func TestScoreHiddenFileRaisesScore(t *testing.T) {
	visible := Score("/home/u/notes.txt", snapshot.CategoryDocuments, false)
	hidden := Score("/home/u/.notes.txt", snapshot.CategoryDocuments, true)

	require.Greater(t, hidden.Score, visible.Score)
	require.Contains(t, hidden.Reasons, "hidden-file")
}

func TestScoreCacheHintLowersScore(t *testing.T) {
	a := Score("/home/u/.cache/thing/blob", snapshot.CategoryOther, false)

	require.Equal(t, RiskLow, a.Level)
	require.Contains(t, a.Reasons, "cache-or-temp-hint")
}

func TestScoreClampedToRange(t *testing.T) {
	a := Score("/home/u/.cache/tmp/whatever", snapshot.CategoryOther, false)
	require.GreaterOrEqual(t, a.Score, 0)
	require.LessOrEqual(t, a.Score, 100)

	b := Score("/etc", snapshot.CategorySystem, true)
	require.LessOrEqual(t, b.Score, 100)
}

func TestLevelThresholds(t *testing.T) {
	require.Equal(t, RiskLow, levelForScore(0))
	require.Equal(t, RiskLow, levelForScore(riskMediumThreshold-1))
	require.Equal(t, RiskMedium, levelForScore(riskMediumThreshold))
	require.Equal(t, RiskHigh, levelForScore(riskHighThreshold))
}
