package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diskwatch/diskwatch/snapshot"
)

func TestClassifyExtensionTable(t *testing.T) {
	rules := DefaultRules()

	require.Equal(t, snapshot.CategoryCode, rules.Classify("/home/u/main.go", ".go"))
	require.Equal(t, snapshot.CategoryMedia, rules.Classify("/home/u/vacation.jpg", ".jpg"))
	require.Equal(t, snapshot.CategoryArchives, rules.Classify("/home/u/backup.tar.gz", ".gz"))
	require.Equal(t, snapshot.CategoryOther, rules.Classify("/home/u/README", ""))
}

func TestClassifyCachePathOverridesExtension(t *testing.T) {
	rules := DefaultRules()

	// a .go file sitting under a cache dir is still cache/logs, not code.
	require.Equal(t, snapshot.CategoryLogs, rules.Classify("/home/u/.cache/pip/wheel.go", ".go"))
	require.Equal(t, snapshot.CategoryLogs, rules.Classify("/var/tmp/build.log", ".log"))
}

func TestClassifySystemPrefixYieldsSystem(t *testing.T) {
	rules := DefaultRules()

	require.Equal(t, snapshot.CategorySystem, rules.Classify("/etc/hosts", ""))
	require.Equal(t, snapshot.CategorySystem, rules.Classify("/usr/bin/ls", ""))
}

func TestRulesMergeKeepsExistingEntries(t *testing.T) {
	base := Rules{ExtensionCategory: map[string]snapshot.Category{".go": snapshot.CategoryCode}}
	override := Rules{ExtensionCategory: map[string]snapshot.Category{
		".go":  snapshot.CategoryOther, // must NOT win, base already has .go
		".xyz": snapshot.CategoryMedia, // new entry, must be adopted
	}}

	base.Merge(override)

	require.Equal(t, snapshot.CategoryCode, base.ExtensionCategory[".go"])
	require.Equal(t, snapshot.CategoryMedia, base.ExtensionCategory[".xyz"])
}

func TestLoadUserRulesOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")

	const body = `{"media": [".xyz"], "code": [".jpg"]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rules, err := LoadUserRules(path)
	require.NoError(t, err)

	require.Equal(t, snapshot.CategoryMedia, rules.ExtensionCategory[".xyz"])
	// user override reassigns a default extension to a new category.
	require.Equal(t, snapshot.CategoryCode, rules.ExtensionCategory[".jpg"])
}

func TestLoadUserRulesEmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadUserRules("")
	require.NoError(t, err)
	require.Equal(t, DefaultRules(), rules)
}

func TestExtension(t *testing.T) {
	require.Equal(t, ".go", Extension("/a/b/main.go"))
	require.Equal(t, ".gz", Extension("/a/b/archive.tar.gz"))
	require.Equal(t, "", Extension("/a/b/README"))
}
