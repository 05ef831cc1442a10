// Package classify provides the pure-function Classifier and RiskScorer
// described in the design: category assignment from a path/extension pair,
// and a numeric risk assessment from a path/category/hidden triple.
package classify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/diskwatch/diskwatch/internal/config"
	"github.com/diskwatch/diskwatch/snapshot"
)

func defaultExtensionTable() map[string]snapshot.Category {
	m := map[string]snapshot.Category{}

	add := func(cat snapshot.Category, exts ...string) {
		for _, e := range exts {
			m[e] = cat
		}
	}

	add(snapshot.CategoryMedia,
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".tiff",
		".mp3", ".wav", ".flac", ".aac", ".ogg",
		".mp4", ".mkv", ".mov", ".avi", ".webm", ".flv")
	add(snapshot.CategoryCode,
		".go", ".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".c", ".cpp",
		".h", ".hpp", ".rs", ".rb", ".php", ".sh", ".sql", ".cs", ".swift",
		".kt", ".scala", ".html", ".css", ".json", ".yaml", ".yml", ".toml")
	add(snapshot.CategoryArchives,
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar", ".tgz", ".zst")
	add(snapshot.CategoryDocuments,
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt",
		".md", ".odt", ".rtf", ".csv")
	add(snapshot.CategoryLogs,
		".log", ".tmp", ".cache", ".trace", ".out", ".err")

	return m
}

// Rules is the extension→category lookup table, mergeable with a
// user-supplied override. Only entries absent from the receiver are filled
// in by Merge, mirroring the "only set unset fields" idiom used elsewhere
// in this codebase's policy merging.
type Rules struct {
	ExtensionCategory map[string]snapshot.Category
}

// DefaultRules returns the built-in extension table.
func DefaultRules() Rules {
	return Rules{ExtensionCategory: defaultExtensionTable()}
}

// Merge applies src entries for extensions not already present in r.
func (r *Rules) Merge(src Rules) {
	if r.ExtensionCategory == nil {
		r.ExtensionCategory = map[string]snapshot.Category{}
	}

	for ext, cat := range src.ExtensionCategory {
		if _, exists := r.ExtensionCategory[ext]; !exists {
			r.ExtensionCategory[ext] = cat
		}
	}
}

// LoadUserRules reads a JSON map of {category: [extensions]} and merges it
// over DefaultRules, per the classifier_rules config option.
func LoadUserRules(path string) (Rules, error) {
	rules := DefaultRules()

	if path == "" {
		return rules, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return rules, errors.Wrapf(err, "reading classifier rules %q", path)
	}

	var byCategory map[snapshot.Category][]string
	if err := json.Unmarshal(b, &byCategory); err != nil {
		return rules, errors.Wrapf(err, "parsing classifier rules %q", path)
	}

	override := Rules{ExtensionCategory: map[string]snapshot.Category{}}
	for cat, exts := range byCategory {
		for _, e := range exts {
			override.ExtensionCategory[strings.ToLower(e)] = cat
		}
	}

	// User overrides take precedence: merge defaults into override, then
	// adopt override wholesale.
	override.Merge(rules)
	rules = override

	return rules, nil
}

var cacheMarkers = []string{"/cache/", "/.cache/", "/tmp/", "/.tmp/", "/var/tmp/", "/node_modules/.cache/"}

var systemPrefixes = append([]string{}, config.ProtectedPaths...)

// Classify assigns a category to path given its lowercase extension
// (including the dot, or empty). Path heuristics override the extension
// table for cache/tmp paths and system prefixes; cache/tmp markers are
// checked first, so a cache path under a system prefix is logs.
func (r Rules) Classify(path, extension string) snapshot.Category {
	lowered := strings.ToLower(path)

	for _, marker := range cacheMarkers {
		if strings.Contains(lowered, marker) {
			return snapshot.CategoryLogs
		}
	}

	for _, prefix := range systemPrefixes {
		if prefix == "/" {
			continue
		}

		if lowered == prefix || strings.HasPrefix(lowered, prefix+"/") {
			return snapshot.CategorySystem
		}
	}

	if cat, ok := r.ExtensionCategory[extension]; ok {
		return cat
	}

	return snapshot.CategoryOther
}

// Extension returns the lowercase extension (including the dot) of path,
// or "" if there is none.
func Extension(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(ext)
}
