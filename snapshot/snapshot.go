// Package snapshot defines the immutable descriptors persisted by one scan:
// Snapshot, FileRecord, and the fixed ClassificationCategory set.
package snapshot

import "time"

// Category classifies a file for reporting and risk purposes.
type Category string

// The fixed set of classification categories.
const (
	CategoryMedia     Category = "media"
	CategoryCode      Category = "code"
	CategoryArchives  Category = "archives"
	CategoryDocuments Category = "documents"
	CategoryLogs      Category = "logs"
	CategorySystem    Category = "system"
	CategoryOther     Category = "other"
)

// Snapshot is an immutable descriptor of one completed (or in-progress)
// scan. A Snapshot with TotalFiles == 0 and TotalBytes == 0 and
// DurationSeconds == 0 is either still being written or was aborted before
// FinalizeSnapshot was called; see Finalized.
type Snapshot struct {
	ID              int64
	CreatedAt       time.Time
	Roots           []string
	TotalFiles      int64
	TotalBytes      int64
	DurationSeconds float64
}

// Finalized reports whether this snapshot's totals were committed by a
// completed scan, per the store's durability contract: a snapshot with
// DurationSeconds == 0 is either in progress or was aborted, and growth
// comparisons must skip it.
func (s Snapshot) Finalized() bool {
	return s.DurationSeconds > 0
}

// FileRecord is one row observed during a scan. It belongs to exactly one
// snapshot and is never updated after insert.
type FileRecord struct {
	ID         int64
	SnapshotID int64
	Path       string
	DirPath    string
	TopDir     string
	Size       int64
	Extension  string
	ModTime    time.Time
	AccessTime time.Time
	Permission uint32
	Hidden     bool
	Symlink    bool
	Category   Category
}
