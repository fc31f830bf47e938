// Package walker traverses the source tree and feeds surviving files to the
// per-file pipeline
package walker

import (
	"path"
	"strings"
	"sync"
)

// File is one candidate file that passed every gate: junk filtering, the
// pre-filter's path and category checks, and the size limit. Path is the
// slash-separated path relative to the walk root; Category is the
// classifier's tag for it ("" when unclassified).
type File struct {
	Path     string
	Category string
	Content  []byte
}

// WalkFunc receives each surviving file, or a read failure for a file that
// passed the gates but could not be loaded (Content is nil then).
type WalkFunc func(file File, err error) error

// Gate is the pre-read filter consulted before a file is handed to the
// callback. Every check is conservative: true means some rule may still
// match the file.
type Gate interface {
	AllowsPath(path string) bool
	AllowsCategory(category string) bool
	AllowsContent(content string) bool
}

// Classifier maps a slash-relative path to its category tag. Returning ""
// marks the file unclassified, which is not an error.
type Classifier func(path string) string

// ExtensionClassifier builds a Classifier from an extension table
// (lowercase extensions without the dot, mapped to category tags).
func ExtensionClassifier(categories map[string]string) Classifier {
	return func(p string) string {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		if ext == "" {
			return ""
		}
		return categories[ext]
	}
}

// SkippedReason clarifies why a file/directory was not processed.
type SkippedReason string

const (
	ReasonIgnoredJunk         SkippedReason = "Ignored (Junk Rule)"
	ReasonPreFilteredPath     SkippedReason = "Pre-filtered (Path)"
	ReasonPreFilteredCategory SkippedReason = "Pre-filtered (Category)"
	ReasonPreFilteredContent  SkippedReason = "Pre-filtered (Content)"
	ReasonNoMatchingRules     SkippedReason = "Skipped (No Matching Rules)"
	ReasonSkippedSizeLimit    SkippedReason = "Skipped (Size Limit Exceeded)"
	ReasonSkippedNotRegular   SkippedReason = "Skipped (Not a Regular File)"
	ReasonSkippedPermError    SkippedReason = "Skipped (Permission Error)"
	ReasonSkippedWalkError    SkippedReason = "Skipped (Walk Error)"
	ReasonSkippedReadError    SkippedReason = "Skipped (Read Error)"
	ReasonSkippedInfoError    SkippedReason = "Skipped (File Info Error)"
	ReasonSkippedPathError    SkippedReason = "Skipped (Path Calculation Error)"
)

// SkippedItem holds information about a skipped path.
type SkippedItem struct {
	Path   string        `json:"path"`
	Reason SkippedReason `json:"reason"`
	IsDir  bool          `json:"is_dir"`
}

// SkippedTracker collects skipped items across goroutines.
type SkippedTracker struct {
	items []SkippedItem
	mutex sync.Mutex
}

// NewSkippedTracker creates a new SkippedTracker
func NewSkippedTracker(capacity int) *SkippedTracker {
	return &SkippedTracker{
		items: make([]SkippedItem, 0, capacity),
	}
}

// Track adds a skipped item to the tracker
func (st *SkippedTracker) Track(path string, reason SkippedReason, isDir bool) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.items = append(st.items, SkippedItem{Path: path, Reason: reason, IsDir: isDir})
}

// Items returns the tracked skipped items
func (st *SkippedTracker) Items() []SkippedItem {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.items
}
