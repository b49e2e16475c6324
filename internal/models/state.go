// Package models defines the persisted widget data model: one state document
// per widget instance plus the items it displays.
package models

// ContentType distinguishes captured images from captured text snippets.
type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeText  ContentType = "text"
)

// RemindItem is one resurfaced piece of content with its cached-image
// pointer, tags and favorite status.
//
// LocalImagePath is empty until a download succeeds and is only ever
// overwritten (never cleared) by a later successful download for the same
// file id. Tags carry the full, unfiltered list as received from the backend.
type RemindItem struct {
	FileID         int64       `json:"fileId"`
	ImageURL       string      `json:"imageUrl"`
	IsFavorite     bool        `json:"isFavorite"`
	LocalImagePath string      `json:"localImagePath,omitempty"`
	Tags           []string    `json:"tags"`
	Type           ContentType `json:"type"`
	Context        string      `json:"context"`
}

// InstanceState is the per-instance widget state document.
//
// Invariant: CurrentIndex is in [0, len(RemindItems)) whenever RemindItems is
// non-empty, and 0 otherwise. LastUpdated is unix milliseconds.
type InstanceState struct {
	CurrentIndex int          `json:"currentIndex"`
	RemindItems  []RemindItem `json:"remindItems"`
	LastUpdated  int64        `json:"lastUpdated"`
	IsLoading    bool         `json:"isLoading"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// DefaultInstanceState is the document an unknown or unreadable instance id
// reads back as.
func DefaultInstanceState() InstanceState {
	return InstanceState{RemindItems: []RemindItem{}}
}

// CurrentItem returns the item at CurrentIndex, if any.
func (s InstanceState) CurrentItem() (RemindItem, bool) {
	if len(s.RemindItems) == 0 || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.RemindItems) {
		return RemindItem{}, false
	}
	return s.RemindItems[s.CurrentIndex], true
}

// Normalize forces the CurrentIndex invariant after a mutation: 0 for an
// empty list, and a reset to 0 if the index fell outside the list bounds.
func (s *InstanceState) Normalize() {
	if len(s.RemindItems) == 0 {
		s.CurrentIndex = 0
		return
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.RemindItems) {
		s.CurrentIndex = 0
	}
}
