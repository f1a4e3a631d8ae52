package quiz

import (
	"slices"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

type MediaOrder string

const (
	// OrderGrouped lists images first, then videos, each group by key.
	OrderGrouped MediaOrder = "grouped"
	// OrderByKey lists all media by key regardless of kind.
	OrderByKey MediaOrder = "key"
)

type MediaItem struct {
	ID   string           `json:"id"`
	Kind models.MediaKind `json:"kind"`
	URL  string           `json:"url"`
}

// BuildMediaSequence concatenates images then videos and orders them per order.
// Sorting is stable so equal keys keep their concatenation order.
func BuildMediaSequence(images, videos []models.Media, order MediaOrder) []MediaItem {
	byKey := func(a, b MediaItem) int { return strings.Compare(a.ID, b.ID) }

	imageItems := toMediaItems(images, models.MediaImage)
	videoItems := toMediaItems(videos, models.MediaVideo)

	if order == OrderByKey {
		items := append(imageItems, videoItems...)
		slices.SortStableFunc(items, byKey)
		return items
	}

	slices.SortStableFunc(imageItems, byKey)
	slices.SortStableFunc(videoItems, byKey)
	return append(imageItems, videoItems...)
}

func toMediaItems(media []models.Media, kind models.MediaKind) []MediaItem {
	items := make([]MediaItem, 0, len(media))
	for _, m := range media {
		items = append(items, MediaItem{ID: m.ID, Kind: kind, URL: m.PlayableURL()})
	}
	return items
}

// MediaSequencer walks a fixed media list one item at a time.
// The index never leaves [0, Len()); navigation past either end is a no-op.
type MediaSequencer struct {
	items []MediaItem
	index int
}

func NewMediaSequencer(items []MediaItem) *MediaSequencer {
	return &MediaSequencer{items: items}
}

func (m *MediaSequencer) Len() int {
	return len(m.items)
}

func (m *MediaSequencer) Index() int {
	return m.index
}

func (m *MediaSequencer) Current() (MediaItem, bool) {
	if len(m.items) == 0 {
		return MediaItem{}, false
	}
	return m.items[m.index], true
}

func (m *MediaSequencer) HasNext() bool {
	return m.index < len(m.items)-1
}

func (m *MediaSequencer) HasPrev() bool {
	return m.index > 0
}

// Next advances one item and reports whether the index moved.
func (m *MediaSequencer) Next() bool {
	if !m.HasNext() {
		return false
	}
	m.index++
	return true
}

// Prev steps back one item and reports whether the index moved.
func (m *MediaSequencer) Prev() bool {
	if !m.HasPrev() {
		return false
	}
	m.index--
	return true
}

// Seek clamps index into range and moves there.
func (m *MediaSequencer) Seek(index int) {
	switch {
	case len(m.items) == 0 || index < 0:
		m.index = 0
	case index >= len(m.items):
		m.index = len(m.items) - 1
	default:
		m.index = index
	}
}
