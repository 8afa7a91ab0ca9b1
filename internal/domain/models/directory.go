package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// FavoritesKey is the sentinel page key for the favorites view. It is not
// fetchable; the page is assembled from favorite-flagged records.
const FavoritesKey = "favorites"

// ItemKind classifies a normalized directory record.
type ItemKind string

const (
	// KindHeader is a grouping node; its children are the contiguous run of
	// ChildCount records immediately following it.
	KindHeader ItemKind = "header"
	// KindCategory is a navigable directory page link.
	KindCategory ItemKind = "category"
	// KindSubcategory is a link-typed leaf inside a header group.
	KindSubcategory ItemKind = "subcategory"
	// KindAudio is a playable station entry.
	KindAudio ItemKind = "audio"
)

// DirectoryItem is a normalized, flat directory record. Position is the
// flattened document order within its parent page and must be preserved on
// every read. IsFavorite is user state: it survives re-synchronization of
// the page and is never derived from the remote body.
type DirectoryItem struct {
	ID         string   `json:"id"`
	ParentKey  string   `json:"parentKey"`
	Position   int      `json:"position"`
	Kind       ItemKind `json:"kind"`
	URL        string   `json:"url"`
	Text       string   `json:"text"`
	Subtitle   *string  `json:"subtitle,omitempty"`
	ChildCount *int     `json:"childCount,omitempty"`
	Image      *string  `json:"image,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	IsFavorite bool     `json:"isFavorite"`
}

// HasGeo reports whether the item carries a full coordinate pair.
func (it *DirectoryItem) HasGeo() bool {
	return it.Latitude != nil && it.Longitude != nil
}

// ItemID derives the stable identity of a record from its page, URL and
// text. Re-ingesting the same logical entry yields the same ID, so merges
// replace in place instead of duplicating.
func ItemID(parentKey, url, text string) string {
	sum := sha256.Sum256([]byte(parentKey + "\x00" + url + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}

// NestedNode is the raw remote directory element. Children distinguishes
// absent (nil) from explicitly empty: an explicitly empty list marks a
// header that carries no information and is dropped during normalization.
type NestedNode struct {
	Text      string       `json:"text"`
	URL       string       `json:"url"`
	Type      string       `json:"type,omitempty"`
	Image     string       `json:"image,omitempty"`
	Latitude  *float64     `json:"latitude,omitempty"`
	Longitude *float64     `json:"longitude,omitempty"`
	Children  []NestedNode `json:"children,omitempty"`
}

// Segment is a header-delimited slice of a page. Header is nil for records
// that precede the first header (or for pages without headers).
type Segment struct {
	Header *DirectoryItem  `json:"header,omitempty"`
	Items  []DirectoryItem `json:"items"`
}

// Bounds is the minimal axis-aligned box containing a set of coordinates.
type Bounds struct {
	MinLatitude  float64 `json:"minLatitude"`
	MinLongitude float64 `json:"minLongitude"`
	MaxLatitude  float64 `json:"maxLatitude"`
	MaxLongitude float64 `json:"maxLongitude"`
}
