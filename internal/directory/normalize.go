package directory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
)

// Node type markers used by the remote directory format.
const (
	nodeTypeAudio = "audio"
	nodeTypeLink  = "link"
)

var (
	// "Title (Subtitle)" - audio entries carry the station locality in a
	// trailing parenthesized suffix.
	subtitleRe = regexp.MustCompile(`^(.*\S)\s*\((.+)\)$`)
	// "Genres (12)" - navigable entries carry their child count the same way.
	childCountRe = regexp.MustCompile(`^(.*\S)\s*\((\d+)\)$`)
)

// Normalizer converts raw nested directory bodies into flat, typed,
// position-ordered records for one page.
type Normalizer struct {
	sentinels map[string]struct{}
}

// NewNormalizer creates a normalizer. sentinelKeys are the non-URL page keys
// the caller may normalize under (configured source keys, "favorites").
func NewNormalizer(sentinelKeys ...string) *Normalizer {
	sentinels := make(map[string]struct{}, len(sentinelKeys))
	for _, key := range sentinelKeys {
		sentinels[key] = struct{}{}
	}
	return &Normalizer{sentinels: sentinels}
}

// Normalize flattens body into typed records in document order. Every record
// carries parentKey as its page so that reads, merges and diff-deletes stay
// scoped to the page; a header's children are the contiguous run of
// ChildCount records following it.
//
// Records with empty text are dropped. Records whose URL cannot be
// canonicalized are dropped unless they group at least one valid child.
// A header whose every child is invalid is dropped entirely, and an
// explicitly empty children list drops the node as well.
func (n *Normalizer) Normalize(body []models.NestedNode, parentKey string) ([]models.DirectoryItem, error) {
	if !IsCanonical(parentKey) {
		if _, ok := n.sentinels[parentKey]; !ok {
			return nil, fmt.Errorf("parent key %q: %w", parentKey, domain.ErrInvalidParent)
		}
	}

	items := make([]models.DirectoryItem, 0, len(body))
	for _, node := range body {
		items = appendNode(items, node, parentKey)
	}

	// Positions are dense within the page and reflect flattened document
	// order of this normalization pass.
	for i := range items {
		items[i].Position = i
	}

	return items, nil
}

// appendNode applies the drop/classify rules to one top-level node and
// appends the surviving records to dst.
func appendNode(dst []models.DirectoryItem, node models.NestedNode, parentKey string) []models.DirectoryItem {
	text := strings.TrimSpace(node.Text)
	if text == "" {
		// No usable identity, children or not.
		return dst
	}

	canonical, urlErr := Canonicalize(node.URL)

	// An explicitly empty children list is an empty-bodied header.
	if node.Children != nil && len(node.Children) == 0 {
		return dst
	}

	if len(node.Children) > 0 {
		kept := keepValidChildren(node.Children, parentKey)
		if len(kept) == 0 {
			// All children invalid: the header carries nothing.
			return dst
		}

		count := len(kept)
		header := newItem(parentKey, canonical, text, models.KindHeader, node)
		header.ChildCount = &count
		dst = append(dst, header)
		return append(dst, kept...)
	}

	if urlErr != nil {
		return dst
	}

	item := newItem(parentKey, canonical, text, leafKind(node.Type), node)
	return append(dst, applyTextRules(item))
}

// keepValidChildren filters a header's children by the same text/URL rules.
// Children are leaves in the two-level convention; a child that itself has
// children is treated as a navigable category for its own page.
func keepValidChildren(children []models.NestedNode, parentKey string) []models.DirectoryItem {
	kept := make([]models.DirectoryItem, 0, len(children))
	for _, child := range children {
		text := strings.TrimSpace(child.Text)
		if text == "" {
			continue
		}
		canonical, err := Canonicalize(child.URL)
		if err != nil {
			continue
		}

		kind := leafKind(child.Type)
		if len(child.Children) > 0 {
			kind = models.KindCategory
		}

		item := newItem(parentKey, canonical, text, kind, child)
		kept = append(kept, applyTextRules(item))
	}
	return kept
}

func leafKind(marker string) models.ItemKind {
	switch marker {
	case nodeTypeAudio:
		return models.KindAudio
	case nodeTypeLink:
		return models.KindSubcategory
	default:
		return models.KindCategory
	}
}

func newItem(parentKey, canonicalURL, text string, kind models.ItemKind, node models.NestedNode) models.DirectoryItem {
	item := models.DirectoryItem{
		ID:        models.ItemID(parentKey, canonicalURL, text),
		ParentKey: parentKey,
		Kind:      kind,
		URL:       canonicalURL,
		Text:      text,
		Latitude:  node.Latitude,
		Longitude: node.Longitude,
	}
	if node.Image != "" {
		image := node.Image
		item.Image = &image
	}
	return item
}

// applyTextRules post-processes a non-header record's text: audio entries
// split a trailing "(...)" into the subtitle, other entries extract a
// trailing "(<digits>)" as their child count.
func applyTextRules(item models.DirectoryItem) models.DirectoryItem {
	if item.Kind == models.KindAudio {
		if m := subtitleRe.FindStringSubmatch(item.Text); m != nil {
			subtitle := m[2]
			item.Text = m[1]
			item.Subtitle = &subtitle
		}
		return item
	}

	if m := childCountRe.FindStringSubmatch(item.Text); m != nil {
		if count, err := strconv.Atoi(m[2]); err == nil {
			item.Text = m[1]
			item.ChildCount = &count
		}
	}
	return item
}
