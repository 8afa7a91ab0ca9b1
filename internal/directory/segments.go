package directory

import (
	"radiodir/internal/domain/models"
)

// Reconstruct regroups a position-ordered flat page into header-delimited
// segments. A header claims the next ChildCount records as its members (by
// count, not by scanning for the next header); records outside any claim are
// flushed as headerless segments. Reconstruction is lossless: concatenating
// all segment members in order reproduces the input minus header records.
func Reconstruct(items []models.DirectoryItem) []models.Segment {
	var segments []models.Segment
	var buffer []models.DirectoryItem

	i := 0
	for i < len(items) {
		if items[i].Kind != models.KindHeader {
			buffer = append(buffer, items[i])
			i++
			continue
		}

		if len(buffer) > 0 {
			segments = append(segments, models.Segment{Items: buffer})
			buffer = nil
		}

		take := 0
		if items[i].ChildCount != nil {
			take = *items[i].ChildCount
		}
		if remaining := len(items) - i - 1; take > remaining {
			take = remaining
		}
		if take < 0 {
			take = 0
		}

		header := items[i]
		members := make([]models.DirectoryItem, take)
		copy(members, items[i+1:i+1+take])
		segments = append(segments, models.Segment{Header: &header, Items: members})
		i += take + 1
	}

	if len(buffer) > 0 {
		segments = append(segments, models.Segment{Items: buffer})
	}

	return segments
}

// FilterByHeaders reduces a page to the members of the selected headers,
// matched by canonical URL. An empty selection is the identity. If no
// selected header matches anything, the unfiltered page is returned rather
// than an empty list. Callers must dedupe the selection.
func FilterByHeaders(items []models.DirectoryItem, selected []models.DirectoryItem) []models.DirectoryItem {
	if len(selected) == 0 {
		return items
	}

	var out []models.DirectoryItem
	for _, sel := range selected {
		idx := -1
		for i := range items {
			if items[i].Kind == models.KindHeader && items[i].URL == sel.URL {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		take := 0
		if items[idx].ChildCount != nil {
			take = *items[idx].ChildCount
		}
		end := idx + 1 + take
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[idx+1:end]...)
	}

	if len(out) == 0 {
		return items
	}
	return out
}

// BoundingBox returns the minimal bounds containing every record that
// carries a full coordinate pair, together with those records. ok is false
// when no record qualifies.
func BoundingBox(items []models.DirectoryItem) (bounds models.Bounds, located []models.DirectoryItem, ok bool) {
	for _, it := range items {
		if !it.HasGeo() {
			continue
		}

		lat, lon := *it.Latitude, *it.Longitude
		if !ok {
			bounds = models.Bounds{
				MinLatitude: lat, MaxLatitude: lat,
				MinLongitude: lon, MaxLongitude: lon,
			}
			ok = true
		} else {
			if lat < bounds.MinLatitude {
				bounds.MinLatitude = lat
			}
			if lat > bounds.MaxLatitude {
				bounds.MaxLatitude = lat
			}
			if lon < bounds.MinLongitude {
				bounds.MinLongitude = lon
			}
			if lon > bounds.MaxLongitude {
				bounds.MaxLongitude = lon
			}
		}
		located = append(located, it)
	}
	return bounds, located, ok
}
