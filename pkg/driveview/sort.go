package driveview

import (
	"sort"
	"strings"
	"time"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

// SortKey selects the comparison column for a directory view.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByType     SortKey = "type"
	SortBySize     SortKey = "size"
	SortByModified SortKey = "modified"
	// SortByOrder shows the server display order, the positions that
	// reordering operates on.
	SortByOrder SortKey = "order"
)

// SortDir is the sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// modifiedAt picks the effective modification time: updated, falling
// back to created. Missing timestamps stay zero and sort first.
func modifiedAt(e models.Entry) time.Time {
	if !e.UpdatedAt.IsZero() {
		return e.UpdatedAt
	}
	return e.CreatedAt
}

// compare returns -1, 0, or 1 per the sort key. Name comparison is
// case-insensitive; size is numeric; modified is temporal.
func compare(a, b models.Entry, key SortKey) int {
	switch key {
	case SortByType:
		return strings.Compare(string(a.Kind), string(b.Kind))
	case SortBySize:
		switch {
		case a.SizeBytes < b.SizeBytes:
			return -1
		case a.SizeBytes > b.SizeBytes:
			return 1
		}
		return 0
	case SortByModified:
		at, bt := modifiedAt(a), modifiedAt(b)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	case SortByOrder:
		switch {
		case a.DisplayOrder < b.DisplayOrder:
			return -1
		case a.DisplayOrder > b.DisplayOrder:
			return 1
		}
		return 0
	default:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

// sortEntries stable-sorts a copy of entries; ties keep insertion
// order.
func sortEntries(entries []models.Entry, key SortKey, dir SortDir) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], key)
		if dir == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}
