// Package breadcrumb reconstructs the ancestor chain of a folder by
// walking parent references back to the synthetic root.
package breadcrumb

import (
	"context"

	"github.com/ashvinparmar897/atc-drive-web/pkg/logging"
	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

// DefaultMaxDepth bounds the parent walk so a broken chain (including a
// folder claiming itself as parent) can never loop forever.
const DefaultMaxDepth = 32

// FolderFetcher resolves a folder by id. The gateway satisfies this.
type FolderFetcher interface {
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
}

// Builder walks parent chains into breadcrumb sequences.
type Builder struct {
	fetcher  FolderFetcher
	maxDepth int
}

// New creates a builder. maxDepth <= 0 uses DefaultMaxDepth.
func New(fetcher FolderFetcher, maxDepth int) *Builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Builder{fetcher: fetcher, maxDepth: maxDepth}
}

// Build returns the ordered chain from the root sentinel to current.
// A nil current means the root itself: the result is just the sentinel.
//
// Each hop is a sequential fetch of the previous hop's parent. A fetch
// failure mid-chain stops the walk rather than failing the whole
// operation; the partial chain is still prefixed with the root sentinel
// so navigation never blocks on a breadcrumb. The result is never empty
// and never contains duplicate ids.
func (b *Builder) Build(ctx context.Context, current *models.Folder) []models.Crumb {
	if current == nil {
		return []models.Crumb{models.RootCrumb()}
	}

	chain := []models.Crumb{{ID: current.ID, Name: current.Name}}
	seen := map[string]bool{current.ID: true}

	parentID := current.ParentID
	for depth := 0; parentID != "" && parentID != models.RootID; depth++ {
		if depth >= b.maxDepth {
			logging.Warn("breadcrumb chain exceeds max depth, truncating",
				logging.String("folder_id", current.ID),
				logging.Int("max_depth", b.maxDepth))
			break
		}
		if seen[parentID] {
			logging.Warn("breadcrumb chain loops, truncating",
				logging.String("folder_id", parentID))
			break
		}

		folder, err := b.fetcher.GetFolder(ctx, parentID)
		if err != nil {
			logging.Warn("breadcrumb parent fetch failed, returning partial chain",
				logging.String("parent_id", parentID),
				logging.Err(err))
			break
		}

		chain = append([]models.Crumb{{ID: folder.ID, Name: folder.Name}}, chain...)
		seen[folder.ID] = true
		parentID = folder.ParentID
	}

	return append([]models.Crumb{models.RootCrumb()}, chain...)
}
