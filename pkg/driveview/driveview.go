// Package driveview holds the directory view-model: one directory's
// materialized listing, its derived search and sort views, and the
// optimistic mutation flow for rename, delete, and drag reordering.
package driveview

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashvinparmar897/atc-drive-web/pkg/breadcrumb"
	"github.com/ashvinparmar897/atc-drive-web/pkg/gateway"
	"github.com/ashvinparmar897/atc-drive-web/pkg/logging"
	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
	"github.com/ashvinparmar897/atc-drive-web/pkg/protocol"
)

// Phase is the view-model's state machine variable.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Severity grades a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	Severity Severity
	Message  string
}

// Gateway is the slice of the remote API the view-model drives.
type Gateway interface {
	ListFolders(ctx context.Context, parentID string) ([]models.Folder, error)
	ListFiles(ctx context.Context, folderID string) ([]models.File, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error)
	RenameFolder(ctx context.Context, id, name string) (*models.Folder, error)
	RenameFile(ctx context.Context, id, filename string) (*models.File, error)
	DeleteFolder(ctx context.Context, id string) error
	DeleteFile(ctx context.Context, id string) error
	Search(ctx context.Context, q string) ([]models.Entry, error)
	Reorder(ctx context.Context, items []protocol.ReorderItem) error
}

// Stats holds view-model counters.
type Stats struct {
	Navigations atomic.Int64
	Searches    atomic.Int64
	Renames     atomic.Int64
	Deletes     atomic.Int64
	Reorders    atomic.Int64
	Rollbacks   atomic.Int64
}

// DefaultSearchDebounce coalesces keystrokes into one in-flight search.
const DefaultSearchDebounce = 300 * time.Millisecond

// MinSearchLength is the shortest query that triggers a server search;
// anything shorter clears search mode locally.
const MinSearchLength = 2

// View is the directory view-model. It holds exactly one directory's
// children at a time: the listing is cleared on navigation and replaced
// when both listing requests resolve.
type View struct {
	gw      Gateway
	crumbs  *breadcrumb.Builder
	notify  func(Notification)
	confirm func(models.Entry) bool

	searchDebounce time.Duration

	Stats Stats

	mu          sync.Mutex
	phase       Phase
	current     *models.Folder
	listing     []models.Entry
	breadcrumbs []models.Crumb
	lastErr     string

	searchActive  bool
	searchResults []models.Entry
	searchGen     uint64
	searchTimer   *time.Timer

	sortKey SortKey
	sortDir SortDir
}

// Option configures a View.
type Option func(*View)

// WithNotifier installs the notification callback. The view-model
// never renders anything itself; every surfaced error goes through
// this hook.
func WithNotifier(fn func(Notification)) Option {
	return func(v *View) { v.notify = fn }
}

// WithConfirm installs the delete confirmation hook. Delete is a no-op
// when the hook returns false.
func WithConfirm(fn func(models.Entry) bool) Option {
	return func(v *View) { v.confirm = fn }
}

// WithSearchDebounce overrides the search debounce interval.
func WithSearchDebounce(d time.Duration) Option {
	return func(v *View) { v.searchDebounce = d }
}

// New creates a view-model over gw.
func New(gw Gateway, opts ...Option) *View {
	v := &View{
		gw:             gw,
		crumbs:         breadcrumb.New(gw, 0),
		notify:         func(Notification) {},
		confirm:        func(models.Entry) bool { return true },
		searchDebounce: DefaultSearchDebounce,
		phase:          PhaseIdle,
		breadcrumbs:    []models.Crumb{models.RootCrumb()},
		sortKey:        SortByName,
		sortDir:        SortAsc,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Phase returns the current phase.
func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// CurrentFolder returns the folder being viewed, nil for root.
func (v *View) CurrentFolder() *models.Folder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Breadcrumbs returns the chain from root to the current folder.
func (v *View) Breadcrumbs() []models.Crumb {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Crumb, len(v.breadcrumbs))
	copy(out, v.breadcrumbs)
	return out
}

// LastError returns the cause stored by the last failed navigation.
func (v *View) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Searching reports whether a search filter is active.
func (v *View) Searching() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.searchActive
}

// Entries returns the displayed set: server search results while a
// search is active, otherwise the directory listing, sorted per the
// current sort view.
func (v *View) Entries() []models.Entry {
	v.mu.Lock()
	src := v.listing
	if v.searchActive {
		src = v.searchResults
	}
	key, dir := v.sortKey, v.sortDir
	entries := make([]models.Entry, len(src))
	copy(entries, src)
	v.mu.Unlock()

	return sortEntries(entries, key, dir)
}

// SetSort changes the sort view. The underlying listing order (which
// drives drag reordering) is untouched.
func (v *View) SetSort(key SortKey, dir SortDir) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortKey = key
	v.sortDir = dir
}

// Navigate loads the listing for folder (nil for root). The previous
// listing is discarded immediately; folder and file requests run
// concurrently and combine only after both resolve, so a partial
// listing is never visible. Breadcrumbs are rebuilt on success.
func (v *View) Navigate(ctx context.Context, folder *models.Folder) error {
	folderID := ""
	if folder != nil {
		folderID = folder.ID
	}

	v.mu.Lock()
	v.phase = PhaseLoading
	v.current = folder
	v.listing = nil
	v.lastErr = ""
	v.clearSearchLocked()
	v.mu.Unlock()

	var (
		wg        sync.WaitGroup
		folders   []models.Folder
		files     []models.File
		folderErr error
		fileErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		folders, folderErr = v.gw.ListFolders(ctx, folderID)
	}()
	go func() {
		defer wg.Done()
		files, fileErr = v.gw.ListFiles(ctx, folderID)
	}()
	wg.Wait()

	if folderErr != nil || fileErr != nil {
		err := folderErr
		if err == nil {
			err = fileErr
		}
		msg := gateway.UserMessage(err)

		v.mu.Lock()
		v.phase = PhaseError
		v.lastErr = msg
		v.mu.Unlock()

		v.notify(Notification{Severity: SeverityError, Message: msg})
		logging.Error("directory listing failed",
			logging.String("folder_id", folderID), logging.Err(err))
		return err
	}

	entries := make([]models.Entry, 0, len(folders)+len(files))
	for _, f := range folders {
		entries = append(entries, models.FolderEntry(f))
	}
	for _, f := range files {
		entries = append(entries, models.FileEntry(f))
	}

	crumbs := v.crumbs.Build(ctx, folder)

	v.mu.Lock()
	v.listing = entries
	v.breadcrumbs = crumbs
	v.phase = PhaseReady
	v.mu.Unlock()

	v.Stats.Navigations.Add(1)
	logging.Debug("directory loaded",
		logging.String("folder_id", folderID),
		logging.Int("folders", len(folders)),
		logging.Int("files", len(files)))
	return nil
}

// Refresh reloads the current directory.
func (v *View) Refresh(ctx context.Context) error {
	return v.Navigate(ctx, v.CurrentFolder())
}

// CreateFolder creates a folder in the current directory and refreshes
// the listing.
func (v *View) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	parentID := ""
	if cur := v.CurrentFolder(); cur != nil {
		parentID = cur.ID
	}

	folder, err := v.gw.CreateFolder(ctx, name, parentID)
	if err != nil {
		v.notify(Notification{Severity: SeverityError, Message: gateway.UserMessage(err)})
		return nil, err
	}

	v.notify(Notification{
		Severity: SeveritySuccess,
		Message:  `Folder "` + folder.Name + `" created successfully`,
	})
	if err := v.Refresh(ctx); err != nil {
		return folder, err
	}
	return folder, nil
}

// Rename renames a listing entry. An empty or unchanged trimmed name is
// a no-op: no request is sent and no notification raised. The listing
// is updated optimistically and rolled back if the call fails.
func (v *View) Rename(ctx context.Context, entry models.Entry, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == entry.Name {
		return nil
	}

	v.mu.Lock()
	v.setNameLocked(entry, newName)
	v.mu.Unlock()

	var err error
	if entry.Kind == models.KindFolder {
		_, err = v.gw.RenameFolder(ctx, entry.ID, newName)
	} else {
		_, err = v.gw.RenameFile(ctx, entry.ID, newName)
	}

	if err != nil {
		v.mu.Lock()
		v.setNameLocked(entry, entry.Name)
		v.mu.Unlock()

		v.Stats.Rollbacks.Add(1)
		v.notify(Notification{Severity: SeverityError, Message: gateway.UserMessage(err)})
		return err
	}

	v.Stats.Renames.Add(1)
	return nil
}

// Delete removes an entry after the confirmation hook approves. The
// entry leaves the listing only once the server confirms; on failure it
// is retained and the error surfaced.
func (v *View) Delete(ctx context.Context, entry models.Entry) error {
	if !v.confirm(entry) {
		return nil
	}

	var err error
	if entry.Kind == models.KindFolder {
		err = v.gw.DeleteFolder(ctx, entry.ID)
	} else {
		err = v.gw.DeleteFile(ctx, entry.ID)
	}

	if err != nil {
		v.notify(Notification{Severity: SeverityError, Message: gateway.UserMessage(err)})
		return err
	}

	v.mu.Lock()
	if idx := v.indexOfLocked(entry); idx >= 0 {
		v.listing = append(v.listing[:idx], v.listing[idx+1:]...)
	}
	v.removeSearchResultLocked(entry)
	v.mu.Unlock()

	v.Stats.Deletes.Add(1)
	return nil
}

// Reorder moves entry to position toIdx within the listing order,
// recomputes a contiguous zero-based display order for every item, and
// ships the full reordered array in one request. The entry is resolved
// by id and kind, never by its position in a sorted view; toIdx is a
// listing-order position. The move is applied optimistically; if the
// request fails the listing is resynchronized by refetching, since a
// prior partial reorder could otherwise desync from the server's
// authoritative order.
func (v *View) Reorder(ctx context.Context, entry models.Entry, toIdx int) error {
	v.mu.Lock()
	n := len(v.listing)
	fromIdx := v.indexOfLocked(entry)
	if fromIdx < 0 || toIdx < 0 || toIdx >= n || fromIdx == toIdx {
		v.mu.Unlock()
		return nil
	}

	moved := v.listing[fromIdx]
	v.listing = append(v.listing[:fromIdx], v.listing[fromIdx+1:]...)
	v.listing = append(v.listing[:toIdx], append([]models.Entry{moved}, v.listing[toIdx:]...)...)

	items := make([]protocol.ReorderItem, n)
	for i := range v.listing {
		v.listing[i].DisplayOrder = i
		items[i] = protocol.ReorderItem{
			ID:           v.listing[i].ID,
			Type:         string(v.listing[i].Kind),
			DisplayOrder: i,
		}
	}
	v.mu.Unlock()

	if err := v.gw.Reorder(ctx, items); err != nil {
		v.Stats.Rollbacks.Add(1)
		v.notify(Notification{Severity: SeverityError, Message: "Failed to save order"})
		if refreshErr := v.Refresh(ctx); refreshErr != nil {
			logging.Error("listing resync after failed reorder also failed",
				logging.Err(refreshErr))
		}
		return err
	}

	v.Stats.Reorders.Add(1)
	return nil
}

// Search applies a search query. Queries shorter than MinSearchLength
// clear search mode and restore the directory listing without a fetch.
// Longer queries are debounced and single-flight: a newer query
// invalidates any pending or in-flight older one, and stale responses
// are discarded by generation.
func (v *View) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	v.mu.Lock()
	v.searchGen++
	gen := v.searchGen
	if v.searchTimer != nil {
		v.searchTimer.Stop()
		v.searchTimer = nil
	}

	if len([]rune(query)) < MinSearchLength {
		v.searchActive = false
		v.searchResults = nil
		v.mu.Unlock()
		return
	}

	v.searchTimer = time.AfterFunc(v.searchDebounce, func() {
		v.runSearch(ctx, gen, query)
	})
	v.mu.Unlock()
}

func (v *View) runSearch(ctx context.Context, gen uint64, query string) {
	v.mu.Lock()
	if gen != v.searchGen {
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	results, err := v.gw.Search(ctx, query)

	v.mu.Lock()
	if gen != v.searchGen {
		// A newer query superseded this one while it was in flight.
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.mu.Unlock()
		v.notify(Notification{Severity: SeverityError, Message: gateway.UserMessage(err)})
		return
	}
	v.searchActive = true
	v.searchResults = results
	v.mu.Unlock()

	v.Stats.Searches.Add(1)
}

// clearSearchLocked resets search state; the caller holds v.mu.
func (v *View) clearSearchLocked() {
	v.searchGen++
	if v.searchTimer != nil {
		v.searchTimer.Stop()
		v.searchTimer = nil
	}
	v.searchActive = false
	v.searchResults = nil
}

// setNameLocked renames the entry in the listing and, when a search is
// active, in the displayed search results; the caller holds v.mu.
func (v *View) setNameLocked(entry models.Entry, name string) {
	if idx := v.indexOfLocked(entry); idx >= 0 {
		v.listing[idx].Name = name
	}
	for i := range v.searchResults {
		if v.searchResults[i].ID == entry.ID && v.searchResults[i].Kind == entry.Kind {
			v.searchResults[i].Name = name
			return
		}
	}
}

// indexOfLocked finds an entry by id and kind; the caller holds v.mu.
// IDs are unique per kind, not across kinds.
func (v *View) indexOfLocked(entry models.Entry) int {
	for i := range v.listing {
		if v.listing[i].ID == entry.ID && v.listing[i].Kind == entry.Kind {
			return i
		}
	}
	return -1
}

func (v *View) removeSearchResultLocked(entry models.Entry) {
	for i := range v.searchResults {
		if v.searchResults[i].ID == entry.ID && v.searchResults[i].Kind == entry.Kind {
			v.searchResults = append(v.searchResults[:i], v.searchResults[i+1:]...)
			return
		}
	}
}
