// Package adminaccess manages per-folder access grants for a single
// user at a time, the way the admin access panel edits them.
package adminaccess

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ashvinparmar897/atc-drive-web/pkg/logging"
	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

// Grant actions understood by the permissions endpoint.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Gateway is the slice of the remote API the editor needs.
type Gateway interface {
	ListFolders(ctx context.Context, parentID string) ([]models.Folder, error)
	UserGrants(ctx context.Context, userEmail string) ([]models.FolderGrant, error)
	SetPermission(ctx context.Context, folderID, userEmail, action string, permission models.Role) error
}

// Editor edits one user's folder grants. The assignable folder universe
// is snapshotted when the editor opens; grants are refetched after each
// assignment so the cache reflects what the server actually stored.
type Editor struct {
	gw Gateway

	mu        sync.Mutex
	userEmail string
	grants    []models.FolderGrant
	folders   []models.Folder
}

// New creates an editor over gw.
func New(gw Gateway) *Editor {
	return &Editor{gw: gw}
}

// Open targets the editor at userEmail, snapshots the folder universe,
// and loads the user's current grants.
func (e *Editor) Open(ctx context.Context, userEmail string) error {
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return fmt.Errorf("user email cannot be empty")
	}

	folders, err := e.gw.ListFolders(ctx, "")
	if err != nil {
		return fmt.Errorf("load folders: %w", err)
	}
	grants, err := e.gw.UserGrants(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("load grants: %w", err)
	}

	e.mu.Lock()
	e.userEmail = userEmail
	e.folders = folders
	e.grants = grants
	e.mu.Unlock()

	logging.Debug("access editor opened",
		logging.String("user", userEmail),
		logging.Int("folders", len(folders)),
		logging.Int("grants", len(grants)))
	return nil
}

// UserEmail returns the user being edited.
func (e *Editor) UserEmail() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userEmail
}

// Folders returns the assignable folder universe snapshot.
func (e *Editor) Folders() []models.Folder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Folder, len(e.folders))
	copy(out, e.folders)
	return out
}

// Grants returns the cached grants for the user being edited.
func (e *Editor) Grants() []models.FolderGrant {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.FolderGrant, len(e.grants))
	copy(out, e.grants)
	return out
}

// Assign grants permission on folderID to the user being edited, then
// refetches the grant list. The server decides how an assignment to an
// already-granted folder merges, so the refetch is the source of truth.
func (e *Editor) Assign(ctx context.Context, folderID string, permission models.Role) error {
	e.mu.Lock()
	email := e.userEmail
	e.mu.Unlock()
	if email == "" {
		return fmt.Errorf("no user selected")
	}

	if err := e.gw.SetPermission(ctx, folderID, email, ActionAdd, permission); err != nil {
		return err
	}

	grants, err := e.gw.UserGrants(ctx, email)
	if err != nil {
		return fmt.Errorf("reload grants: %w", err)
	}

	e.mu.Lock()
	e.grants = grants
	e.mu.Unlock()
	return nil
}

// Revoke removes the user's grant on folderID. On success the grant is
// filtered from the local cache without a refetch.
func (e *Editor) Revoke(ctx context.Context, folderID string) error {
	e.mu.Lock()
	email := e.userEmail
	e.mu.Unlock()
	if email == "" {
		return fmt.Errorf("no user selected")
	}

	if err := e.gw.SetPermission(ctx, folderID, email, ActionRemove, ""); err != nil {
		return err
	}

	e.mu.Lock()
	kept := e.grants[:0]
	for _, g := range e.grants {
		if g.FolderID != folderID {
			kept = append(kept, g)
		}
	}
	e.grants = kept
	e.mu.Unlock()
	return nil
}
