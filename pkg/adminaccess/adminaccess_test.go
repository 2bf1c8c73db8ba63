package adminaccess

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

type fakeGateway struct {
	folders []models.Folder
	grants  []models.FolderGrant

	grantCalls int
	lastAction string
	lastFolder string
	lastPerm   models.Role

	setPermissionErr error
}

func (g *fakeGateway) ListFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	return g.folders, nil
}

func (g *fakeGateway) UserGrants(ctx context.Context, userEmail string) ([]models.FolderGrant, error) {
	g.grantCalls++
	out := make([]models.FolderGrant, len(g.grants))
	copy(out, g.grants)
	return out, nil
}

func (g *fakeGateway) SetPermission(ctx context.Context, folderID, userEmail, action string, permission models.Role) error {
	if g.setPermissionErr != nil {
		return g.setPermissionErr
	}
	g.lastAction = action
	g.lastFolder = folderID
	g.lastPerm = permission
	if action == ActionAdd {
		g.grants = append(g.grants, models.FolderGrant{
			FolderID: folderID, UserEmail: userEmail, Permission: permission,
		})
	}
	return nil
}

func TestOpen_SnapshotsFoldersAndGrants(t *testing.T) {
	gw := &fakeGateway{
		folders: []models.Folder{{ID: "f1", Name: "Reports"}, {ID: "f2", Name: "Archive"}},
		grants:  []models.FolderGrant{{FolderID: "f1", Permission: models.RoleViewer}},
	}
	e := New(gw)

	if err := e.Open(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.UserEmail() != "alice@example.com" {
		t.Errorf("unexpected user %q", e.UserEmail())
	}
	if len(e.Folders()) != 2 {
		t.Errorf("expected 2 folders, got %d", len(e.Folders()))
	}
	if len(e.Grants()) != 1 {
		t.Errorf("expected 1 grant, got %d", len(e.Grants()))
	}
}

func TestOpen_EmptyEmail(t *testing.T) {
	e := New(&fakeGateway{})
	if err := e.Open(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestAssign_RefetchesGrants(t *testing.T) {
	gw := &fakeGateway{folders: []models.Folder{{ID: "f1", Name: "Reports"}}}
	e := New(gw)
	if err := e.Open(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterOpen := gw.grantCalls

	if err := e.Assign(context.Background(), "f1", models.RoleEditor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.lastAction != ActionAdd || gw.lastFolder != "f1" || gw.lastPerm != models.RoleEditor {
		t.Errorf("unexpected request: action=%s folder=%s perm=%s", gw.lastAction, gw.lastFolder, gw.lastPerm)
	}
	if gw.grantCalls != callsAfterOpen+1 {
		t.Error("assign should refetch grants from the server")
	}
	if len(e.Grants()) != 1 {
		t.Errorf("expected grant cached after refetch, got %d", len(e.Grants()))
	}
}

func TestAssign_WithoutOpen(t *testing.T) {
	e := New(&fakeGateway{})
	if err := e.Assign(context.Background(), "f1", models.RoleViewer); err == nil {
		t.Fatal("expected error before Open")
	}
}

func TestRevoke_FiltersLocalCache(t *testing.T) {
	gw := &fakeGateway{grants: []models.FolderGrant{
		{FolderID: "f1", Permission: models.RoleViewer},
		{FolderID: "f2", Permission: models.RoleEditor},
	}}
	e := New(gw)
	if err := e.Open(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterOpen := gw.grantCalls

	if err := e.Revoke(context.Background(), "f1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.lastAction != ActionRemove {
		t.Errorf("expected remove action, got %q", gw.lastAction)
	}
	if gw.grantCalls != callsAfterOpen {
		t.Error("revoke should not refetch; the local cache is filtered")
	}

	grants := e.Grants()
	if len(grants) != 1 || grants[0].FolderID != "f2" {
		t.Errorf("expected only f2 left, got %+v", grants)
	}
}

func TestRevoke_FailureKeepsCache(t *testing.T) {
	gw := &fakeGateway{
		grants:           []models.FolderGrant{{FolderID: "f1"}},
		setPermissionErr: fmt.Errorf("boom"),
	}
	e := New(gw)
	if err := e.Open(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Revoke(context.Background(), "f1"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(e.Grants()) != 1 {
		t.Error("failed revoke must keep the cached grant")
	}
}
