package capability

import (
	"testing"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

func TestForRole_Admin(t *testing.T) {
	caps := ForRole(models.RoleAdmin)
	if !caps.CanUpload || !caps.CanCreateFolder || !caps.CanRename || !caps.CanDelete || !caps.CanManageUsers {
		t.Errorf("admin should hold every capability, got %+v", caps)
	}
}

func TestForRole_Editor(t *testing.T) {
	caps := ForRole(models.RoleEditor)
	if !caps.CanUpload || !caps.CanCreateFolder || !caps.CanRename {
		t.Errorf("editor should upload, create, and rename, got %+v", caps)
	}
	if caps.CanDelete {
		t.Error("editor must not delete")
	}
	if caps.CanManageUsers {
		t.Error("editor must not manage users")
	}
}

func TestForRole_Viewer(t *testing.T) {
	caps := ForRole(models.RoleViewer)
	if caps != (Set{}) {
		t.Errorf("viewer should hold no capabilities, got %+v", caps)
	}
}

func TestForRole_UnknownDefaultsToViewer(t *testing.T) {
	caps := ForRole(models.Role("superuser"))
	if caps != (Set{}) {
		t.Errorf("unknown role should fail safe to viewer, got %+v", caps)
	}
}

func TestForRole_EmptyRole(t *testing.T) {
	if caps := ForRole(""); caps != (Set{}) {
		t.Errorf("missing role should fail safe to viewer, got %+v", caps)
	}
}
