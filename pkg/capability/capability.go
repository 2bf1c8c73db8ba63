// Package capability maps a principal's role to its permitted actions.
package capability

import "github.com/ashvinparmar897/atc-drive-web/pkg/models"

// Set is the fixed set of UI-permitted actions for one role. Reading
// the drive is implicit for every authenticated role.
type Set struct {
	CanUpload       bool
	CanCreateFolder bool
	CanRename       bool
	CanDelete       bool
	CanManageUsers  bool
}

// ForRole resolves a role to its capability set. Unknown or missing
// roles degrade to viewer; ambiguous input never escalates.
func ForRole(role models.Role) Set {
	switch role {
	case models.RoleAdmin:
		return Set{
			CanUpload:       true,
			CanCreateFolder: true,
			CanRename:       true,
			CanDelete:       true,
			CanManageUsers:  true,
		}
	case models.RoleEditor:
		return Set{
			CanUpload:       true,
			CanCreateFolder: true,
			CanRename:       true,
		}
	default:
		return Set{}
	}
}
