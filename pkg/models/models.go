// Package models contains shared data types used across the client.
package models

import "time"

// Role is a principal's role as reported by the server.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// RootID is the synthetic root sentinel. It is not a real folder on the
// server; it only anchors breadcrumbs and root-level listings.
const RootID = "root"

// RootName is the display name of the synthetic root.
const RootName = "My Drive"

// User is the authenticated principal. Created at login/registration on
// the server, read-only to the client.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Folder is a directory entry of kind folder. ParentID is "" for
// root-level folders; the gateway normalizes all wire shapes into it.
type Folder struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ParentID     string    `json:"parent_id,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// File is a directory entry of kind file.
type File struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	FolderID     string    `json:"folder_id,omitempty"`
	SizeBytes    int64     `json:"file_size"`
	ContentType  string    `json:"content_type,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// EntryKind tags a merged directory entry as folder or file.
type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

// Entry is one row of a materialized directory listing: a folder or a
// file tagged with its kind. IDs are unique per kind, not across kinds.
type Entry struct {
	ID           string
	Kind         EntryKind
	Name         string
	ParentID     string
	SizeBytes    int64
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FolderEntry converts a folder into a listing entry.
func FolderEntry(f Folder) Entry {
	return Entry{
		ID:           f.ID,
		Kind:         KindFolder,
		Name:         f.Name,
		ParentID:     f.ParentID,
		DisplayOrder: f.DisplayOrder,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// FileEntry converts a file into a listing entry.
func FileEntry(f File) Entry {
	return Entry{
		ID:           f.ID,
		Kind:         KindFile,
		Name:         f.Filename,
		ParentID:     f.FolderID,
		SizeBytes:    f.SizeBytes,
		DisplayOrder: f.DisplayOrder,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Crumb is one element of a breadcrumb chain.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RootCrumb returns the synthetic root crumb.
func RootCrumb() Crumb {
	return Crumb{ID: RootID, Name: RootName}
}

// FolderGrant is a per-folder permission grant for one user.
type FolderGrant struct {
	FolderID   string `json:"id"`
	FolderName string `json:"name"`
	UserEmail  string `json:"user_email,omitempty"`
	Permission Role   `json:"permission,omitempty"`
}
