// Package protocol defines the API request/response types.
//
// All parent-reference shape sniffing lives here: the server has been
// observed to deliver a folder's parent as an embedded object, a bare
// primitive, a parent_id field, or a parentId alias. Payloads resolve
// every shape into a single normalized parent id so consumers never
// re-sniff.
package protocol

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

// FlexID is an identifier that may arrive as a JSON string or number.
type FlexID string

// UnmarshalJSON accepts string, number, or null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// ErrorResponse is returned on API errors. The server usually populates
// detail; some endpoints use error instead.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Message returns the best available server-supplied message.
func (e ErrorResponse) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// FolderPayload is a folder as delivered by the server.
type FolderPayload struct {
	ID           FlexID          `json:"id"`
	Name         string          `json:"name"`
	Parent       json.RawMessage `json:"parent,omitempty"`
	ParentID     FlexID          `json:"parent_id,omitempty"`
	ParentIDAlt  FlexID          `json:"parentId,omitempty"`
	DisplayOrder int             `json:"display_order"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// ResolveParentID resolves the parent reference regardless of wire
// shape. Precedence: embedded object id, primitive parent, parent_id,
// parentId. Returns "" for root-level folders.
func (p *FolderPayload) ResolveParentID() string {
	if len(p.Parent) > 0 && !bytes.Equal(p.Parent, []byte("null")) {
		var obj struct {
			ID FlexID `json:"id"`
		}
		if err := json.Unmarshal(p.Parent, &obj); err == nil && obj.ID != "" {
			return string(obj.ID)
		}
		var prim FlexID
		if err := json.Unmarshal(p.Parent, &prim); err == nil && prim != "" {
			return string(prim)
		}
	}
	if p.ParentID != "" {
		return string(p.ParentID)
	}
	return string(p.ParentIDAlt)
}

// Normalize converts the payload into the client model.
func (p *FolderPayload) Normalize() models.Folder {
	return models.Folder{
		ID:           string(p.ID),
		Name:         p.Name,
		ParentID:     p.ResolveParentID(),
		DisplayOrder: p.DisplayOrder,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// FilePayload is a file as delivered by the server.
type FilePayload struct {
	ID           FlexID    `json:"id"`
	Filename     string    `json:"filename"`
	Name         string    `json:"name,omitempty"`
	FolderID     FlexID    `json:"folder_id,omitempty"`
	SizeBytes    int64     `json:"file_size"`
	ContentType  string    `json:"content_type,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Normalize converts the payload into the client model. Some endpoints
// report the filename under name; filename wins when both are present.
func (p *FilePayload) Normalize() models.File {
	name := p.Filename
	if name == "" {
		name = p.Name
	}
	return models.File{
		ID:           string(p.ID),
		Filename:     name,
		FolderID:     string(p.FolderID),
		SizeBytes:    p.SizeBytes,
		ContentType:  p.ContentType,
		DisplayOrder: p.DisplayOrder,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// CreateFolderRequest is the body for POST /api/folders.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// RenameFolderRequest is the body for PUT /api/folders/{id}.
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// RenameFileRequest is the body for PUT /api/files/{id}.
type RenameFileRequest struct {
	Filename string `json:"filename"`
}

// ReorderItem is one row of a reorder submission. Type is "folder" or
// "file"; DisplayOrder is the item's new zero-based position.
type ReorderItem struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	DisplayOrder int    `json:"display_order"`
}

// ReorderRequest is the body for POST /api/folders/reorder. It carries
// the full listing, not just the moved item.
type ReorderRequest struct {
	Items []ReorderItem `json:"items"`
}

// SearchHit is one entry of a mixed search result, tagged by kind.
type SearchHit struct {
	ID        FlexID    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	ParentID  FlexID    `json:"parent_id,omitempty"`
	FolderID  FlexID    `json:"folder_id,omitempty"`
	SizeBytes int64     `json:"file_size,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Normalize converts a search hit into a listing entry.
func (h *SearchHit) Normalize() models.Entry {
	kind := models.EntryKind(h.Type)
	name := h.Name
	parent := string(h.ParentID)
	if kind == models.KindFile {
		if h.Filename != "" {
			name = h.Filename
		}
		parent = string(h.FolderID)
	}
	return models.Entry{
		ID:        string(h.ID),
		Kind:      kind,
		Name:      name,
		ParentID:  parent,
		SizeBytes: h.SizeBytes,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

// PermissionRequest is the body for POST /api/folders/{id}/permissions.
// Action is "add" or "remove"; Permission applies to add only.
type PermissionRequest struct {
	UserEmail  string `json:"user_email"`
	Action     string `json:"action"`
	Permission string `json:"permission,omitempty"`
}

// GrantPayload is one folder grant as delivered by the server.
type GrantPayload struct {
	ID         FlexID `json:"id"`
	Name       string `json:"name"`
	UserEmail  string `json:"user_email,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// Normalize converts the payload into the client model.
func (p *GrantPayload) Normalize() models.FolderGrant {
	return models.FolderGrant{
		FolderID:   string(p.ID),
		FolderName: p.Name,
		UserEmail:  p.UserEmail,
		Permission: models.Role(p.Permission),
	}
}

// DownloadResponse is the JSON form of GET /api/files/{id}/download
// when the backend serves redirect URLs instead of raw bytes.
type DownloadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// LoginRequest is the body for POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response from POST /api/users/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// RegisterRequest is the body for POST /api/users/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the body for POST /api/users/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body for POST /api/users/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// MessageResponse carries a human-readable server message.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// UserPayload is a user as delivered by the server.
type UserPayload struct {
	ID        FlexID    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Normalize converts the payload into the client model.
func (p *UserPayload) Normalize() models.User {
	return models.User{
		ID:        string(p.ID),
		Username:  p.Username,
		Email:     p.Email,
		Role:      models.Role(p.Role),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

// CreateUserRequest is the body for POST /api/users/admin/create.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the body for PUT /api/users/admin/users/{id}.
// Password is omitted to leave it unchanged.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
}

// UpdateProfileRequest is the body for PUT /api/users/me.
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}
