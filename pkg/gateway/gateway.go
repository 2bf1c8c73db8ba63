// Package gateway is the HTTP request layer for the drive API. It owns
// no state beyond the auth token attached to every request; every
// failure is classified and reported upward, never retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
	"github.com/ashvinparmar897/atc-drive-web/pkg/protocol"
)

// Client issues calls against the drive API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	authToken string

	// onUnauthorized fires once per 401-class response so the session
	// boundary can tear down. Set via Config; may be nil.
	onUnauthorized func()
}

// Config holds client configuration.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	AuthToken      string
	OnUnauthorized func()
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		authToken:      cfg.AuthToken,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// AuthToken returns the current bearer token.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// applyAuth adds the auth header to a request if a token is set.
func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// newRequest builds a request with auth and a request id attached.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	c.applyAuth(req)
	return req, nil
}

// doJSON executes one request with an optional JSON body and decodes a
// JSON response into out (out may be nil for empty bodies). On 401 the
// unauthorized hook fires before the error is returned.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}, op, fallback string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(op, resp, fallback)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}

// ListFolders lists the folders under parentID ("" for root level).
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	query := url.Values{}
	if parentID != "" && parentID != models.RootID {
		query.Set("parent_id", parentID)
	}

	var payloads []protocol.FolderPayload
	if err := c.doJSON(ctx, "GET", "/api/folders/", query, nil, &payloads, "list folders", "Failed to fetch folders"); err != nil {
		return nil, err
	}

	folders := make([]models.Folder, 0, len(payloads))
	for i := range payloads {
		folders = append(folders, payloads[i].Normalize())
	}
	return folders, nil
}

// ListFiles lists the files under folderID ("" for root level).
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]models.File, error) {
	query := url.Values{}
	if folderID != "" && folderID != models.RootID {
		query.Set("folder_id", folderID)
	}

	var payloads []protocol.FilePayload
	if err := c.doJSON(ctx, "GET", "/api/files/", query, nil, &payloads, "list files", "Failed to fetch files"); err != nil {
		return nil, err
	}

	files := make([]models.File, 0, len(payloads))
	for i := range payloads {
		files = append(files, payloads[i].Normalize())
	}
	return files, nil
}

// GetFolder fetches a single folder by id.
func (c *Client) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	var payload protocol.FolderPayload
	if err := c.doJSON(ctx, "GET", "/api/folders/"+url.PathEscape(id), nil, nil, &payload, "get folder", "Failed to fetch folder"); err != nil {
		return nil, err
	}
	folder := payload.Normalize()
	return &folder, nil
}

// CreateFolder creates a folder under parentID ("" for root level).
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("create folder", "Folder name cannot be empty")
	}
	if parentID == models.RootID {
		parentID = ""
	}

	body := protocol.CreateFolderRequest{Name: name, ParentID: parentID}
	var payload protocol.FolderPayload
	if err := c.doJSON(ctx, "POST", "/api/folders/", nil, body, &payload, "create folder", "Failed to create folder"); err != nil {
		return nil, err
	}
	folder := payload.Normalize()
	return &folder, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("rename folder", "Folder name cannot be empty")
	}

	body := protocol.RenameFolderRequest{Name: name}
	var payload protocol.FolderPayload
	if err := c.doJSON(ctx, "PUT", "/api/folders/"+url.PathEscape(id), nil, body, &payload, "rename folder", "Failed to rename folder"); err != nil {
		return nil, err
	}
	folder := payload.Normalize()
	return &folder, nil
}

// DeleteFolder deletes a folder.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/api/folders/"+url.PathEscape(id), nil, nil, nil, "delete folder", "Failed to delete folder")
}

// RenameFile renames a file.
func (c *Client) RenameFile(ctx context.Context, id, filename string) (*models.File, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, validationError("rename file", "File name cannot be empty")
	}

	body := protocol.RenameFileRequest{Filename: filename}
	var payload protocol.FilePayload
	if err := c.doJSON(ctx, "PUT", "/api/files/"+url.PathEscape(id), nil, body, &payload, "rename file", "Failed to rename file"); err != nil {
		return nil, err
	}
	file := payload.Normalize()
	return &file, nil
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/api/files/"+url.PathEscape(id), nil, nil, nil, "delete file", "Failed to delete file")
}

// Search runs a server-side search and returns mixed entries tagged by
// kind.
func (c *Client) Search(ctx context.Context, q string) ([]models.Entry, error) {
	query := url.Values{}
	query.Set("q", q)

	var hits []protocol.SearchHit
	if err := c.doJSON(ctx, "GET", "/api/search", query, nil, &hits, "search", "Search failed"); err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(hits))
	for i := range hits {
		entries = append(entries, hits[i].Normalize())
	}
	return entries, nil
}

// Reorder ships the full reordered listing in one request.
func (c *Client) Reorder(ctx context.Context, items []protocol.ReorderItem) error {
	body := protocol.ReorderRequest{Items: items}
	return c.doJSON(ctx, "POST", "/api/folders/reorder", nil, body, nil, "reorder", "Failed to save order")
}

// Download holds the result of a download request: either a redirect
// URL or a raw byte stream, depending on the backend mode. When Body is
// non-nil the caller must close it.
type Download struct {
	URL      string
	Filename string
	Body     io.ReadCloser
	Size     int64
}

// RequestDownload fetches a file download. The backend either returns a
// JSON payload with a redirect URL or streams the bytes directly; both
// modes are supported.
func (c *Client) RequestDownload(ctx context.Context, fileID string) (*Download, error) {
	const op = "download"

	req, err := c.newRequest(ctx, "GET", "/api/files/"+url.PathEscape(fileID)+"/download", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, classify(op, resp, "Download failed. Please try again.")
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		defer resp.Body.Close()
		var dr protocol.DownloadResponse
		if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
			return nil, fmt.Errorf("%s: parse response: %w", op, err)
		}
		return &Download{URL: dr.URL, Filename: dr.Filename}, nil
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	return &Download{Body: resp.Body, Size: resp.ContentLength, Filename: filename}, nil
}

func filenameFromDisposition(header string) string {
	const marker = "filename="
	idx := strings.Index(header, marker)
	if idx < 0 {
		return ""
	}
	name := header[idx+len(marker):]
	return strings.Trim(name, `"`)
}

// UploadBatch posts one multipart batch to the upload endpoint scoped
// to folderID. The body and content type come from the upload
// orchestrator, which owns validation and progress accounting.
func (c *Client) UploadBatch(ctx context.Context, folderID, contentType string, body io.Reader) ([]models.File, error) {
	const op = "upload"

	query := url.Values{}
	query.Set("folder_id", folderID)

	req, err := c.newRequest(ctx, "POST", "/api/files/upload", query, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(op, resp, "Upload failed")
	}

	var payloads []protocol.FilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("%s: parse response: %w", op, err)
	}

	files := make([]models.File, 0, len(payloads))
	for i := range payloads {
		files = append(files, payloads[i].Normalize())
	}
	return files, nil
}

// SetPermission adds or removes a per-folder grant for one user.
// Action is "add" or "remove"; permission applies to add only.
func (c *Client) SetPermission(ctx context.Context, folderID, userEmail, action string, permission models.Role) error {
	body := protocol.PermissionRequest{
		UserEmail:  userEmail,
		Action:     action,
		Permission: string(permission),
	}
	return c.doJSON(ctx, "POST", "/api/folders/"+url.PathEscape(folderID)+"/permissions", nil, body, nil,
		"set permission", "Failed to update folder access")
}

// UserGrants lists the folder grants held by one user.
func (c *Client) UserGrants(ctx context.Context, userEmail string) ([]models.FolderGrant, error) {
	path := "/api/folders/users/" + url.PathEscape(userEmail) + "/folder_permissions"

	var payloads []protocol.GrantPayload
	if err := c.doJSON(ctx, "GET", path, nil, nil, &payloads, "list grants", "Failed to fetch folder permissions"); err != nil {
		return nil, err
	}

	grants := make([]models.FolderGrant, 0, len(payloads))
	for i := range payloads {
		grants = append(grants, payloads[i].Normalize())
	}
	return grants, nil
}

// ListUsers lists all users (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var payloads []protocol.UserPayload
	if err := c.doJSON(ctx, "GET", "/api/users/admin/users", nil, nil, &payloads, "list users", "Failed to fetch users"); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(payloads))
	for i := range payloads {
		users = append(users, payloads[i].Normalize())
	}
	return users, nil
}

// CreateUser creates a user (admin only).
func (c *Client) CreateUser(ctx context.Context, req protocol.CreateUserRequest) (*models.User, error) {
	var payload protocol.UserPayload
	if err := c.doJSON(ctx, "POST", "/api/users/admin/create", nil, req, &payload, "create user", "Failed to save user"); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

// UpdateUser updates a user (admin only).
func (c *Client) UpdateUser(ctx context.Context, id string, req protocol.UpdateUserRequest) (*models.User, error) {
	var payload protocol.UserPayload
	if err := c.doJSON(ctx, "PUT", "/api/users/admin/users/"+url.PathEscape(id), nil, req, &payload, "update user", "Failed to save user"); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

// DeleteUser deletes a user (admin only).
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/api/users/admin/users/"+url.PathEscape(id), nil, nil, nil, "delete user", "Failed to delete user")
}
