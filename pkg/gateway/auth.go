package gateway

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
	"github.com/ashvinparmar897/atc-drive-web/pkg/protocol"
)

// Session holds the persisted cross-session state: the bearer token and
// the last-visited folder reference. Everything else is refetched.
type Session struct {
	Token      string        `json:"token"`
	ExpiresAt  time.Time     `json:"expires_at,omitempty"`
	Server     string        `json:"server"`
	Username   string        `json:"username"`
	LastFolder *models.Crumb `json:"last_folder,omitempty"`
}

// IsExpired returns true if the token has expired (with optional
// margin). Tokens without a known expiry never report expired here; the
// server's 401 is authoritative for those.
func (s *Session) IsExpired(margin time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(s.ExpiresAt)
}

// TokenExpiry reads the exp claim from a bearer token without verifying
// the signature. Verification belongs to the server; the client only
// needs the expiry to know when to force a fresh login.
func TokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Login authenticates with username (or email) and password, stores the
// token on the client, and returns the authenticated user.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, *Session, error) {
	body := protocol.LoginRequest{Username: username, Password: password}

	var result protocol.LoginResponse
	if err := c.doJSON(ctx, "POST", "/api/users/login", nil, body, &result, "login", "Login failed. Please try again."); err != nil {
		return nil, nil, err
	}

	c.SetAuthToken(result.AccessToken)

	user, err := c.Me(ctx)
	if err != nil {
		return nil, nil, err
	}

	session := &Session{
		Token:     result.AccessToken,
		ExpiresAt: TokenExpiry(result.AccessToken),
		Server:    c.baseURL,
		Username:  user.Username,
	}
	return user, session, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	body := protocol.RegisterRequest{Username: username, Email: email, Password: password}

	var payload protocol.UserPayload
	if err := c.doJSON(ctx, "POST", "/api/users/register", nil, body, &payload, "register", "Registration failed. Please try again."); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

// Me fetches the authenticated principal.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var payload protocol.UserPayload
	if err := c.doJSON(ctx, "GET", "/api/users/me", nil, nil, &payload, "get profile", "Failed to fetch profile"); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

// UpdateMe updates the authenticated principal's profile.
func (c *Client) UpdateMe(ctx context.Context, req protocol.UpdateProfileRequest) (*models.User, error) {
	var payload protocol.UserPayload
	if err := c.doJSON(ctx, "PUT", "/api/users/me", nil, req, &payload, "update profile", "Failed to update user."); err != nil {
		return nil, err
	}
	user := payload.Normalize()
	return &user, nil
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	body := protocol.ForgotPasswordRequest{Email: email}

	var result protocol.MessageResponse
	if err := c.doJSON(ctx, "POST", "/api/users/forgot-password", nil, body, &result, "forgot password", "Failed to send reset email."); err != nil {
		return "", err
	}
	return result.Msg, nil
}

// ResetPassword completes a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, email, resetToken, newPassword string) (string, error) {
	body := protocol.ResetPasswordRequest{
		Email:       email,
		ResetToken:  resetToken,
		NewPassword: newPassword,
	}

	var result protocol.MessageResponse
	if err := c.doJSON(ctx, "POST", "/api/users/reset-password", nil, body, &result, "reset password", "Failed to reset password."); err != nil {
		return "", err
	}
	return result.Msg, nil
}

// Logout discards the client's token. The API has no revocation
// endpoint; the token simply ages out server-side.
func (c *Client) Logout() {
	c.SetAuthToken("")
}

// SessionFilePath returns the default path for the session file.
func SessionFilePath() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "ATCDrive", "session.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "atc-drive", "session.json")
}

// SessionStore reads and writes the session file.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store over path. An empty path uses the
// default location.
func NewSessionStore(path string) *SessionStore {
	if path == "" {
		path = SessionFilePath()
	}
	return &SessionStore{path: path}
}

// Path returns the file the store reads and writes.
func (st *SessionStore) Path() string {
	return st.path
}

// Save writes the session file.
func (st *SessionStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, data, 0600)
}

// Load reads the session file.
func (st *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the session file. A missing file is not an error.
func (st *SessionStore) Delete() error {
	err := os.Remove(st.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
