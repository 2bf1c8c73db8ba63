package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenExpiry_ReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got := TokenExpiry(signedToken(t, exp))
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}
}

func TestTokenExpiry_Garbage(t *testing.T) {
	if got := TokenExpiry("not-a-token"); !got.IsZero() {
		t.Errorf("expected zero time for garbage token, got %v", got)
	}
}

func TestSession_IsExpired(t *testing.T) {
	s := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	if !s.IsExpired(0) {
		t.Error("past expiry should report expired")
	}

	s = &Session{ExpiresAt: time.Now().Add(time.Hour)}
	if s.IsExpired(0) {
		t.Error("future expiry should not report expired")
	}
	if !s.IsExpired(2 * time.Hour) {
		t.Error("margin larger than remaining life should report expired")
	}

	s = &Session{}
	if s.IsExpired(0) {
		t.Error("unknown expiry should never report expired")
	}
}

func TestLogin_StoresTokenAndBuildsSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/login":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "alice" {
				t.Errorf("expected username alice, got %q", body["username"])
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": token})
		case "/api/users/me":
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "u1", "username": "alice", "email": "alice@example.com",
				"role": "editor", "is_active": true,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})
	user, session, err := c.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != models.RoleEditor {
		t.Errorf("expected editor role, got %s", user.Role)
	}
	if gotAuth != "Bearer "+token {
		t.Errorf("profile fetch should carry the new token, got %q", gotAuth)
	}
	if session.Username != "alice" {
		t.Errorf("unexpected session username %q", session.Username)
	}
	if !session.ExpiresAt.Equal(exp) {
		t.Errorf("expected session expiry %v, got %v", exp, session.ExpiresAt)
	}
	if c.AuthToken() != token {
		t.Error("client should hold the token after login")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Incorrect username or password"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})
	_, _, err := c.Login(context.Background(), "alice", "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if c.AuthToken() != "" {
		t.Error("failed login must not leave a token behind")
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))

	s := &Session{
		Token:      "tok",
		ExpiresAt:  time.Now().Add(time.Hour).Truncate(time.Second),
		Server:     "http://localhost:8000",
		Username:   "alice",
		LastFolder: &models.Crumb{ID: "f1", Name: "Reports"},
	}
	if err := store.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != "tok" || loaded.Username != "alice" {
		t.Errorf("unexpected session: %+v", loaded)
	}
	if loaded.LastFolder == nil || loaded.LastFolder.ID != "f1" {
		t.Errorf("expected last folder to round-trip, got %+v", loaded.LastFolder)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("expected load to fail after delete")
	}
	if err := store.Delete(); err != nil {
		t.Errorf("deleting a missing session should be a no-op, got %v", err)
	}
}

func TestSessionStore_ConfiguredPathWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	custom := filepath.Join(t.TempDir(), "nested", "drive-session.json")

	store := NewSessionStore(custom)
	if store.Path() != custom {
		t.Fatalf("expected configured path %q, got %q", custom, store.Path())
	}
	if err := store.Save(&Session{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("expected session written to the configured path: %v", err)
	}
	if _, err := os.Stat(SessionFilePath()); err == nil {
		t.Error("default location must stay untouched when a path is configured")
	}

	if NewSessionStore("").Path() != SessionFilePath() {
		t.Error("empty path should fall back to the default location")
	}
}

func TestLogout_ClearsToken(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost:8000", AuthToken: "tok"})
	c.Logout()
	if c.AuthToken() != "" {
		t.Error("expected token cleared")
	}
}
