package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/skillportal/skillportal/internal/cli/auth"
	"github.com/skillportal/skillportal/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// mockCookieStore is a simple in-memory cookie store for testing
type mockCookieStore struct {
	mu      sync.Mutex
	cookies map[string][]*http.Cookie
}

func newMockCookieStore() *mockCookieStore {
	return &mockCookieStore{
		cookies: make(map[string][]*http.Cookie),
	}
}

func (m *mockCookieStore) SaveCookies(serverURL string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[serverURL] = cookies
	return nil
}

func (m *mockCookieStore) LoadCookies(serverURL string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, exists := m.cookies[serverURL]
	if !exists {
		return nil, auth.ErrNotLoggedIn
	}
	return c, nil
}

func (m *mockCookieStore) DeleteCookies(serverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, serverURL)
	return nil
}

func (m *mockCookieStore) has(serverURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cookies[serverURL]
	return ok
}

// setupTestEnvironment creates a temporary project directory with a
// portal.yaml listing servers, and a temporary HOME for the user config
func setupTestEnvironment(t *testing.T, servers []config.Server) string {
	t.Helper()

	tempDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	if servers != nil {
		require.NoError(t, config.Save(filepath.Join(tempDir, config.ConfigFileName), &config.Config{Servers: servers}))
	}

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	return tempDir
}

// recordedCall is one request the mock API saw
type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// mockPortal is a minimal portal API: cookie "user-token" is a user session,
// "admin-token" an admin session
type mockPortal struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (m *mockPortal) record(r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
}

func (m *mockPortal) seen(method, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c.Method == method && c.Path == path {
			return true
		}
	}
	return false
}

func (m *mockPortal) start(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	roleOf := func(r *http.Request) string {
		c, err := r.Cookie("portal_session")
		if err != nil {
			return ""
		}
		switch c.Value {
		case "user-token":
			return "user"
		case "admin-token":
			return "admin"
		}
		return ""
	}

	mux.HandleFunc("GET /api/user/auth/session", func(w http.ResponseWriter, r *http.Request) {
		role := roleOf(r)
		if role == "" {
			respond(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		respond(w, http.StatusOK, map[string]any{"user": map[string]any{
			"id": 1, "name": "Ana", "email": "ana@example.com", "role": role,
		}})
	})

	login := func(role string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				respond(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "portal_session", Value: role + "-token", Path: "/", HttpOnly: true})
			respond(w, http.StatusOK, map[string]any{"user": map[string]any{
				"id": 1, "name": "Ana", "email": body["email"], "role": role,
			}})
		}
	}
	mux.HandleFunc("POST /api/user/auth/login", login("user"))
	mux.HandleFunc("POST /api/admin/auth/login", login("admin"))

	mux.HandleFunc("POST /api/user/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		http.SetCookie(w, &http.Cookie{Name: "portal_session", Value: "", Path: "/", MaxAge: -1})
		respond(w, http.StatusOK, map[string]any{"message": "Logged out"})
	})

	mux.HandleFunc("GET /api/user/dashboard/skills", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"skills": []map[string]any{{"id": 3, "name": "Go"}}})
	})
	mux.HandleFunc("GET /api/user/dashboard/history", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"attempts": []map[string]any{
			{"skill": "Go", "score": 3, "started_at": "2025-08-01T10:30:00Z", "ended_at": "2025-08-01T10:35:00Z"},
		}})
	})

	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		respond(w, http.StatusOK, map[string]any{"users": []map[string]any{
			{"id": 5, "name": "Bo", "email": "bo@example.com", "role": "user"},
		}})
	})
	mux.HandleFunc("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		respond(w, http.StatusOK, map[string]any{"message": "deleted"})
	})
	mux.HandleFunc("POST /api/admin/questions", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		respond(w, http.StatusCreated, map[string]any{"message": "created"})
	})
	mux.HandleFunc("GET /api/admin/reports/time-based", func(w http.ResponseWriter, r *http.Request) {
		m.record(r)
		respond(w, http.StatusOK, map[string]any{"periods": []map[string]any{
			{"period": r.URL.Query().Get("period") + "-1", "avg_score": 2.5},
		}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newTestGlobals returns globals wired to an in-memory cookie store,
// optionally preloaded with a session cookie for serverURL
func newTestGlobals(serverURL, token string) (*Globals, *mockCookieStore) {
	cookies := newMockCookieStore()
	if token != "" {
		_ = cookies.SaveCookies(serverURL, []*http.Cookie{{Name: "portal_session", Value: token, Path: "/"}})
	}
	return &Globals{cookies: cookies, LogLevel: "disabled"}, cookies
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}
