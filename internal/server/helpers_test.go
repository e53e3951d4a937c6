package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/auth"
	"github.com/skillportal/skillportal/internal/config"
	"github.com/skillportal/skillportal/internal/models"
)

const testPassword = "secret123"

// testClock is a settable clock shared by the server under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server *Server
	ts     *httptest.Server
	db     *gorm.DB
	clock  *testClock
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Session: config.SessionConfig{
			JWTSecret:     "test-secret",
			TTL:           time.Hour,
			SweepSchedule: "@every 1h",
		},
		Logging: config.LoggingConfig{Level: "disabled", Format: "json"},
	}
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(filepath.Join(t.TempDir(), "portal.db"))), &gorm.Config{})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)}
	srv, err := NewWithDB(db, cfg, zerolog.Nop(), "test", WithClock(clock.Now))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: srv, ts: ts, db: db, clock: clock}
}

// newClient returns an HTTP client with its own cookie jar
func (e *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

// call sends a JSON request and decodes the JSON answer into a map
func (e *testEnv) call(t *testing.T, c *http.Client, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// seedUser stores an account with testPassword
func (e *testEnv) seedUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

// loginAs seeds an account and returns a client holding its session cookie
func (e *testEnv) loginAs(t *testing.T, email, role string) (*http.Client, *models.User) {
	t.Helper()
	user := e.seedUser(t, "Test "+role, email, role)
	c := e.newClient(t)
	status, body := e.call(t, c, http.MethodPost, "/api/"+role+"/auth/login", map[string]string{
		"email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, body)
	return c, user
}

func (e *testEnv) seedSkill(t *testing.T, name string) *models.Skill {
	t.Helper()
	skill := &models.Skill{Name: name}
	require.NoError(t, e.db.Create(skill).Error)
	return skill
}

func (e *testEnv) seedQuestion(t *testing.T, skillID, text string, options []string, correct string) *models.Question {
	t.Helper()
	q := &models.Question{SkillID: skillID, Question: text, Options: options, CorrectAnswer: correct}
	require.NoError(t, e.db.Create(q).Error)
	return q
}

func sessionUser(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	require.Contains(t, body, "user")
	if body["user"] == nil {
		return nil
	}
	u, ok := body["user"].(map[string]any)
	require.True(t, ok, "user is %T", body["user"])
	return u
}

func list(t *testing.T, body map[string]any, key string) []any {
	t.Helper()
	require.Contains(t, body, key)
	items, ok := body[key].([]any)
	require.True(t, ok, "%s is %T", key, body[key])
	return items
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
