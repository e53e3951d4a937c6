package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillportal/skillportal/internal/config"
	"github.com/skillportal/skillportal/internal/models"
)

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, env.newClient(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "portal-api", body["service"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, env.newClient(t), http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["message"])
}

func TestRegisterLoginSessionLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	status, body := env.call(t, c, http.MethodPost, "/api/user/auth/register", map[string]string{
		"name": "Ada", "email": "Ada@Example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Registration successful", body["message"])
	assert.Equal(t, "ada@example.com", sessionUser(t, body)["email"])

	// Not logged in yet
	status, body = env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, sessionUser(t, body))

	status, body = env.call(t, c, http.MethodPost, "/api/user/auth/login", map[string]string{
		"email": "ada@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "user", sessionUser(t, body)["role"])

	status, body = env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	u := sessionUser(t, body)
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u["name"])
	assert.Equal(t, "ada@example.com", u["email"])
	assert.Equal(t, "user", u["role"])
	assert.NotEmpty(t, u["id"])

	status, body = env.call(t, c, http.MethodPost, "/api/user/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", body["message"])

	status, body = env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, sessionUser(t, body))

	var sessions []models.Session
	require.NoError(t, env.db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.NotNil(t, sessions[0].RevokedAt)
}

func TestRevokedTokenStaysDead(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.loginAs(t, "ada@example.com", models.RoleUser)

	cookies := c.Jar.Cookies(mustURL(t, env.ts.URL))
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)

	status, _ := env.call(t, c, http.MethodPost, "/api/user/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	// Replaying the old cookie does not bring the session back
	replay := env.newClient(t)
	replay.Jar.SetCookies(mustURL(t, env.ts.URL), cookies)
	_, body := env.call(t, replay, http.MethodGet, "/api/user/auth/session", nil)
	assert.Nil(t, sessionUser(t, body))
}

func TestLogout_WithoutSession(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.call(t, env.newClient(t), http.MethodPost, "/api/user/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", body["message"])
}

func TestSession_ExpiresWithTTL(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.loginAs(t, "ada@example.com", models.RoleUser)

	env.clock.Advance(59 * time.Minute)
	_, body := env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	assert.NotNil(t, sessionUser(t, body))

	env.clock.Advance(2 * time.Minute)
	_, body = env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	assert.Nil(t, sessionUser(t, body))

	status, _ := env.call(t, c, http.MethodGet, "/api/user/dashboard/skills", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSession_ReflectsRoleChange(t *testing.T) {
	env := newTestEnv(t)
	c, user := env.loginAs(t, "ada@example.com", models.RoleUser)

	require.NoError(t, env.db.Model(user).Update("role", models.RoleAdmin).Error)

	_, body := env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	assert.Equal(t, "admin", sessionUser(t, body)["role"])
}

func TestSession_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	c, user := env.loginAs(t, "ada@example.com", models.RoleUser)

	require.NoError(t, env.db.Delete(user).Error)

	_, body := env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	assert.Nil(t, sessionUser(t, body))
}

func TestSession_GarbageCookie(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.Jar.SetCookies(mustURL(t, env.ts.URL), []*http.Cookie{{Name: SessionCookieName, Value: "garbage", Path: "/"}})

	status, body := env.call(t, c, http.MethodGet, "/api/user/auth/session", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, sessionUser(t, body))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing name", map[string]string{"email": "a@b.co", "password": testPassword}, "name is required"},
		{"blank name", map[string]string{"name": "  ", "email": "a@b.co", "password": testPassword}, "name is required"},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": testPassword}, "email must be a valid email address"},
		{"short password", map[string]string{"name": "A", "email": "a@b.co", "password": "123"}, "password must be at least 6 characters"},
		{"not json", "just a string", "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.call(t, env.newClient(t), http.MethodPost, "/api/user/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Ada", "ada@example.com", models.RoleUser)

	status, body := env.call(t, env.newClient(t), http.MethodPost, "/api/user/auth/register", map[string]string{
		"name": "Other", "email": "ADA@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestAdminRegistration(t *testing.T) {
	t.Run("first admin may register", func(t *testing.T) {
		env := newTestEnv(t)
		body := map[string]string{"name": "Root", "email": "root@example.com", "password": testPassword}

		status, resp := env.call(t, env.newClient(t), http.MethodPost, "/api/admin/auth/register", body)
		require.Equal(t, http.StatusCreated, status, resp)
		assert.Equal(t, "admin", sessionUser(t, resp)["role"])

		body["email"] = "second@example.com"
		status, resp = env.call(t, env.newClient(t), http.MethodPost, "/api/admin/auth/register", body)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Admin registration is closed", resp["message"])
	})

	t.Run("open when allowed", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.AllowAdminRegistration = true })
		env.seedUser(t, "Root", "root@example.com", models.RoleAdmin)

		status, resp := env.call(t, env.newClient(t), http.MethodPost, "/api/admin/auth/register", map[string]string{
			"name": "Second", "email": "second@example.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusCreated, status, resp)
	})
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Ada", "ada@example.com", models.RoleUser)

	tests := []struct {
		name    string
		path    string
		email   string
		pass    string
		status  int
		message string
	}{
		{"unknown email", "/api/user/auth/login", "who@example.com", testPassword, http.StatusUnauthorized, "Invalid email or password"},
		{"wrong password", "/api/user/auth/login", "ada@example.com", "wrong-pass", http.StatusUnauthorized, "Invalid email or password"},
		{"user on admin login", "/api/admin/auth/login", "ada@example.com", testPassword, http.StatusForbidden, "Admin access required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.newClient(t)
			status, body := env.call(t, c, http.MethodPost, tt.path, map[string]string{"email": tt.email, "password": tt.pass})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Empty(t, c.Jar.Cookies(mustURL(t, env.ts.URL)))
		})
	}

	var sessions int64
	require.NoError(t, env.db.Model(&models.Session{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
}

func TestAdminMayUseUserLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Root", "root@example.com", models.RoleAdmin)

	status, body := env.call(t, env.newClient(t), http.MethodPost, "/api/user/auth/login", map[string]string{
		"email": "root@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status)
	// The account's role is reported, not the endpoint's
	assert.Equal(t, "admin", sessionUser(t, body)["role"])
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	userClient, _ := env.loginAs(t, "ada@example.com", models.RoleUser)
	adminClient, _ := env.loginAs(t, "root@example.com", models.RoleAdmin)
	anon := env.newClient(t)

	tests := []struct {
		name   string
		client *http.Client
		path   string
		status int
	}{
		{"anonymous user route", anon, "/api/user/dashboard/skills", http.StatusUnauthorized},
		{"anonymous admin route", anon, "/api/admin/users", http.StatusUnauthorized},
		{"user on user route", userClient, "/api/user/dashboard/skills", http.StatusOK},
		{"user on admin route", userClient, "/api/admin/users", http.StatusForbidden},
		{"admin on admin route", adminClient, "/api/admin/users", http.StatusOK},
		{"admin on user route", adminClient, "/api/user/dashboard/skills", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.call(t, tt.client, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, status)
		})
	}
}
