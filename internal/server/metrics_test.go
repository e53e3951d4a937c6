package server

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillportal/skillportal/internal/models"
)

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "ada@example.com", models.RoleUser)
	env.call(t, env.newClient(t), http.MethodGet, "/api/user/dashboard/skills", nil)

	resp, err := http.Get(env.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `portal_auth_logins_total{outcome="success",role="user"} 1`)
	assert.Contains(t, text, `portal_http_requests_total{method="GET",route="/api/user/dashboard/skills",status="401"} 1`)
	assert.Contains(t, text, "portal_http_request_duration_seconds")
}
