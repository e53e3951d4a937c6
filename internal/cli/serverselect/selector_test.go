package serverselect

import (
	"testing"

	"github.com/skillportal/skillportal/internal/cli/config"
	"github.com/skillportal/skillportal/internal/cli/userconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoServers() *config.Config {
	return &config.Config{
		Servers: []config.Server{
			{Alias: "local", URL: "http://localhost:8080"},
			{Alias: "prod", URL: "https://portal.example.com"},
		},
	}
}

func TestResolveServer_AliasFlagWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("http://localhost:8080"))

	server, err := ResolveServer(twoServers(), "prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", server.Alias)
}

func TestResolveServer_UnknownAlias(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := ResolveServer(twoServers(), "nope")
	assert.Error(t, err)
}

func TestResolveServer_SelectedServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://portal.example.com"))

	server, err := ResolveServer(twoServers(), "")
	require.NoError(t, err)
	assert.Equal(t, "prod", server.Alias)
}

func TestResolveServer_SingleServerIsRemembered(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := &config.Config{Servers: []config.Server{{Alias: "only", URL: "http://localhost:9000"}}}

	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "only", server.Alias)

	selected, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", selected)
}

func TestResolveServer_StaleSelectionIsCleared(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedServer("https://gone.example.com"))
	cfg := &config.Config{Servers: []config.Server{{Alias: "only", URL: "http://localhost:9000"}}}

	server, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "only", server.Alias)
}

func TestPromptServerSelection_NoServers(t *testing.T) {
	_, err := PromptServerSelection(&config.Config{})
	assert.Error(t, err)
}
