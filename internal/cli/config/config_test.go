package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Validate(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		shouldError bool
	}{
		{name: "http with port", url: "http://localhost:8080"},
		{name: "https", url: "https://portal.example.com"},
		{name: "empty", url: "", shouldError: true},
		{name: "no scheme", url: "portal.example.com", shouldError: true},
		{name: "wrong scheme", url: "ftp://portal.example.com", shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Server{Alias: "x", URL: tt.url}
			err := s.Validate()
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestServer_Label(t *testing.T) {
	assert.Equal(t, "prod (https://p.example.com)", (&Server{Alias: "prod", URL: "https://p.example.com"}).Label())
	assert.Equal(t, "https://p.example.com", (&Server{URL: "https://p.example.com"}).Label())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := &Config{
		Servers: []Server{
			{Alias: "local", URL: "http://localhost:8080"},
			{Alias: "staging", URL: "https://staging.example.com"},
		},
		PageSize: 50,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 50, loaded.Limit())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("servers: [oops"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLimit_Default(t *testing.T) {
	assert.Equal(t, DefaultPageSize, (&Config{}).Limit())
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(filepath.Join(root, ConfigFileName), DefaultConfig()))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(originalDir)

	cfg, err := LoadFromCurrentDir()
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "local", cfg.Servers[0].Alias)
}

func TestServerLookup(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{Alias: "local", URL: "http://localhost:8080"},
			{Alias: "prod", URL: "https://portal.example.com"},
		},
	}

	s, err := cfg.GetServerByAlias("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", s.URL)

	s, err = cfg.GetServerByURLOrAlias("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "local", s.Alias)

	s, err = cfg.GetServerByURLOrAlias("prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", s.Alias)

	_, err = cfg.GetServerByURLOrAlias("missing")
	assert.Error(t, err)

	def, err := cfg.GetDefaultServer()
	require.NoError(t, err)
	assert.Equal(t, "local", def.Alias)

	_, err = (&Config{}).GetDefaultServer()
	assert.Error(t, err)
}
