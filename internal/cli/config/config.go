package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "portal.yaml"

// DefaultPageSize is used for admin listings when the config sets none
const DefaultPageSize = 20

// Server represents a Skill Portal API the CLI can talk to
type Server struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}

// Validate checks that the server URL is usable
func (s *Server) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", ConfigFileName)
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server URL '%s' is invalid, expected http(s)://host[:port]", s.URL)
	}
	return nil
}

// Label is how a server is shown in prompts and messages
func (s *Server) Label() string {
	if s.Alias == "" {
		return s.URL
	}
	return fmt.Sprintf("%s (%s)", s.Alias, s.URL)
}

// Config represents the CLI project configuration file
type Config struct {
	Servers  []Server `yaml:"servers"`
	PageSize int      `yaml:"page_size,omitempty"`
}

// DefaultConfig returns a configuration pointing at a local API
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias: "local",
				URL:   "http://localhost:8080",
			},
		},
	}
}

// Limit returns the page size for admin listings
func (c *Config) Limit() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// FindConfigFile searches for portal.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURLOrAlias finds a server by URL first, then by alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	for i := range c.Servers {
		if strings.TrimRight(c.Servers[i].URL, "/") == strings.TrimRight(urlOrAlias, "/") {
			return &c.Servers[i], nil
		}
	}
	for i := range c.Servers {
		if c.Servers[i].Alias == urlOrAlias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
