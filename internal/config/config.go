// Package config loads project configuration: the siteship.toml
// project file, the components.yaml manifest, environment overrides,
// and ssh_config fallbacks for connection details.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"siteship/internal/ssh"
)

// FileName is the project configuration file searched for upward from
// the working directory.
const FileName = "siteship.toml"

// Server holds connection and layout settings for the target host.
type Server struct {
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Port     int    `toml:"port"`
	Key      string `toml:"key"`
	BasePath string `toml:"base_path"`
}

// Tunnel holds port-forward settings. Zero values fall back to the
// tunnel package defaults.
type Tunnel struct {
	LocalPort  int `toml:"local_port"`
	RemotePort int `toml:"remote_port"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the parsed siteship.toml.
type Config struct {
	Server  Server  `toml:"server"`
	Tunnel  Tunnel  `toml:"tunnel"`
	Logging Logging `toml:"logging"`

	path string
}

// DefaultConfig returns the configuration used when no project file
// exists.
func DefaultConfig() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Path returns where the config was loaded from, or "" for defaults.
func (c *Config) Path() string { return c.path }

// Dir returns the project directory, the one holding the config file.
func (c *Config) Dir() string {
	if c.path == "" {
		return "."
	}
	return filepath.Dir(c.path)
}

// ManifestPath returns the expected components.yaml location next to
// the config file.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Dir(), ManifestName)
}

// Target builds the ssh target for the configured server. A zero port
// lets the ssh binary apply its own default.
func (c *Config) Target() ssh.Target {
	return ssh.Target{
		Host:    c.Server.Host,
		User:    c.Server.User,
		Port:    c.Server.Port,
		KeyPath: c.Server.Key,
	}
}

// Load reads the project file at path, or discovers it by walking
// upward from the working directory when path is empty. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	cfg.Server.Key = expandHome(cfg.Server.Key)
	return cfg, nil
}

// FindConfigFile searches for siteship.toml in the current directory
// and its parents.
func FindConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandHome resolves a leading ~/ against the current user's home.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
