package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/kevinburke/ssh_config"
)

// FillFromSSHConfig fills blank connection fields from the user's
// ~/.ssh/config, resolving the configured host as an alias the way
// the ssh binary would. Explicit config and environment values win.
func FillFromSSHConfig(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	fillFromSSHConfigFile(cfg, filepath.Join(home, ".ssh", "config"))
}

func fillFromSSHConfigFile(cfg *Config, path string) {
	if cfg.Server.Host == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	parsed, err := ssh_config.Decode(f)
	if err != nil {
		return
	}

	alias := cfg.Server.Host
	if cfg.Server.User == "" {
		u, _ := parsed.Get(alias, "User")
		cfg.Server.User = u
	}
	if cfg.Server.Port == 0 {
		if p, _ := parsed.Get(alias, "Port"); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = n
			}
		}
	}
	if cfg.Server.Key == "" {
		if id, _ := parsed.Get(alias, "IdentityFile"); id != "" {
			cfg.Server.Key = expandHome(id)
		}
	}
}
