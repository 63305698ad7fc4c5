package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/config"
	"siteship/internal/tunnel"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create siteship.toml and components.yaml in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	if !common.Interactive() {
		return fmt.Errorf("init needs a terminal; write %s by hand instead", config.FileName)
	}

	common.Header("siteship setup")

	const maxRetries = 5
	var host string
	for attempts := 0; attempts < maxRetries; attempts++ {
		host = common.Prompt("Server host", "")
		if host != "" {
			break
		}
		common.Error("Host must not be empty.")
		if attempts == maxRetries-1 {
			return fmt.Errorf("setup cancelled")
		}
	}
	user := common.Prompt("SSH user", "deploy")
	key := common.Prompt("SSH key path", "~/.ssh/id_ed25519")
	base := common.Prompt("Remote base path", "web")

	fmt.Println()
	id := common.Prompt("First component id", "my-theme")
	remotePath := common.Prompt("Component remote path", "wp-content/themes/"+id)
	var kind string
	for attempts := 0; attempts < maxRetries; attempts++ {
		kind = common.Prompt("Component kind (theme|plugin|package)", "theme")
		if kind == "theme" || kind == "plugin" || kind == "package" {
			break
		}
		common.Error("Kind must be theme, plugin or package.")
		if attempts == maxRetries-1 {
			return fmt.Errorf("setup cancelled")
		}
	}

	if err := writeStarterFile(config.FileName, starterConfig(host, user, key, base)); err != nil {
		return err
	}
	if err := writeStarterFile(config.ManifestName, starterManifest(id, remotePath, kind)); err != nil {
		return err
	}

	fmt.Println()
	common.Success(config.FileName)
	common.Success(config.ManifestName)
	common.Info("run 'siteship check' to verify the server")
	return nil
}

func writeStarterFile(name, content string) error {
	if common.FileExists(name) {
		if !common.Confirm(name+" exists, overwrite", false) {
			common.Warning("keeping existing " + name)
			return nil
		}
	}
	return os.WriteFile(name, []byte(content), 0o644)
}

func starterConfig(host, user, key, base string) string {
	return fmt.Sprintf(`[server]
host = %q
user = %q
key = %q
base_path = %q

[tunnel]
local_port = %d
remote_port = %d

[logging]
level = "info"
format = "text"
`, host, user, key, base, tunnel.DefaultLocalPort, tunnel.DefaultRemotePort)
}

func starterManifest(id, remotePath, kind string) string {
	return fmt.Sprintf(`components:
  - id: %s
    name: %s
    kind: %s
    remote_path: %s
    # artifact: dist/%s.zip
    # source: src/%s
    # build: npm run build
    # version_file: style.css
    # version_pattern: 'Version:\s*([\d.]+)'
`, id, id, kind, remotePath, id, id)
}
