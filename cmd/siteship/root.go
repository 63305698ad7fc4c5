package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"siteship/internal/config"
	"siteship/internal/deploy"
	"siteship/internal/logging"
	"siteship/internal/ssh"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath  string
	logLevel string
	jsonLog  bool
)

// newRootCmd builds the siteship command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "siteship",
		Short: "Deploy site components over plain ssh and scp",
		Long: `siteship packs, ships and swaps site components (themes, plugins,
packages) on a remote host using nothing but the ssh and scp binaries,
and keeps an eye on what is deployed where.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, logFormat())
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to siteship.toml (default: search upward)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&jsonLog, "json", false, "log as JSON")

	root.AddCommand(newDeployCmd())
	root.AddCommand(newVersionsCmd())
	root.AddCommand(newTunnelCmd())
	root.AddCommand(newPackCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newInitCmd())

	return root
}

func logFormat() string {
	if jsonLog {
		return "json"
	}
	return "text"
}

// loadProject loads the config and its overlays in precedence order:
// project file, then environment, then ssh_config for still-blank
// connection fields.
func loadProject() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg)
	config.FillFromSSHConfig(cfg)

	if logLevel == "" && os.Getenv("SITESHIP_LOG_LEVEL") == "" && cfg.Logging.Level != "" {
		format := cfg.Logging.Format
		if jsonLog {
			format = "json"
		}
		logging.Setup(cfg.Logging.Level, format)
	}
	return cfg, nil
}

func newRunner(cfg *config.Config) (*ssh.Client, error) {
	return ssh.NewClient(cfg.Target())
}

func loadComponents(cfg *config.Config) ([]deploy.Component, error) {
	return config.LoadManifest(cfg.ManifestPath())
}

// selectComponents filters the manifest by the ids given on the
// command line. No ids selects everything, in manifest order.
func selectComponents(all []deploy.Component, ids []string) ([]deploy.Component, error) {
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]deploy.Component, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	selected := make([]deploy.Component, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown component %q", id)
		}
		selected = append(selected, c)
	}
	return selected, nil
}
