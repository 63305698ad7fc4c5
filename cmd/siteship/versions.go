package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/deploy"
	"siteship/internal/logging"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions [component...]",
		Short: "Show what is deployed on the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd.Context(), args)
		},
	}
}

func runVersions(ctx context.Context, ids []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	client, err := newRunner(cfg)
	if err != nil {
		return err
	}
	all, err := loadComponents(cfg)
	if err != nil {
		return err
	}
	components, err := selectComponents(all, ids)
	if err != nil {
		return err
	}

	paths := deploy.NewPathResolver(cfg.Server.BasePath)
	resolver := deploy.NewVersionResolver(client, paths, logging.WithComponent("versions"))
	infos := resolver.ResolveAll(ctx, components)

	for _, c := range components {
		info := infos[c.ID]
		line := fmt.Sprintf("%-20s %s", c.ID, info)
		switch info.State {
		case deploy.StateVersioned, deploy.StateTimestamped:
			common.Success(line)
		case deploy.StateParseFailed:
			common.Error(line)
		default:
			common.Warning(line)
		}
	}
	return nil
}
