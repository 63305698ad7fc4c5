package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/deploy"
)

func newSnapshotCmd() *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "snapshot [component...]",
		Short: "Download a compressed copy of deployed components",
		Long: `Snapshot tars each component's live directory on the server and
stores it locally as <id>-<timestamp>.tar.xz, for a point-in-time copy
before a risky deploy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), args, destDir)
		},
	}

	cmd.Flags().StringVar(&destDir, "dest", "snapshots", "directory for snapshot archives")
	return cmd
}

func runSnapshot(ctx context.Context, ids []string, destDir string) error {
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
	failed := 0
	for _, c := range components {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Printf("==> Snapshotting %s\n", c.Name)
		dest, err := deploy.Snapshot(ctx, client, paths, c, destDir)
		if err != nil {
			failed++
			common.Error(fmt.Sprintf("%s: %v", c.ID, err))
			continue
		}
		common.Success(dest)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d snapshots failed", failed, len(components))
	}
	return nil
}
