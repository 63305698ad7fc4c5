package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/deploy"
)

func newPackCmd() *cobra.Command {
	var noBuild bool

	cmd := &cobra.Command{
		Use:   "pack [component...]",
		Short: "Build artifacts from component sources",
		Long: `Pack runs each component's build hook and archives its source
directory into the artifact that deploy uploads. Components without a
source directory are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args, noBuild)
		},
	}

	cmd.Flags().BoolVar(&noBuild, "no-build", false, "skip build hooks and archive sources as they are")
	return cmd
}

func runPack(ids []string, noBuild bool) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	all, err := loadComponents(cfg)
	if err != nil {
		return err
	}
	selected, err := selectComponents(all, ids)
	if err != nil {
		return err
	}

	packable := make([]deploy.Component, 0, len(selected))
	for _, c := range selected {
		if c.SourceDir == "" {
			common.Warning(fmt.Sprintf("%s: no source directory, skipping", c.ID))
			continue
		}
		packable = append(packable, c)
	}
	if len(packable) == 0 {
		return fmt.Errorf("nothing to pack")
	}

	if !noBuild {
		for _, c := range packable {
			if err := deploy.RunBuildHook(c); err != nil {
				return err
			}
		}
	}

	results, errs := deploy.PackAll(packable)
	for _, c := range packable {
		if err, ok := errs[c.ID]; ok {
			common.Error(fmt.Sprintf("%s: %v", c.ID, err))
			continue
		}
		res := results[c.ID]
		common.Success(fmt.Sprintf("%s → %s (%d files, %.2f MB)",
			res.ComponentID, res.ArchivePath, res.Files, float64(res.Size)/(1024*1024)))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d components failed to pack", len(errs), len(packable))
	}
	return nil
}
