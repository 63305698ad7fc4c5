package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/deploy"
	"siteship/internal/logging"
)

func newDeployCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "deploy [component...]",
		Short: "Deploy components to the configured server",
		Long: `Deploy uploads each component's build artifact over scp, extracts it
next to the live directory and swaps it into place. Components deploy
one at a time, in manifest order. Interrupting with ctrl-c lets the
component underway finish and skips the rest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), args, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runDeploy(ctx context.Context, ids []string, yes bool) error {
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

	common.Header("Deploy to " + cfg.Target().UserHost())
	for _, c := range components {
		fmt.Printf("  %-20s %s\n", c.ID, c.RemotePath)
	}
	fmt.Println()

	if !yes && common.Interactive() {
		if !common.Confirm(fmt.Sprintf("Deploy %d component(s)", len(components)), true) {
			return fmt.Errorf("aborted")
		}
	}

	paths := deploy.NewPathResolver(cfg.Server.BasePath)
	deployer := deploy.NewDeployer(client, paths, logging.WithComponent("deploy"))

	idx := 0
	reports := deployer.DeployAll(ctx, components, func(c deploy.Component, s deploy.Status) {
		if s == deploy.StatusDeploying {
			idx++
			fmt.Printf("==> [%d/%d] Deploying %s\n", idx, len(components), c.Name)
		}
	})

	// after the batch, look at what the server actually carries
	var versions map[string]deploy.VersionInfo
	if ctx.Err() == nil {
		resolver := deploy.NewVersionResolver(client, paths, logging.WithComponent("versions"))
		versions = resolver.ResolveAll(ctx, components)
	}

	fmt.Println()
	failed := 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			common.Error(fmt.Sprintf("%s: %v", rep.ComponentName, rep.Err))
			continue
		}
		line := fmt.Sprintf("%s (%s)", rep.ComponentName, rep.Duration.Round(time.Millisecond))
		if info, ok := versions[rep.ComponentID]; ok {
			line = fmt.Sprintf("%s, now %s", line, info)
		}
		common.Success(line)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d components failed", failed, len(reports))
	}
	return nil
}
