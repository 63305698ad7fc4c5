package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/deploy"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the server is reachable and ready for deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context())
		},
	}
}

func runCheck(ctx context.Context) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	client, err := newRunner(cfg)
	if err != nil {
		return err
	}

	common.Header("Checking " + cfg.Target().UserHost())

	results, err := deploy.Preflight(ctx, client)
	if err != nil {
		return err
	}

	if info, err := client.Probe(ctx); err == nil {
		common.Info(fmt.Sprintf("%s, home %s", info.OS, info.Home))
	}

	missing := 0
	for _, r := range results {
		if r.Present {
			common.Success(r.Tool)
		} else {
			missing++
			common.Error(r.Tool + " not found")
		}
	}

	// lsof runs on this machine, not the server
	if _, err := exec.LookPath("lsof"); err != nil {
		common.Warning("lsof not found locally; tunnel port reclaim will not work")
	}

	if missing > 0 {
		return fmt.Errorf("%d required tool(s) missing on the server", missing)
	}
	common.Success("server is ready")
	return nil
}
