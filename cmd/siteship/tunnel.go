package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"siteship/internal/common"
	"siteship/internal/config"
	"siteship/internal/tunnel"
)

func newTunnelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Manage the database port forward",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Open the forward and hold it until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTunnelUp(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Close the forward, including one leaked by an earlier run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTunnelDown()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the local forward port is in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTunnelStatus()
		},
	})

	return cmd
}

func localPort(cfg *config.Config) int {
	if cfg.Tunnel.LocalPort != 0 {
		return cfg.Tunnel.LocalPort
	}
	return tunnel.DefaultLocalPort
}

func runTunnelUp(ctx context.Context) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	m := tunnel.NewManager(cfg.Target(), tunnel.Options{
		LocalPort:  cfg.Tunnel.LocalPort,
		RemotePort: cfg.Tunnel.RemotePort,
	})
	if err := m.Connect(ctx); err != nil {
		return err
	}

	common.Success("tunnel up on " + m.Addr())
	common.Info("press ctrl-c to close")
	<-ctx.Done()
	fmt.Println()
	return m.Disconnect()
}

func runTunnelDown() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	port := localPort(cfg)
	if _, ok := tunnel.PortOwner(port); !ok {
		common.Info(fmt.Sprintf("nothing listening on 127.0.0.1:%d", port))
		return nil
	}
	if err := tunnel.Shutdown(port); err != nil {
		return err
	}
	common.Success(fmt.Sprintf("closed forward on 127.0.0.1:%d", port))
	return nil
}

func runTunnelStatus() error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	port := localPort(cfg)
	if pid, ok := tunnel.PortOwner(port); ok {
		common.Success(fmt.Sprintf("listening on 127.0.0.1:%d (pid %d)", port, pid))
	} else {
		common.Info(fmt.Sprintf("no forward on 127.0.0.1:%d", port))
	}
	return nil
}
