package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/timelineai/internal/reducer"
)

func init() {
	healthCmd.Flags().BoolVar(&healthWatch, "watch", false, "keep pinging on the configured schedule")
	healthCmd.Flags().StringVar(&healthServer, "server", "", "server URL (defaults to client.server_url)")
	rootCmd.AddCommand(healthCmd)
}

var (
	healthWatch  bool
	healthServer string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that a server is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		url := healthServer
		if url == "" {
			url = cfg.Client.ServerURL
		}
		client := reducer.NewStreamClient(url)

		if !healthWatch {
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "OK")
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pinger := reducer.NewHealthPinger(client, cfg.Client.PingSchedule, func(err error) {
			if err != nil {
				slog.Warn("health ping failed", "server", url, "error", err)
				return
			}
			slog.Info("health ping ok", "server", url)
		})
		if err := pinger.Start(); err != nil {
			return fmt.Errorf("start pinger: %w", err)
		}
		defer pinger.Stop()

		slog.Info("watching server health", "server", url, "schedule", cfg.Client.PingSchedule)
		<-ctx.Done()
		return nil
	},
}
