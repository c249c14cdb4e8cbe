package main

import (
	"time"

	"github.com/spf13/cobra"

	"milify/internal/calendar"
	"milify/internal/geocache"
	appLog "milify/internal/log"
	"milify/internal/schedule"
	"milify/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		Long: `Run the HTTP API together with the cron jobs that prune and persist the
place cache and refresh external calendar subscriptions.

Postgres schemas are migrated on start. SIGINT/SIGTERM trigger a graceful
shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			appLog.Info("milify starting", "version", version, "listen", cfg.Listen)

			st, err := a.openStore(ctx, true)
			if err != nil {
				return err
			}
			defer st.Close()

			places := geocache.New(cfg.GeoCache.Path, time.Duration(cfg.GeoCache.TTLHours)*time.Hour)
			if err := places.Load(); err != nil {
				appLog.Error("geocache load failed; starting empty", err, "path", cfg.GeoCache.Path)
			}
			defer func() {
				if err := places.Save(); err != nil {
					appLog.Error("geocache save on shutdown failed", err)
				}
			}()

			subs := a.subscriptions()

			sched := schedule.New(cfg.Location())
			if err := sched.Add("geocache-cleanup", cfg.CleanupCron, schedule.GeoCacheCleanup(places)); err != nil {
				return err
			}
			if subs != nil {
				if err := sched.Add("subscription-refresh", cfg.SubscriptionCron, schedule.SubscriptionRefresh(subs)); err != nil {
					return err
				}
			}
			sched.RunAll()
			sched.Start()
			defer sched.Stop()

			svc := calendar.NewService(st, subs, a.feedOptions())
			return web.NewServer(cfg, svc, places).Run(ctx)
		},
	}
}
