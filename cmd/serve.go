package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/waiting-scheduler/internal/automation/cdp"
	"github.com/example/waiting-scheduler/internal/config"
	"github.com/example/waiting-scheduler/internal/db"
	"github.com/example/waiting-scheduler/internal/lotto"
	"github.com/example/waiting-scheduler/internal/migrate"
	"github.com/example/waiting-scheduler/internal/notify"
	"github.com/example/waiting-scheduler/internal/registration"
	"github.com/example/waiting-scheduler/internal/scheduler"
	"github.com/example/waiting-scheduler/internal/store"
	"github.com/example/waiting-scheduler/internal/waiting"
	"github.com/example/waiting-scheduler/internal/web"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the am/pm cron scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Debug)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			settings := store.New(d)
			sessions := cdp.New(cfg.CDPURL, log)
			registrar := registration.New(cfg.WaitingURL, log)
			buyer := lotto.New(cfg.LottoID, cfg.LottoPW, cfg.LottoTickets, log)
			notifier := notify.NewSlack(cfg.SlackWebhookURL, log)

			runner := scheduler.NewRunner(settings, sessions, registrar, buyer, notifier, log)

			if cfg.CronEnabled {
				cr, err := scheduler.NewCron(scheduler.CronConfig{
					AmSpec:    cfg.AmCronSpec,
					PmSpec:    cfg.PmCronSpec,
					LottoSpec: cfg.LottoCronSpec,
				}, runner, log)
				if err != nil {
					return fmt.Errorf("cron: %w", err)
				}
				cr.Start()
				defer cr.Stop()
			}

			srv := &web.Server{
				Commander: waiting.NewCommander(settings),
				Runner:    runner,
				Store:     settings,
				Auth:      web.NewAuth(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.AdminPasswordHash),
				Log:       log,
			}
			return web.Start(ctx, cfg.ListenAddr, srv.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}
