package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/waiting-scheduler/internal/automation/cdp"
	"github.com/example/waiting-scheduler/internal/config"
	"github.com/example/waiting-scheduler/internal/db"
	"github.com/example/waiting-scheduler/internal/notify"
	"github.com/example/waiting-scheduler/internal/registration"
	"github.com/example/waiting-scheduler/internal/scheduler"
	"github.com/example/waiting-scheduler/internal/store"
	"github.com/example/waiting-scheduler/internal/waiting"
)

// run executes one slot invocation from the terminal, same flow the cron
// entries use.
func newRunCmd() *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one waiting-registration invocation now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Debug)
			ctx := cmd.Context()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			runner := scheduler.NewRunner(
				store.New(d),
				cdp.New(cfg.CDPURL, log),
				registration.New(cfg.WaitingURL, log),
				nil,
				notify.NewSlack(cfg.SlackWebhookURL, log),
				log,
			)

			out, err := runner.RunSlot(ctx, waiting.ParseSlot(slot))
			if err != nil {
				return err
			}
			fmt.Println(out.Message)
			if out.Result != nil {
				fmt.Printf("wait number: %s, teams ahead: %s, registered at: %s\n",
					out.Result.WaitNumber, out.Result.TeamsAhead, out.Result.RegistrationTime)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&slot, "slot", "am", "slot to run (am or pm)")
	return cmd
}
