package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/waiting-scheduler/internal/automation/cdp"
	"github.com/example/waiting-scheduler/internal/config"
	"github.com/example/waiting-scheduler/internal/lotto"
	"github.com/example/waiting-scheduler/internal/notify"
	"github.com/example/waiting-scheduler/internal/scheduler"
)

func newLottoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lotto",
		Short: "Buy this week's lottery tickets now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Debug)

			// the lotto flow needs no stored configuration, so no db here
			runner := scheduler.NewRunner(
				nil,
				cdp.New(cfg.CDPURL, log),
				nil,
				lotto.New(cfg.LottoID, cfg.LottoPW, cfg.LottoTickets, log),
				notify.NewSlack(cfg.SlackWebhookURL, log),
				log,
			)

			res, err := runner.RunLotto(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("round: %s\n", res.Round)
			for _, t := range res.Tickets {
				fmt.Println(t)
			}
			return nil
		},
	}
}
