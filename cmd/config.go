package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/waiting-scheduler/internal/config"
	"github.com/example/waiting-scheduler/internal/db"
	"github.com/example/waiting-scheduler/internal/store"
	"github.com/example/waiting-scheduler/internal/waiting"
)

// config prints the stored waiting configuration, or runs a slash command
// against it without going through Slack.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [command text]",
		Short: "Show or change the waiting configuration from the terminal",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			text := "status"
			if len(args) > 0 {
				text = strings.Join(args, " ")
			}
			reply, err := waiting.NewCommander(store.New(d)).Handle(ctx, text)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
	return cmd
}
