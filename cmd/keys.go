package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/waiting-scheduler/internal/web"
)

func newKeysCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate cookie keys (and an admin password hash) for the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := make([]byte, 32)
			block := make([]byte, 32)
			if _, err := rand.Read(hash); err != nil {
				return err
			}
			if _, err := rand.Read(block); err != nil {
				return err
			}
			fmt.Printf("COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Printf("COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))

			if password != "" {
				h, err := web.HashPassword(password)
				if err != nil {
					return err
				}
				fmt.Printf("ADMIN_PASSWORD_BCRYPT=%s\n", h)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "also print a bcrypt hash for this admin password")
	return cmd
}
