package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured database answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			db, err := openDatabase(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", db.Backend)
			return nil
		},
	}
}
