package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/roleguard/internal/infrastructure/config"
	"github.com/example/roleguard/internal/infrastructure/database"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func NewRoot() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "roleguard",
		Short:         "Login, registration and role-guarded pages over a cookie session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is normal outside development
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional TOML config file (env vars override it)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServerCmd(opts))
	cmd.AddCommand(NewUserCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewPingCmd(opts))
	cmd.AddCommand(NewKeysCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}

// openDatabase opens the configured store and optionally applies migrations.
func openDatabase(ctx context.Context, cfg config.Config, migrate bool) (*database.Handle, error) {
	h, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := h.Migrate(ctx); err != nil {
			h.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return h, nil
}
