package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/infrastructure/crypto"
	"github.com/example/roleguard/internal/interfaces/web"
	"github.com/example/roleguard/internal/logger"
)

func NewServerCmd(opts *rootOptions) *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			log, err := logger.NewWithFile(cfg.LogDir, "roleguard", cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Close()
			log.Infof("configuration loaded: %v", cfg)
			if cfg.DevMode {
				log.Warn("DEV_MODE is on; session keys may be ephemeral")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			openCtx, openCancel := context.WithTimeout(ctx, 20*time.Second)
			defer openCancel()
			db, err := openDatabase(openCtx, cfg, migrateUp)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Infof("using %s user store", db.Backend)

			auth := usecases.NewAuthService(db.Users, crypto.NewBcryptHasher())
			sessions := web.NewSessionManager(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.SessionMaxAge)
			tmpl, err := web.ParseTemplates()
			if err != nil {
				return err
			}

			srv := web.New(cfg.HTTPAddr, sessions, auth, tmpl, log,
				web.WithLoginRateLimit(cfg.LoginRatePerSec, cfg.LoginRateBurst))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}
