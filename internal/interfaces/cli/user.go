package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/roleguard/internal/application/usecases"
	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/infrastructure/crypto"
)

func NewUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management",
	}
	cmd.AddCommand(newUserAddCmd(opts))
	cmd.AddCommand(newUserShowCmd(opts))
	return cmd
}

func newUserAddCmd(opts *rootOptions) *cobra.Command {
	var username, password, role string
	c := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			db, err := openDatabase(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			auth := usecases.NewAuthService(db.Users, crypto.NewBcryptHasher())
			u, err := auth.Register(ctx, username, password, user.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q id=%d role=%s\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&role, "role", string(user.RoleUser), "role (e.g. user, admin)")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}

func newUserShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user's id and role",
		Args:  cobra.ExactArgs(1),
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

			u, err := db.Users.FindByUsername(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d username=%q role=%s created=%s\n",
				u.ID, u.Username, u.Role, u.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}
