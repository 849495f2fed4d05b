package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCreateAdminCmd seeds an admin account; admins cannot self-register.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.cfg.Postgres.URL == "" {
				rt.log.Warn("creating an admin in memory; it is lost when this command exits")
			}

			user, err := rt.svc.Auth.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
