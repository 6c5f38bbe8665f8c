package main

import (
	"time"

	"authgate/backend/internal/infrastructure/postgres"
	"authgate/backend/internal/usecase/user"

	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users admin command group.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer accounts",
	}

	var id string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print an account's public details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminStore(cmd, func(store user.Store) error {
				return showAccount(cmd, store, id)
			})
		},
	}
	showCmd.Flags().StringVar(&id, "id", "", "id of the account to show")
	_ = showCmd.MarkFlagRequired("id")

	var email string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account; its outstanding tokens stop resolving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminStore(cmd, func(store user.Store) error {
				return deleteAccount(cmd, store, email)
			})
		},
	}
	deleteCmd.Flags().StringVar(&email, "email", "", "email of the account to delete")
	_ = deleteCmd.MarkFlagRequired("email")

	cmd.AddCommand(showCmd, deleteCmd)
	return cmd
}

// withAdminStore opens the postgres store using only the database settings.
// Admin commands never serve tokens, so the auth settings are not required.
func withAdminStore(cmd *cobra.Command, fn func(user.Store) error) error {
	url, err := databaseURL(cmd)
	if err != nil {
		return err
	}
	db, err := postgres.New(cmd.Context(), url)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(postgres.NewUserRepository(db.Pool))
}

func showAccount(cmd *cobra.Command, store user.Store, id string) error {
	p, err := user.NewService(store).Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	cmd.Printf("id:      %s\nname:    %s\nemail:   %s\ncreated: %s\n",
		p.ID, p.Name, p.Email, p.CreatedAt.Format(time.RFC3339))
	return nil
}

func deleteAccount(cmd *cobra.Command, store user.Store, email string) error {
	deleted, err := user.NewService(store).DeleteByEmail(cmd.Context(), email)
	if err != nil {
		return err
	}
	cmd.Printf("Deleted account %s (%s)\n", deleted.ID, deleted.Email)
	return nil
}
