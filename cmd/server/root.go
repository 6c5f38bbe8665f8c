package main

import (
	"context"

	"authgate/backend/internal/config"
	"authgate/backend/internal/infrastructure/memory"
	"authgate/backend/internal/infrastructure/postgres"
	"authgate/backend/internal/usecase/user"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

var configFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authgate",
		Short:        "Account registration, login and request authentication service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUsersCmd())
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

// openStore connects the configured store. For postgres it applies pending
// migrations first.
func openStore(ctx context.Context, cfg config.Config) (user.Store, func(), error) {
	if cfg.Store.Driver == config.StoreMemory {
		return memory.NewUserRepository(), func() {}, nil
	}

	if err := migrateUp(cfg.Database.URL); err != nil {
		return nil, nil, err
	}
	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewUserRepository(db.Pool), db.Close, nil
}
