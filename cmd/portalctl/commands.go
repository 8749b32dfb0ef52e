package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/logger"
	"github.com/magabrotheeeer/broadband-portal/internal/migrations"
	seedservice "github.com/magabrotheeeer/broadband-portal/internal/services/seed"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

var errNoConfig = errors.New("config path is not set: use --config or CONFIG_PATH")

type options struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Maintenance commands for the broadband portal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults to CONFIG_PATH)")

	root.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newSweepCommand(opts),
	)
	return root
}

func (o *options) load() (*config.Config, *slog.Logger, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, nil, errNoConfig
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Setup(cfg.Env), nil
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			db, err := storage.New(cmd.Context(), cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
				return err
			}
			log.Info("migrations applied", slog.String("path", cfg.MigrationsPath))
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and default plans when they are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			db, err := storage.New(cmd.Context(), cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := seedservice.NewSeedService(db, cfg.AdminPassword, log).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: %t, plans created: %d\n", res.AdminCreated, res.PlansCreated)
			return nil
		},
	}
}

func newSweepCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue subscriptions once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), cmd, cfg, log)
		},
	}
}

func runSweep(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *slog.Logger) error {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	defer db.Close()

	redis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return err
	}
	defer redis.Close()

	svc := subservice.NewSubscriptionService(db, redis, nil, log, cfg.Lifecycle)
	expired, promoted, err := svc.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "expired: %d, promoted: %d\n", expired, promoted)
	return nil
}
