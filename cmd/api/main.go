package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/app"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/seed"
)

func main() {
	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "Cash-on-Delivery storefront API",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "env-file", Value: cli.NewStringSlice(".env"), Usage: "dotenv files to load before reading the environment"},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "Run the HTTP API", Action: serve},
			{Name: "migrate", Usage: "Apply the MySQL schema migrations", Action: migrateSchema},
			{
				Name:   "seed",
				Usage:  "Replace the catalog with the sample products",
				Action: seedCatalog,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "destroy", Aliases: []string{"d"}, Usage: "only delete the existing products"},
					&cli.StringFlag{Name: "admin-email", EnvVars: []string{"SEED_ADMIN_EMAIL"}},
					&cli.StringFlag{Name: "admin-password", EnvVars: []string{"SEED_ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "admin-name", Value: "Admin"},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.WithError(err).Fatal("storefront failed")
	}
}

// setup loads the .env files and points the global logger at the configured format.
func setup(c *cli.Context) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsProduction())
	log.SetFormatter(logger.Formatter)
	log.SetLevel(logger.Level)
	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage backend ---
	st, err := database.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}

	// 2. --- Wire services and serve until a signal arrives ---
	return app.New(cfg, st, logger).Run(ctx)
}

func migrateSchema(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	db, err := database.OpenDB(c.Context, cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(db)
}

func seedCatalog(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	st, err := database.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	entry := log.NewEntry(logger)
	tokens := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	seeder := seed.New(catalog.NewService(st, entry), accounts.NewService(st, tokens, entry), entry)
	return seeder.Run(c.Context, seed.Options{
		Destroy: c.Bool("destroy"),
		Admin: seed.Admin{
			Name:     c.String("admin-name"),
			Email:    c.String("admin-email"),
			Password: c.String("admin-password"),
		},
	})
}
