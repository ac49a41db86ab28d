package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
)

func main() {
	app := &cli.App{
		Name:  "shopfront",
		Usage: "storefront and admin panel",
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server (default)", Action: serve},
			{Name: "seed", Usage: "create the schema and demo data, then exit", Action: seed},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		applog.Logger().Fatal(err)
	}
}

func seed(*cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	applog.Logger().WithField("dsn", cfg.DBDSN).Info("seed.done")
	return nil
}

func serve(*cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			applog.Logger().WithError(err).Warnf("could not open log file %s", cfg.LogFile)
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, nil))
	applog.Logger().WithFields(map[string]any{
		"port": cfg.Port, "static": cfg.StaticDir, "media": cfg.MediaDir,
	}).Info("server.start")
	return app.Listen(":" + cfg.Port)
}
