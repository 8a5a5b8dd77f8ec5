package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/homes/internal/buildinfo"
	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/cli"
	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/config"
	"github.com/dmitrijs2005/homes/internal/client/services"
	"github.com/dmitrijs2005/homes/internal/client/storage"
	"github.com/dmitrijs2005/homes/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.LogLevel)

	db, err := storage.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("open local database: %w", err)
	}
	defer db.Close()

	api, err := client.NewHTTPClient(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RequestsPerSecond, 5),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}

	sessions := services.NewSessionStore(db.DB, api, log)
	api.SetTokenSource(sessions)
	sessions.Restore(ctx)

	reg := prometheus.NewRegistry()
	engine := cache.New(cache.Options{
		RetryDelay:   cfg.RetryDelay,
		FetchTimeout: cache.FetchBudget(cfg.RequestTimeout, cfg.RetryDelay),
		Logger:       log,
		Metrics:      cache.NewCollector(reg),
	})
	defer engine.Wait()

	gate := services.NewGate(sessions)
	catalog := services.NewCatalogService(api, engine, gate, log)
	defer catalog.Close()

	cli.NewApp(sessions, catalog, gate, log).WithStats(reg).Run(ctx)
	return nil
}
