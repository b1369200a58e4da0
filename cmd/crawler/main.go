package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/app/crawler"
	"github.com/deporate/crawler/internal/pkg/config"
	"github.com/deporate/crawler/internal/pkg/fetch"
	"github.com/deporate/crawler/internal/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.env", "path to the ini config file")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	noErr(err)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jobs []crawler.Job
	for _, bankCfg := range cfg.Banks {
		fetcher := fetch.New(bankCfg.UserAgent, logger.Named("Fetcher"))
		adapter, err := crawler.NewAdapter(bankCfg.Name, crawler.AdapterDeps{
			Downloader: fetcher,
			Logger:     logger.Named(bankCfg.Name),
		})
		if err != nil {
			logger.Warn("skipping unknown bank section", zap.String("section", bankCfg.Name), zap.Error(err))
			continue
		}
		jobs = append(jobs, crawler.Job{
			Adapter: adapter,
			Fetcher: fetcher,
			Timeout: bankCfg.Timeout,
		})
	}

	stores := []crawler.Store{store.NewXLSX(cfg.OutputFile, logger.Named("XLSX Store"))}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.DatabaseURL)
		noErr(err)
		defer pool.Close()
		stores = append(stores, store.NewPostgres(pool, logger.Named("PG Store")))
	}

	svc := crawler.NewService(stores, jobs, cfg.MaxParallel, logger.Named("Crawler Svc"))
	if _, err := svc.Run(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func noErr(err error) {
	if err != nil {
		panic("failed to initialize something important: " + err.Error())
	}
}
