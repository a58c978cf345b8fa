package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CoinCast/internal/di"
	"CoinCast/internal/usecase"
	"CoinCast/pkg/config"
	xhttp "CoinCast/pkg/http"
	applogger "CoinCast/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	symbols := flag.String("symbols", "", "comma separated symbols, overrides forecast.symbols")
	schedule := flag.String("schedule", "", "cron expression; empty trains once and exits")
	metricsPort := flag.Int("metrics-port", 0, "serve /metrics on this port while running; 0 disables")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *symbols != "" {
		cfg.Forecast.Symbols = config.SplitSymbols(*symbols)
	}
	if *schedule != "" {
		cfg.Training.Schedule = *schedule
	}
	if err := cfg.Validate(config.RoleTrain); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	trainer, err := di.InitializeTrainer(cfg)
	if err != nil {
		log.Fatalf("trainer initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsPort > 0 {
		srv := xhttp.NewServer(nil, xhttp.WithPort(*metricsPort), xhttp.WithLogger(logger))
		if err := srv.Start(); err != nil {
			log.Fatalf("metrics server failed: %v", err)
		}
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	if cfg.Training.Schedule == "" {
		if !runOnce(ctx, trainer, cfg.Forecast.Symbols, logger) {
			stop()
			os.Exit(1)
		}
		return
	}

	c := cron.New(cron.WithLogger(cron.PrintfLogger(logger)))
	if _, err := c.AddFunc(cfg.Training.Schedule, func() {
		runOnce(ctx, trainer, cfg.Forecast.Symbols, logger)
	}); err != nil {
		log.Fatalf("invalid schedule %q: %v", cfg.Training.Schedule, err)
	}
	logger.Info("training scheduled", applogger.String("schedule", cfg.Training.Schedule))
	c.Start()

	<-ctx.Done()
	logger.Info("waiting for running training to finish")
	<-c.Stop().Done()
}

// runOnce trains every symbol and reports whether at least one succeeded.
func runOnce(ctx context.Context, trainer *usecase.Trainer, symbols []string, logger *applogger.Logger) bool {
	results := trainer.Run(ctx, symbols)
	ok, failed := usecase.Summary(results)
	logger.Info("training finished", applogger.Int("ok", ok), applogger.Int("failed", failed))
	return ok > 0
}
