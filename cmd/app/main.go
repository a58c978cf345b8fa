package main

import (
	"context"
	"flag"
	"log"
	"os"

	"CoinCast/internal/di"
	"CoinCast/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(config.RoleApp); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("env=%s port=%d symbols=%v recorder=%s", cfg.Environment, cfg.Server.Port, cfg.Forecast.Symbols, cfg.Recorder.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
