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

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(config.RoleRelay); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("env=%s port=%d store=%s queue=%t", cfg.Environment, cfg.Relay.Port, cfg.Relay.Store, cfg.Relay.Queue.Enabled)

	app, err := di.InitializeRelay(cfg)
	if err != nil {
		log.Fatalf("relay initialization failed: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Printf("relay error: %v", err)
		os.Exit(1)
	}
}
