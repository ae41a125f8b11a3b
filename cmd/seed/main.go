package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-management/config"
	"github.com/oksasatya/go-user-management/internal/infrastructure/store"
	"github.com/oksasatya/go-user-management/internal/seed"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

func main() {
	force := flag.Bool("force", false, "clear the store and reseed even if it has users")
	clearOnly := flag.Bool("clear", false, "delete every user and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open user store: %v", err)
	}
	defer closeStore()

	res, err := seed.Run(ctx, st, helpers.NewPasswordHasher(cfg.BcryptCost), seed.Options{Force: *force, ClearOnly: *clearOnly}, logger)
	if err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
	if res.Inserted > 0 {
		fmt.Printf("seeded %d users (admin: %s, password: %s)\n", res.Inserted, seed.AdminEmail, seed.DefaultPassword)
	}
}
