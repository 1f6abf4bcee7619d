package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restaurant-admin/internal/app/admin"
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/connections/database"
)

func main() {
	mode := flag.String("mode", "server", "server | create-admin | migrate")
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml in . or ./deploy)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lg, err := logger.NewWithConfig(cfg.App.Name, logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "server":
		err = admin.Run(ctx, cfg, lg)
	case "create-admin":
		err = admin.CreateAdmin(ctx, cfg, lg.Named("create-admin"), os.Stdin, os.Stdout)
	case "migrate":
		err = database.Migrate(cfg.Database, lg.Named("migrate"))
	default:
		fmt.Fprintln(os.Stderr, "--mode must be one of: server | create-admin | migrate")
		os.Exit(2)
	}
	if err != nil {
		lg.Error("fatal", err, map[string]any{"mode": *mode})
		_ = lg.Sync()
		os.Exit(1)
	}
}
