package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/di"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s store=%s model=%s", cfg.Environment, cfg.Store.Backend, cfg.Model.Path)

	app, err := di.InitializeApp(cfg)
	if errors.Is(err, errs.ErrModelLoad) {
		log.Fatalf("refusing to serve without a model: %v", err)
	}
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
