package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"housing-registry/internal/config"
	"housing-registry/internal/logger"
	"housing-registry/internal/storage"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := newRootCmd(cfg, log).Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore establishes the store session for one command invocation.
func openStore(path string, log *zap.Logger) (*storage.Store, error) {
	store, err := storage.Open(path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return store, nil
}
