package main

import (
	"github.com/rs/zerolog"

	"sessiond/internal/config"
	"sessiond/internal/manager"
	"sessiond/internal/ortengine"
)

// buildManager wires the ONNX Runtime engine and a manager from cfg.
func buildManager(cfg config.Config, log zerolog.Logger, pub manager.EventPublisher) (*manager.Manager, *ortengine.Engine, error) {
	sc, err := cfg.SessionConfig()
	if err != nil {
		return nil, nil, err
	}
	eng, err := ortengine.New(ortengine.Options{CacheDir: cfg.CacheDir, Logger: &log})
	if err != nil {
		return nil, nil, err
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine:    eng,
		Session:   sc,
		Logger:    &log,
		Publisher: pub,
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, eng, nil
}
