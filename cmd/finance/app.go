package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-categorizer/internal/classifier"
	"github.com/dvloznov/finance-categorizer/internal/config"
	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/llm"
	"github.com/dvloznov/finance-categorizer/internal/logger"
	"github.com/dvloznov/finance-categorizer/internal/pipeline"
	"github.com/dvloznov/finance-categorizer/internal/storage"
)

// app holds everything a command needs, wired from the configuration.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	vault    *domain.Vault
	backend  storage.Backend
	closer   io.Closer
	model    *classifier.Model
	llm      *llm.Categorizer
	pipeline *pipeline.Pipeline
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
	})
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, log)

	a := &app{cfg: cfg, log: log, vault: domain.NewVault()}

	if err := a.openBackend(ctx); err != nil {
		return nil, err
	}
	if err := storage.Load(ctx, a.backend, a.vault); err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
		_ = a.Close()
		return nil, err
	}

	a.model = classifier.New(log)
	if ok, err := a.model.Load(cfg.Classifier.ModelPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.Classifier.ModelPath).Msg("Ignoring unreadable classifier model")
	} else if ok {
		log.Debug().Str("path", cfg.Classifier.ModelPath).Msg("Classifier model loaded")
	}

	completer, err := llm.NewCompleter(ctx, llm.ProviderConfig{
		Provider: cfg.LLM.Provider,
		URL:      cfg.LLM.URL,
		APIKey:   cfg.LLM.APIKey,
	}, http.DefaultClient)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("External model disabled")
		completer = nil
	}
	a.llm = llm.New(completer, llm.Config{
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
		CacheTTL: cfg.LLM.CacheTTL,
	}, log)

	a.pipeline = pipeline.New(
		pipeline.WithClassifier(a.model),
		pipeline.WithExternalModel(a.llm),
	)
	return a, nil
}

func (a *app) openBackend(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		b, err := storage.NewGCS(ctx, a.cfg.Storage.GCSBucket, a.cfg.Storage.GCSObject)
		if err != nil {
			return err
		}
		a.backend, a.closer = b, b
	default:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.BoltPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		b, err := storage.OpenBolt(a.cfg.Storage.BoltPath)
		if err != nil {
			return err
		}
		a.backend, a.closer = b, b
	}
	return nil
}

func (a *app) save(ctx context.Context) error {
	return storage.Save(ctx, a.backend, a.vault)
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
