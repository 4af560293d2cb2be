package cli

import (
	"fmt"

	"resumegrade/internal/ai"
	"resumegrade/internal/app"
	"resumegrade/internal/config"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/observability"
	"resumegrade/internal/presentation"
)

// components are the collaborators shared by review and serve
type components struct {
	store      *credential.FileStore
	service    *ai.Service
	extractor  *extract.Extractor
	view       *presentation.Controller
	controller *app.Controller
}

// openCredentialStore opens the on-disk credential with the configured default
func openCredentialStore(cfg *config.Config, logger *errors.Logger) (*credential.FileStore, error) {
	store, err := credential.NewFileStore(cfg.Credential.StorePath, cfg.Credential.DefaultKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, nil
}

// buildComponents wires the review flow. om may be nil.
func buildComponents(cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (*components, error) {
	store, err := openCredentialStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	service, err := ai.NewService(&cfg.AI, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	extractor := extract.NewExtractor(cfg.App.MaxFileSize, cfg.App.MinTextLength, logger)
	view := presentation.NewController(nil)

	controller := app.New(app.Options{
		Extractor:     extractor,
		Analyzer:      service,
		Credentials:   store,
		KeyFormat:     service.KeyFormat(),
		View:          view,
		Observability: om,
		Logger:        logger,
	})

	return &components{
		store:      store,
		service:    service,
		extractor:  extractor,
		view:       view,
		controller: controller,
	}, nil
}

// Close releases provider resources
func (c *components) Close(logger *errors.Logger) {
	if err := c.service.Close(); err != nil {
		logger.LogError(err, "Failed to close AI service")
	}
}
