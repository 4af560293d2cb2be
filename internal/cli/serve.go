package cli

import (
	"fmt"

	"resumegrade/internal/config"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"
	"resumegrade/internal/observability"
	"resumegrade/internal/presentation"
	"resumegrade/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser resume reviewer",
	Long: `Start an HTTP server with the single-page resume reviewer.

Open the printed address in a browser, set your API key with the "API Key"
button and drop a PDF or DOCX resume on the upload zone.

Endpoints:
- GET /: the review page
- GET /api/view: current page state
- POST /api/resume: upload a resume (multipart field "resume")
- POST /api/credential, DELETE /api/credential: manage the API key
- GET /health, GET /stats: service health and statistics`,
	RunE: runServe,
}

var (
	serveHost string
	servePort string
)

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd.Context())
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	parts, err := buildComponents(cfg, logger, om)
	if err != nil {
		return err
	}
	defer parts.Close(logger)

	renderer, err := presentation.NewRenderer()
	if err != nil {
		return err
	}

	watchers, err := credentialWatchers(cfg, parts.store, logger)
	if err != nil {
		return err
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		MaxFileSize:    parts.extractor.MaxFileSize(),
		RateLimit:      &cfg.Server.RateLimit,
	}
	deps := server.Dependencies{
		App:           parts.controller,
		Renderer:      renderer,
		AI:            parts.service,
		Observability: om,
		Watchers:      watchers,
		KeyFormat:     parts.service.KeyFormat(),
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}

// credentialWatchers returns the file watcher for edits made outside the
// process and, when configured, the Vault rotation poller
func credentialWatchers(cfg *config.Config, store *credential.FileStore, logger *errors.Logger) ([]server.Watcher, error) {
	var watchers []server.Watcher

	if cfg.Credential.Watch {
		watchers = append(watchers, credential.NewWatcher(store.Path(), store, cfg.Credential.DebounceDelay, func() {
			logger.Info("Credential file reloaded", "credential_set", store.Has())
		}, logger))
	}

	if cfg.Vault.Enabled && cfg.Vault.PollInterval > 0 && cfg.Vault.Secrets.ProviderKey != "" {
		client, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		watchers = append(watchers, credential.NewVaultWatcher(client, cfg.Vault.Secrets.ProviderKey,
			cfg.Vault.PollInterval, store, logger))
	}

	return watchers, nil
}
