package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pathpal/pathpal-go/credentials"
	"github.com/pathpal/pathpal-go/internal/config"
	"github.com/pathpal/pathpal-go/pathpal"
	"github.com/pathpal/pathpal-go/session"
	"github.com/pathpal/pathpal-go/transport"
)

// app wires the SDK together the way a mobile shell would at startup.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	manager *session.Manager
	api     *pathpal.Client
}

func newApp() (*app, error) {
	cfg := config.New()

	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	baseURL := cfg.GetBaseURL()
	if strings.HasPrefix(baseURL, "http://") && !cfg.GetAllowInsecureHTTP() {
		return nil, errors.Errorf("refusing plain-http base URL %q; set PATHPAL_ALLOW_INSECURE_HTTP=true for local development", baseURL)
	}

	t, err := transport.New(baseURL, cfg.GetAPIVersion(),
		transport.WithTimeout(cfg.GetRequestTimeout()),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Wrap(err, "transport")
	}

	passphrase := cfg.GetCredentialsPassphrase()
	if passphrase == "" {
		logger.Warn().Msg("PATHPAL_CREDENTIALS_KEY not set, falling back to a hostname-derived key")
		host, _ := os.Hostname()
		passphrase = "pathpal-" + host
	}
	store := credentials.NewFileStore(cfg.GetCredentialsFile(), passphrase)

	manager, err := session.NewManager(store, t, session.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "session manager")
	}

	api, err := pathpal.New(manager, t)
	if err != nil {
		return nil, errors.Wrap(err, "api client")
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		api:     api,
	}, nil
}
