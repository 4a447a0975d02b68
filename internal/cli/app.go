package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/calendarbot"
	"github.com/aretw0/calendarbot/internal/config"
	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/adapters/graph"
	"github.com/aretw0/calendarbot/pkg/adapters/oauth"
	"github.com/aretw0/calendarbot/pkg/observability"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// ExplorerURL is where console users obtain a Graph token by hand.
const ExplorerURL = "https://developer.microsoft.com/graph/graph-explorer"

// Options carries command line overrides.
type Options struct {
	ConfigPath string
	Debug      bool
	Addr       string
	Store      string

	// Console selects the static authenticator backed by Token instead of
	// the OAuth code flow.
	Console bool
	Token   string

	// LogOutput defaults to stderr.
	LogOutput io.Writer
}

// App is a fully wired bot with the resources it holds.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Bot     *calendarbot.Bot
	Storage *Storage
	Metrics *observability.Metrics

	// SignIn is nil in console mode.
	SignIn *oauth.Authenticator
}

// LoadConfig reads the configuration and applies the overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.ConfigPath != "")
	if err != nil {
		return cfg, err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	if opts.Store != "" {
		cfg.Store.Driver = opts.Store
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

// NewLogger builds the application logger from cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return logging.NewWithFormat(w, level, cfg.Format), nil
}

// Build wires storage, authentication, Graph and the bot from cfg.
func Build(cfg config.Config, opts Options) (*App, error) {
	logger, err := NewLogger(cfg.Log, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	storage, err := OpenStorage(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Storage: storage,
		Metrics: observability.NewMetrics(),
	}

	var auth ports.Authenticator
	switch {
	case opts.Console:
		auth = oauth.NewStatic(opts.Token, ExplorerURL)
	case cfg.OAuthEnabled():
		app.SignIn = oauth.New(oauth.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Tenant:       cfg.OAuth.Tenant,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       cfg.OAuth.Scopes,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
		}.OAuth2(), storage.Tokens, oauth.WithLogger(logger))
		auth = app.SignIn
	default:
		_ = storage.Close()
		return nil, errors.New("oauth.client_id is not configured; use `calbot chat --token` for a local session")
	}

	loc, err := cfg.Location()
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	calendar := graph.New(
		graph.WithBaseURL(cfg.Graph.BaseURL),
		graph.WithHTTPClient(&http.Client{Timeout: cfg.Graph.Timeout.Std()}),
		graph.WithLogger(logger),
	)

	hooks := app.Metrics.Hooks().Merge(observability.AuditHooks(logger))
	if opts.Debug {
		hooks = hooks.Merge(createDebugHooks(logger))
	}

	botOpts := []calendarbot.Option{
		calendarbot.WithAuthenticator(auth),
		calendarbot.WithCalendar(calendar),
		calendarbot.WithStore(storage.Sessions),
		calendarbot.WithLifecycleHooks(hooks),
		calendarbot.WithLogger(logger),
		calendarbot.WithTokenTimeout(cfg.Bot.TokenTimeout.Std()),
		calendarbot.WithUpcomingWindow(cfg.Bot.UpcomingWindow.Std()),
		calendarbot.WithLocation(loc),
		calendarbot.WithWelcome(cfg.Bot.Welcome),
	}
	if storage.Locker != nil {
		botOpts = append(botOpts, calendarbot.WithLocker(storage.Locker))
	}

	bot, err := calendarbot.New(botOpts...)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	app.Bot = bot

	logger.Debug("bot ready",
		"store", cfg.Store.Driver,
		"encrypted", cfg.Store.EncryptionKey != "",
		"console", opts.Console,
	)
	return app, nil
}

// Ping checks the storage backend.
func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.Storage.Ping(ctx)
}

// Close releases storage connections.
func (a *App) Close() error {
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
