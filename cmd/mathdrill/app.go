package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/at-ishikawa/mathdrill/internal/config"
	"github.com/at-ishikawa/mathdrill/internal/database"
	"github.com/at-ishikawa/mathdrill/internal/i18n"
	"github.com/at-ishikawa/mathdrill/internal/session"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	sessionBackendFile = "file"
	sessionBackendSQL  = "sql"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// app is what every command needs once the configuration is loaded.
type app struct {
	cfg       *config.Config
	localizer *i18n.Localizer
	sessions  *session.Manager
	gateway   *api.Gateway

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if language != "" {
		cfg.Locale.Language = language
	}

	a := &app{cfg: cfg}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	if a.cfg.Log.File != "" {
		logFile := &lumberjack.Logger{
			Filename:   a.cfg.Log.File,
			MaxSize:    a.cfg.Log.MaxSizeMB,
			MaxBackups: a.cfg.Log.MaxBackups,
		}
		setupLoggerWithWriter(logFile, debugMode)
		a.closers = append(a.closers, logFile.Close)
	}

	localizer, err := i18n.New(a.cfg.Locale.Language)
	if err != nil {
		return fmt.Errorf("i18n.New(%s) > %w", a.cfg.Locale.Language, err)
	}
	a.localizer = localizer

	backend, err := a.newSessionBackend(ctx)
	if err != nil {
		return err
	}
	a.sessions = session.NewManager(backend)
	if err := a.sessions.Load(ctx); err != nil {
		return fmt.Errorf("sessions.Load() > %w", err)
	}

	gateway, err := api.NewGateway(a.cfg.Server, a.sessions)
	if err != nil {
		return fmt.Errorf("api.NewGateway() > %w", err)
	}
	gateway.OnSessionExpired(func() {
		slog.Info("session expired, the stored session was cleared")
	})
	a.gateway = gateway
	a.closers = append(a.closers, gateway.Close)

	slog.Debug("application initialized",
		"server", a.cfg.Server.BaseURL,
		"session_backend", a.cfg.Session.Backend,
		"authenticated", a.sessions.IsAuthenticated(),
	)
	return nil
}

func (a *app) newSessionBackend(ctx context.Context) (session.Backend, error) {
	switch a.cfg.Session.Backend {
	case sessionBackendSQL:
		db, err := database.Connect(ctx, a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Connect() > %w", err)
		}
		a.closers = append(a.closers, db.Close)
		backend, err := session.NewSQLBackend(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("session.NewSQLBackend() > %w", err)
		}
		return backend, nil
	case sessionBackendFile, "":
		return session.NewFileBackend(a.cfg.Session.File), nil
	}
	return nil, fmt.Errorf("unsupported session backend %q", a.cfg.Session.Backend)
}

// newCLI binds the interactive front end to the command's input and output.
// Passwords are read without echo only on the process terminal.
func (a *app) newCLI(cmd *cobra.Command) *cli.InteractiveCLI {
	if cmd.InOrStdin() == os.Stdin && cmd.OutOrStdout() == os.Stdout {
		return cli.NewStdioCLI(a.localizer)
	}
	return cli.NewInteractiveCLI(cmd.InOrStdin(), cmd.OutOrStdout(), a.localizer)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
