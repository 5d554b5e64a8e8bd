package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/backend/rest"
	"taskflow/internal/backend/sqlstore"
	"taskflow/internal/config"
	"taskflow/internal/repository"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/telemetry"
)

// Telemetry output files inside the logs directory.
const (
	TraceFile  = "traces.jsonl"
	MetricFile = "metrics.jsonl"
)

// Runtime builds the process-wide logger, telemetry and repository once the
// config directory is known.
type Runtime struct {
	Version string

	// Stderr receives mirrored logs when --debug is set.
	Stderr io.Writer

	log      *slog.Logger
	provider *telemetry.Provider
}

// Setup installs the default logger and the telemetry provider. The
// returned cleanup flushes spans and closes the log files.
func (rt *Runtime) Setup(ctx context.Context, cfg *config.Config) (func(), error) {
	var mirror io.Writer
	if cfg.Debug && rt.Stderr != nil {
		mirror = rt.Stderr
	}
	log, logFile, err := telemetry.NewLogger(cfg.Dir, cfg.Settings.LogLevel, mirror)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	slog.SetDefault(log)
	rt.log = log

	closers := []io.Closer{logFile}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
	var spans, metrics io.Writer = io.Discard, io.Discard
	if cfg.Settings.Telemetry.WritesFile() {
		for _, out := range []struct {
			name string
			w    *io.Writer
		}{{TraceFile, &spans}, {MetricFile, &metrics}} {
			f, err := os.OpenFile(filepath.Join(cfg.Dir, "logs", out.name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("open telemetry file: %w", err)
			}
			*out.w = f
			closers = append(closers, f)
		}
	}

	provider, err := telemetry.Init(ctx, cfg.Settings.Telemetry, rt.Version, spans, metrics)
	if err != nil {
		closeAll()
		return nil, err
	}
	rt.provider = provider

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
		closeAll()
	}, nil
}

// Service loads the stored session and returns a repository over the
// configured backend.
func (rt *Runtime) Service(ctx context.Context, cfg *config.Config) (service.Service, func(), error) {
	sess, err := session.Load(cfg.SessionPath())
	if err != nil {
		return nil, nil, err
	}
	if want := cfg.SessionProvider(); sess.Provider != want {
		return nil, nil, service.Auth("session", fmt.Errorf("stored session is for %s sign-in, backend %s needs %s (run: taskflow login --force)", sess.Provider, cfg.Settings.Backend, want))
	}

	store, closeStore, err := OpenStore(ctx, cfg, sess)
	if err != nil {
		return nil, nil, err
	}

	log := rt.log
	if log == nil {
		log = slog.Default()
	}
	opts := []repository.Option{
		repository.WithLogger(log),
		repository.WithBackend(cfg.Settings.Backend),
	}
	if rt.provider != nil {
		opts = append(opts, repository.WithTelemetry(rt.provider))
	}
	return repository.New(store, sess, opts...), closeStore, nil
}

// OpenStore opens the configured backend and attaches token refresh to the
// session where the backend supports it. Refreshed tokens are saved to the
// config's session file.
func OpenStore(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Store, func(), error) {
	noop := func() {}
	s := cfg.Settings

	switch s.Backend {
	case config.BackendSQLite:
		store, err := sqlstore.OpenSQLite(ctx, s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendMySQL:
		store, err := sqlstore.OpenMySQL(ctx, s.MySQLDSN, s.AvatarDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendREST:
		sess.WithRefresh(ctx, session.PasswordConfig(s.URL, s.AnonKey), cfg.SessionPath())
		return rest.New(s.URL, s.AnonKey), noop, nil

	case config.BackendGoogleTasks:
		clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
		if err != nil {
			return nil, nil, service.Auth("open backend", fmt.Errorf("oauth_client.json not found in %s", cfg.Dir))
		}
		oauthConfig, err := session.GoogleConfig(clientJSON)
		if err != nil {
			return nil, nil, service.Auth("open backend", err)
		}
		sess.WithRefresh(ctx, oauthConfig, cfg.SessionPath())
		return googletasks.New(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown backend: %s", s.Backend)
}
