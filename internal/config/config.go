// Package config handles the XDG configuration directory, file paths and
// the optional config.yaml settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskflow/internal/session"
	"taskflow/internal/telemetry"
)

const (
	// AppName is the application directory name.
	AppName = "taskflow"

	// SettingsFile is the settings filename.
	SettingsFile = "config.yaml"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// DatabaseFile is the default SQLite database filename.
	DatabaseFile = "taskflow.db"

	// APITimeout is the default per-request timeout for remote backends.
	APITimeout = 5 * time.Second

	// DefaultServeAddr is the default listen address for the local API.
	DefaultServeAddr = "127.0.0.1:8765"
)

// Backends.
const (
	BackendREST        = "rest"
	BackendSQLite      = "sqlite"
	BackendMySQL       = "mysql"
	BackendGoogleTasks = "googletasks"
)

// Backends lists the supported backend names.
var Backends = []string{BackendREST, BackendSQLite, BackendMySQL, BackendGoogleTasks}

// Settings is the contents of config.yaml.
type Settings struct {
	// Backend selects the task store: rest, sqlite, mysql or googletasks.
	Backend string `yaml:"backend"`

	// URL and AnonKey address the hosted project for the rest backend.
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`

	// SQLitePath is the database file for the sqlite backend.
	// Defaults to taskflow.db in the config directory.
	SQLitePath string `yaml:"sqlite_path"`

	// MySQLDSN is the data source name for the mysql backend.
	MySQLDSN string `yaml:"mysql_dsn"`

	// AvatarDir is where the mysql backend stores avatar files.
	AvatarDir string `yaml:"avatar_dir"`

	LogLevel  string                `yaml:"log_level"`
	Telemetry telemetry.TraceConfig `yaml:"telemetry"`

	Serve ServeSettings `yaml:"serve"`
}

// ServeSettings configures the local API server.
type ServeSettings struct {
	Addr string `yaml:"addr"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings
}

// New creates a new Config with the default or specified config directory
// and loads config.yaml from it if present.
// If configDir is empty, uses XDG_CONFIG_HOME/taskflow or $HOME/.config/taskflow.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir, Settings: defaultSettings()}

	data, err := os.ReadFile(cfg.SettingsPath())
	switch {
	case err == nil && len(data) > 0:
		if err := yaml.Unmarshal(data, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", SettingsFile, err)
		}
	case err != nil && !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", SettingsFile, err)
	}

	applyEnvOverrides(&cfg.Settings)
	normalize(cfg)
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultSettings() Settings {
	return Settings{
		Backend:  BackendSQLite,
		LogLevel: "info",
		Telemetry: telemetry.TraceConfig{
			ServiceName: AppName,
		},
		Serve: ServeSettings{Addr: DefaultServeAddr},
	}
}

func applyEnvOverrides(s *Settings) {
	if raw := os.Getenv("TASKFLOW_BACKEND"); raw != "" {
		s.Backend = raw
	}
	if raw := os.Getenv("TASKFLOW_URL"); raw != "" {
		s.URL = raw
	}
	if raw := os.Getenv("TASKFLOW_ANON_KEY"); raw != "" {
		s.AnonKey = raw
	}
	if raw := os.Getenv("TASKFLOW_DSN"); raw != "" {
		s.MySQLDSN = raw
	}
	if raw := os.Getenv("TASKFLOW_LOG_LEVEL"); raw != "" {
		s.LogLevel = raw
	}
}

func normalize(c *Config) {
	s := &c.Settings
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = BackendSQLite
	}
	if s.SQLitePath == "" {
		s.SQLitePath = filepath.Join(c.Dir, DatabaseFile)
	}
	if s.AvatarDir == "" {
		s.AvatarDir = filepath.Join(c.Dir, "avatars")
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Telemetry.ServiceName == "" {
		s.Telemetry.ServiceName = AppName
	}
	if s.Serve.Addr == "" {
		s.Serve.Addr = DefaultServeAddr
	}
}

// Validate checks that the selected backend has what it needs.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendREST:
		if s.URL == "" || s.AnonKey == "" {
			return fmt.Errorf("backend %q needs url and anon_key (or TASKFLOW_URL and TASKFLOW_ANON_KEY)", s.Backend)
		}
	case BackendMySQL:
		if s.MySQLDSN == "" {
			return fmt.Errorf("backend %q needs mysql_dsn (or TASKFLOW_DSN)", s.Backend)
		}
	case BackendSQLite, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend %q (want one of %s)", s.Backend, strings.Join(Backends, ", "))
	}
	switch s.Telemetry.Exporter {
	case "", telemetry.ExporterFile, telemetry.ExporterOTLP:
	default:
		return fmt.Errorf("unknown trace exporter %q (want %s or %s)", s.Telemetry.Exporter, telemetry.ExporterFile, telemetry.ExporterOTLP)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// SessionProvider returns the sign-in provider the configured backend needs.
func (c *Config) SessionProvider() string {
	switch c.Settings.Backend {
	case BackendGoogleTasks:
		return session.ProviderGoogle
	case BackendREST:
		return session.ProviderPassword
	default:
		return session.ProviderLocal
	}
}

// Save writes the current settings to config.yaml.
func (c *Config) Save() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}
