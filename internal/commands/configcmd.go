package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd shows config.yaml, or updates it when any setting flag is given.
type ConfigCmd struct {
	set []func(*config.Settings)
}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return []string{"settings"} }
func (c *ConfigCmd) Synopsis() string  { return "Show or change settings" }
func (c *ConfigCmd) Usage() string {
	return "taskflow config [--backend <name>] [--url <url>] [--anon-key <key>] [--sqlite-path <file>] [--mysql-dsn <dsn>] [--log-level <level>] [--addr <host:port>] [--trace=<bool>] [--trace-exporter file|otlp-http] [--trace-endpoint <host:port>]"
}
func (c *ConfigCmd) NeedsAuth() bool { return false }

// configSetters maps each setting flag to the field it changes.
var configSetters = map[string]func(*config.Settings, string){
	"backend":     func(s *config.Settings, v string) { s.Backend = strings.ToLower(strings.TrimSpace(v)) },
	"url":         func(s *config.Settings, v string) { s.URL = v },
	"anon-key":    func(s *config.Settings, v string) { s.AnonKey = v },
	"sqlite-path": func(s *config.Settings, v string) { s.SQLitePath = v },
	"mysql-dsn":   func(s *config.Settings, v string) { s.MySQLDSN = v },
	"log-level":   func(s *config.Settings, v string) { s.LogLevel = v },
	"addr":        func(s *config.Settings, v string) { s.Serve.Addr = v },

	"trace-exporter": func(s *config.Settings, v string) { s.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(v)) },
	"trace-endpoint": func(s *config.Settings, v string) { s.Telemetry.Endpoint = v },
}

// Set queues a setting change by flag name (for testing).
func (c *ConfigCmd) Set(name, value string) {
	apply := configSetters[name]
	c.set = append(c.set, func(s *config.Settings) { apply(s, value) })
}

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	c.set = nil
	for name := range configSetters {
		fs.Func(name, "", func(v string) error {
			c.Set(name, v)
			return nil
		})
	}
	fs.BoolFunc("trace", "", func(v string) error {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value %q for --trace", v)
		}
		c.set = append(c.set, func(s *config.Settings) { s.Telemetry.Enabled = on })
		return nil
	})
}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if len(c.set) == 0 {
		shown := cfg.Settings
		if shown.AnonKey != "" {
			shown.AnonKey = "[REDACTED]"
		}
		data, err := yaml.Marshal(shown)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(out, "# %s\n", cfg.SettingsPath())
		_, _ = out.Write(data)
		return exitcode.Success
	}

	for _, apply := range c.set {
		apply(&cfg.Settings)
	}
	if err := cfg.Settings.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(errOut, "error: failed to save settings: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (%s)\n", cfg.SettingsPath())
	}
	return exitcode.Success
}
