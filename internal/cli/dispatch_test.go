package cli_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"taskflow/internal/cli"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/telemetry"
	"taskflow/internal/testutil"
)

func TestMain(m *testing.M) {
	for _, key := range []string{"TASKFLOW_BACKEND", "TASKFLOW_URL", "TASKFLOW_ANON_KEY", "TASKFLOW_DSN", "TASKFLOW_LOG_LEVEL"} {
		os.Unsetenv(key)
	}
	slog.SetDefault(telemetry.Discard())
	os.Exit(m.Run())
}

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, func(), error) {
		return svc, nil, nil
	}
}

func failingFactory(err error) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, func(), error) {
		return nil, nil, err
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, d, "unknowncmd")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if expected := "error: unknown command: unknowncmd\n"; stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, d, "--quiet")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if expected := "error: unknown command: --quiet\n"; stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, stderr, code := run(t, d, "help", "--config", t.TempDir())
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !bytes.Contains([]byte(stdout), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	stdout, stderr, code := run(t, d, "version", "--config", t.TempDir())
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskflow 0.1.0\n" {
		t.Errorf("expected 'taskflow 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_FlagErrors(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"help", "--unknown"}, "error: unknown flag: -unknown\n"},
		{"missing value", []string{"add", "--config"}, "error: flag needs an argument: -config\n"},
		{"flag after terminator", []string{"list", "--", "-x"}, "error: unknown flag: -x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, d, tt.args...)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Buy milk")
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, stderr, code := run(t, d)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "   1  [ ] medium  Buy milk\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if svc.ListCalls != 1 {
		t.Errorf("expected one list call, got %d", svc.ListCalls)
	}
}

func TestDispatcher_QuietFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))

	stdout, _, code := run(t, d, "add", "--config", t.TempDir(), "-q", "Buy milk")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("quiet add should print nothing, got %q", stdout)
	}
	if svc.Len() != 1 {
		t.Errorf("expected one task, got %d", svc.Len())
	}
}

func TestDispatcher_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("backend: carrier-pigeon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	_, stderr, code := run(t, d, "list", "--config", dir)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !bytes.Contains([]byte(stderr), []byte("unknown backend")) {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"no session", session.ErrNoSession, exitcode.AuthError, "error: not logged in (run: taskflow login)\n"},
		{"auth", service.Auth("session", errors.New("expired")), exitcode.AuthError, "error: auth error: session: expired\n"},
		{"transport", errors.New("connection refused"), exitcode.BackendError, "error: backend error: connection refused\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cli.NewDispatcher(commands.DefaultRegistry, failingFactory(tt.err))
			_, stderr, code := run(t, d, "list", "--config", t.TempDir())
			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestDispatcher_NoFactory(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, nil)

	_, stderr, code := run(t, d, "list", "--config", t.TempDir())
	if code != exitcode.BackendError || stderr != "error: no backend configured\n" {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}

	// Commands that need no backend still run.
	if _, _, code := run(t, d, "version", "--config", t.TempDir()); code != exitcode.Success {
		t.Errorf("version exit code = %d", code)
	}
}

func TestDispatcher_Setup(t *testing.T) {
	var gotDebug, cleaned bool
	setup := func(ctx context.Context, cfg *config.Config) (func(), error) {
		gotDebug = cfg.Debug
		return func() { cleaned = true }, nil
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, nil, cli.WithSetup(setup))

	if _, _, code := run(t, d, "version", "--config", t.TempDir(), "--debug"); code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if !gotDebug {
		t.Error("setup did not see --debug")
	}
	if !cleaned {
		t.Error("setup cleanup was not run")
	}

	failing := cli.NewDispatcher(commands.DefaultRegistry, nil, cli.WithSetup(func(context.Context, *config.Config) (func(), error) {
		return nil, errors.New("disk full")
	}))
	_, stderr, code := run(t, failing, "version", "--config", t.TempDir())
	if code != exitcode.BackendError || stderr != "error: disk full\n" {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
}
