package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd removes the stored session. Password sessions are also revoked
// on the hosted store; a failed revoke only logs a warning.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "taskflow logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, err := session.Load(cfg.SessionPath())
	if err != nil && !cfg.HasSession() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if sess != nil && sess.Provider == session.ProviderPassword && cfg.Settings.URL != "" {
		rctx, cancel := context.WithTimeout(ctx, config.APITimeout)
		err := session.SignOutPassword(rctx, nil, cfg.Settings.URL, cfg.Settings.AnonKey, sess)
		cancel()
		if err != nil {
			slog.Warn("remote sign-out failed", "error", err)
		}
	}

	if err := session.Remove(cfg.SessionPath()); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
