package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"taskflow/internal/config"
	"taskflow/internal/dashboard"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/tui"
)

func init() {
	Register(&DashboardCmd{})
}

// DashboardCmd opens the interactive terminal dashboard.
type DashboardCmd struct{}

func (c *DashboardCmd) Name() string      { return "dashboard" }
func (c *DashboardCmd) Aliases() []string { return []string{"ui"} }
func (c *DashboardCmd) Synopsis() string  { return "Open the interactive dashboard" }
func (c *DashboardCmd) Usage() string     { return "taskflow dashboard [common flags]" }
func (c *DashboardCmd) NeedsAuth() bool   { return true }

func (c *DashboardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashboardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if !isTerminal(out) {
		fmt.Fprintln(errOut, "error: the dashboard needs a terminal (try: taskflow list)")
		return exitcode.UserError
	}

	// Notifications are shown inside the dashboard, so only the log sees them
	// besides the recorder.
	rec := &dashboard.Recorder{}
	ctrl := dashboard.NewController(svc, dashboard.Tee{rec, dashboard.LogNotifier{Log: slog.Default()}})

	if err := tui.Run(ctx, ctrl, rec); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
