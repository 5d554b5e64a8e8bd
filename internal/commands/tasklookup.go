package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"taskflow/internal/config"
	"taskflow/internal/dashboard"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

// newController builds a controller whose notifications go to the command's
// output streams and to the default logger.
func newController(cfg *config.Config, svc service.Service, out, errOut io.Writer) *dashboard.Controller {
	notify := dashboard.Tee{
		&dashboard.WriterNotifier{Out: out, ErrOut: errOut, Quiet: cfg.Quiet},
		dashboard.LogNotifier{Log: slog.Default()},
	}
	return dashboard.NewController(svc, notify)
}

// loadTasks mounts the controller and returns the listing.
// A failed list has already been reported through the notifier.
func loadTasks(ctx context.Context, ctrl *dashboard.Controller) ([]service.Task, int) {
	st := ctrl.Mount(ctx)
	if st.Err != nil {
		return nil, exitcode.FromError(st.Err)
	}
	return st.Tasks, exitcode.Success
}

// resolveRefs resolves every reference against one listing, so positions
// refer to the list as the user last saw it even when several tasks are
// changed in one invocation.
func resolveRefs(ctx context.Context, ctrl *dashboard.Controller, refs []TaskRef, errOut io.Writer) ([]service.Task, int) {
	tasks, code := loadTasks(ctx, ctrl)
	if code != exitcode.Success {
		return nil, code
	}
	resolved := make([]service.Task, 0, len(refs))
	for _, ref := range refs {
		t, err := ref.Resolve(tasks)
		if err != nil {
			if ref.ID != "" {
				fmt.Fprintf(errOut, "error: task not found: %s\n", ref.ID)
			} else {
				fmt.Fprintf(errOut, "error: task number out of range: %d\n", ref.Num)
			}
			return nil, exitcode.UserError
		}
		resolved = append(resolved, t)
	}
	return resolved, exitcode.Success
}

// refArgsError prints a task reference parse error.
func refArgsError(errOut io.Writer, err error) int {
	if err == ErrTaskRefRequired {
		fmt.Fprintln(errOut, "error: task reference required")
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.UserError
}
