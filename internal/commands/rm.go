package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete tasks" }
func (c *RmCmd) Usage() string     { return "taskflow rm <ref>..." }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return refArgsError(errOut, err)
	}

	ctrl := newController(cfg, svc, out, errOut)
	tasks, code := resolveRefs(ctx, ctrl, refs, errOut)
	if code != exitcode.Success {
		return code
	}
	for _, t := range tasks {
		if _, err := ctrl.Remove(ctx, t.ID); err != nil {
			return exitcode.FromError(err)
		}
	}
	return exitcode.Success
}
