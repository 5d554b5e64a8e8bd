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
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark tasks done" }
func (c *DoneCmd) Usage() string     { return "taskflow done <ref>..." }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return refArgsError(errOut, err)
	}
	return setStatus(ctx, cfg, svc, refs, service.StatusDone, out, errOut)
}

// setStatus resolves refs against one listing and updates each task.
// The first failure stops the run.
func setStatus(ctx context.Context, cfg *config.Config, svc service.Service, refs []TaskRef, status service.Status, out, errOut io.Writer) int {
	ctrl := newController(cfg, svc, out, errOut)
	tasks, code := resolveRefs(ctx, ctrl, refs, errOut)
	if code != exitcode.Success {
		return code
	}
	for _, t := range tasks {
		if _, err := ctrl.SetStatus(ctx, t.ID, status); err != nil {
			return exitcode.FromError(err)
		}
	}
	return exitcode.Success
}
