package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// addFlags are shared by add and create.
type addFlags struct {
	description string
	priority    string
}

func (f *addFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.priority, "priority", "medium", "")
	fs.StringVar(&f.priority, "p", "medium", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	addFlags
}

// SetPriority sets the priority flag (for testing).
func (c *AddCmd) SetPriority(p string) {
	c.priority = p
}

// SetDescription sets the description flag (for testing).
func (c *AddCmd) SetDescription(d string) {
	c.description = d
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--description <text>] [--priority <low|medium|high>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) { c.register(fs) }

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.addFlags, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	addFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "taskflow create [--description <text>] [--priority <low|medium|high>] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) { c.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.addFlags, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, svc service.Service, flags addFlags, args []string, out, errOut io.Writer) int {
	priority := service.PriorityMedium
	if flags.priority != "" {
		p, err := service.ParsePriority(flags.priority)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid priority: %s\n", flags.priority)
			return exitcode.UserError
		}
		priority = p
	}

	// The controller reports a blank title itself, without a store call.
	ctrl := newController(cfg, svc, out, errOut)
	ctrl.ShowForm()
	_, err := ctrl.Submit(ctx, service.Draft{
		Title:       strings.Join(args, " "),
		Description: flags.description,
		Priority:    priority,
	})
	return exitcode.FromError(err)
}
