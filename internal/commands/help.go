package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskflow help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskflow                                           List all tasks, newest first
  taskflow list [--status <status>] [--verbose]      List tasks (alias: ls)
  taskflow add [-d <text>] [-p <priority>] <title...>
  taskflow create [-d <text>] [-p <priority>] <title...>
  taskflow done <ref>...                             Mark tasks done
  taskflow status <ref> <status>                     Set a task's status (alias: move)
  taskflow rm <ref>...                               Delete tasks (alias: delete)
  taskflow dashboard                                 Interactive dashboard (alias: ui)
  taskflow serve [--addr <host:port>]                Local JSON API
  taskflow export [-f json|csv|pdf] [-o <file>]      Export the task list
  taskflow profile [--name <full name>]              Show or update your profile
  taskflow avatar <image-file>                       Upload a profile picture
  taskflow config [--backend <name>] [...]           Show or change settings
  taskflow login [--email <address>] [--force]       Sign in (alias: signin)
  taskflow logout                                    Remove the stored session
  taskflow whoami                                    Show the signed-in user
  taskflow help
  taskflow version [--verbose]

A <ref> is a list position (1 = newest) or a task id.
Statuses: todo, in_progress, done. Priorities: low, medium, high.

Common flags:
  --config <dir>   Override config directory
  --quiet, -q      Suppress informational output
  --debug          Mirror debug logs to stderr
`
