package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

func init() {
	Register(&ProfileCmd{})
	Register(&AvatarCmd{})
}

// ProfileCmd implements the profile command.
type ProfileCmd struct {
	name    string
	setName bool
}

// SetName sets the name flag (for testing).
func (c *ProfileCmd) SetName(name string) {
	c.name = name
	c.setName = true
}

func (c *ProfileCmd) Name() string      { return "profile" }
func (c *ProfileCmd) Aliases() []string { return nil }
func (c *ProfileCmd) Synopsis() string  { return "Show or update your profile" }
func (c *ProfileCmd) Usage() string     { return "taskflow profile [--name <full name>]" }
func (c *ProfileCmd) NeedsAuth() bool   { return true }

func (c *ProfileCmd) RegisterFlags(fs *flag.FlagSet) {
	c.setName = false
	fs.Func("name", "", func(v string) error {
		c.name = v
		c.setName = true
		return nil
	})
}

func (c *ProfileCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	var (
		p   service.Profile
		err error
	)
	if c.setName {
		p, err = svc.UpdateProfile(ctx, c.name)
	} else {
		p, err = svc.Profile(ctx)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.FromError(err)
	}

	if c.setName && cfg.Quiet {
		return exitcode.Success
	}
	output.FormatProfile(out, p)
	return exitcode.Success
}

// AvatarCmd implements the avatar command.
type AvatarCmd struct{}

func (c *AvatarCmd) Name() string      { return "avatar" }
func (c *AvatarCmd) Aliases() []string { return nil }
func (c *AvatarCmd) Synopsis() string  { return "Upload a profile picture" }
func (c *AvatarCmd) Usage() string     { return "taskflow avatar <image-file>" }
func (c *AvatarCmd) NeedsAuth() bool   { return true }

func (c *AvatarCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AvatarCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: image file required")
		return exitcode.UserError
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer f.Close()

	p, err := svc.UploadAvatar(ctx, filepath.Base(args[0]), f)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.FromError(err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, p.AvatarURL)
	}
	return exitcode.Success
}
