package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/export"
	"taskflow/internal/service"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd implements the export command.
type ExportCmd struct {
	format string
	output string
}

// SetFormat sets the format flag (for testing).
func (c *ExportCmd) SetFormat(f string) { c.format = f }

// SetOutput sets the output flag (for testing).
func (c *ExportCmd) SetOutput(path string) { c.output = path }

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Export tasks as JSON, CSV or PDF" }
func (c *ExportCmd) Usage() string {
	return "taskflow export [--format <json|csv|pdf>] [--output <file>]"
}
func (c *ExportCmd) NeedsAuth() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.format, "f", "", "")
	fs.StringVar(&c.output, "output", "", "")
	fs.StringVar(&c.output, "o", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	format := strings.ToLower(c.format)
	if format == "" {
		format = export.FormatFromPath(c.output)
	}
	if format == "" {
		format = export.FormatJSON
	}
	if format == export.FormatPDF && c.output == "" {
		fmt.Fprintln(errOut, "error: pdf export needs --output")
		return exitcode.UserError
	}

	data, err := export.NewExporter(svc).Export(ctx, format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.FromError(err)
	}

	if c.output == "" {
		out.Write(data)
		if format == export.FormatJSON {
			fmt.Fprintln(out)
		}
		return exitcode.Success
	}
	if err := os.WriteFile(c.output, data, 0o644); err != nil {
		fmt.Fprintf(errOut, "error: failed to write %s: %v\n", c.output, err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (%s)\n", c.output)
	}
	return exitcode.Success
}
