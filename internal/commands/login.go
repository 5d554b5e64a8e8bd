package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"

	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// PasswordEnv names the environment variable read when --password is not given.
const PasswordEnv = "TASKFLOW_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. The sign-in flow depends on the
// configured backend.
type LoginCmd struct {
	email    string
	password string
	force    bool

	// PasswordPrompt asks for the password when neither --password nor
	// TASKFLOW_PASSWORD is set. Nil reads it without echo from a terminal
	// on stdin.
	PasswordPrompt func(errOut io.Writer) (string, error)
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string {
	return "taskflow login [--email <address>] [--password <password>] [--force]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	backend := cfg.Settings.Backend

	if backend == config.BackendGoogleTasks && !cfg.HasOAuthClient() {
		printOAuthClientHelp(cfg, errOut)
		return exitcode.AuthError
	}

	if !c.force {
		if sess, err := session.Load(cfg.SessionPath()); err == nil && sess.Provider == cfg.SessionProvider() {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	var (
		sess *session.Session
		err  error
	)
	switch backend {
	case config.BackendGoogleTasks:
		sess, err = c.signInGoogle(ctx, cfg, errOut)
	case config.BackendREST:
		sess, err = c.signInPassword(ctx, cfg, errOut)
	default:
		sess, err = session.SignInLocal(c.email)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := session.Save(cfg.SessionPath(), sess); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func (c *LoginCmd) signInPassword(ctx context.Context, cfg *config.Config, errOut io.Writer) (*session.Session, error) {
	email := strings.TrimSpace(c.email)
	if email == "" {
		return nil, fmt.Errorf("email required (--email)")
	}
	password := c.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if password == "" {
		prompt := c.PasswordPrompt
		if prompt == nil {
			prompt = terminalPassword
		}
		p, err := prompt(errOut)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		password = p
	}
	if password == "" {
		return nil, fmt.Errorf("password required (%s, prompt, or --password)", PasswordEnv)
	}
	return session.SignInPassword(ctx, nil, cfg.Settings.URL, cfg.Settings.AnonKey, email, password)
}

// terminalPassword prompts on errOut and reads a line from stdin without
// echo. It returns "" when stdin is not a terminal.
func terminalPassword(errOut io.Writer) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", nil
	}
	fmt.Fprint(errOut, "Password: ")
	b, err := term.ReadPassword(os.Stdin.Fd())
	fmt.Fprintln(errOut)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func (c *LoginCmd) signInGoogle(ctx context.Context, cfg *config.Config, errOut io.Writer) (*session.Session, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := session.GoogleConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	return session.SignInGoogle(ctx, oauthConfig, func(url string) {
		fmt.Fprintln(errOut, "Open this URL in your browser:")
		fmt.Fprintln(errOut, url)
	})
}

func printOAuthClientHelp(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To use the Google Tasks backend, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
	fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
	fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
	fmt.Fprintln(errOut, "   - Download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s/oauth_client.json\n", cfg.Dir)
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'taskflow login' again.")
}
