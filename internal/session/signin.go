package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// GoogleTasksScope is the OAuth scope requested for the googletasks backend.
	GoogleTasksScope = "https://www.googleapis.com/auth/tasks"

	// oauth callback timeout
	callbackTimeout = 5 * time.Minute

	// token exchange timeout
	exchangeTimeout = 30 * time.Second

	callbackStartPort = 8085
	callbackMaxPorts  = 5
)

// PasswordConfig returns the oauth2 config for the hosted store's token endpoint.
func PasswordConfig(baseURL, anonKey string) *oauth2.Config {
	base := strings.TrimRight(baseURL, "/")
	return &oauth2.Config{
		ClientID: anonKey,
		Endpoint: oauth2.Endpoint{
			TokenURL:  base + "/auth/v1/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// SignInPassword exchanges e-mail and password for a token using the
// resource-owner password grant, then resolves the user's id.
func SignInPassword(ctx context.Context, httpClient *http.Client, baseURL, anonKey, email, password string) (*Session, error) {
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	cfg := PasswordConfig(baseURL, anonKey)
	token, err := cfg.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	s := &Session{Provider: ProviderPassword, Email: email, Token: token}
	user, err := fetchUser(ctx, oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), baseURL, anonKey)
	if err != nil {
		return nil, err
	}
	s.UserID = user.ID
	if user.Email != "" {
		s.Email = user.Email
	}
	return s, nil
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func fetchUser(ctx context.Context, client *http.Client, baseURL, anonKey string) (remoteUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/auth/v1/user", nil)
	if err != nil {
		return remoteUser{}, err
	}
	req.Header.Set("apikey", anonKey)
	resp, err := client.Do(req)
	if err != nil {
		return remoteUser{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return remoteUser{}, fmt.Errorf("failed to fetch user: %s", resp.Status)
	}
	var u remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return remoteUser{}, fmt.Errorf("invalid user response: %w", err)
	}
	if u.ID == "" {
		return remoteUser{}, fmt.Errorf("user response has no id")
	}
	return u, nil
}

// SignOutPassword revokes the session's refresh tokens on the hosted store.
func SignOutPassword(ctx context.Context, httpClient *http.Client, baseURL, anonKey string, s *Session) error {
	if s == nil || s.Token == nil || s.Token.AccessToken == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", anonKey)
	s.Token.SetAuthHeader(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sign out failed: %s", resp.Status)
	}
	return nil
}

// SignInLocal creates a session for the SQL backends. The user id is a
// name-based UUID of the e-mail, so the same address always owns the same rows.
func SignInLocal(email string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	return &Session{
		Provider: ProviderLocal,
		UserID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email:    email,
	}, nil
}

// GoogleConfig parses oauth_client.json contents.
func GoogleConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := google.ConfigFromJSON(clientJSON, GoogleTasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return cfg, nil
}

const oauthState = "state"

// callbackHandler hands the first authorization code or error to the sign-in
// flow. Later callbacks, such as a browser retry, are answered but dropped.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("no code in callback"):
			default:
			}
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in to TaskFlow</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})
}

// SignInGoogle runs the browser loopback authorization-code flow with PKCE.
// prompt receives the URL the user must open.
func SignInGoogle(ctx context.Context, cfg *oauth2.Config, prompt func(url string)) (*Session, error) {
	port, listener, err := findAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)
	verifier := oauth2.GenerateVerifier()
	prompt(cfg.AuthCodeURL(oauthState, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(oauthState, codeCh, errCh))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(callbackTimeout):
		return nil, fmt.Errorf("oauth callback timed out")
	case <-ctx.Done():
		return nil, fmt.Errorf("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	token, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	// Google Tasks rows carry no owner; the account itself is the owner.
	return &Session{Provider: ProviderGoogle, UserID: "me", Token: token}, nil
}

func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < callbackMaxPorts; i++ {
		port := callbackStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
