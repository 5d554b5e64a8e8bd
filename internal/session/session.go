// Package session holds the authenticated identity that store calls run under.
//
// A Session is created by one of the sign-in flows, persisted to session.json
// in the config directory, and removed on sign-out. It is passed explicitly
// to every store operation; nothing in taskflow keeps it in a global.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

// Providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
	ProviderLocal    = "local"
)

// ErrNoSession is returned when no session has been stored.
var ErrNoSession = errors.New("not logged in (run: taskflow login)")

// Session is the signed-in identity.
type Session struct {
	Provider string        `json:"provider"`
	UserID   string        `json:"user_id"`
	Email    string        `json:"email,omitempty"`
	Token    *oauth2.Token `json:"token,omitempty"`

	// refresher is set by the backend that knows how to refresh Token.
	refresher oauth2.TokenSource
}

// Valid reports whether the session carries a usable identity.
// Local sessions need no token.
func (s *Session) Valid() bool {
	if s == nil || s.UserID == "" {
		return false
	}
	if s.Provider == ProviderLocal {
		return true
	}
	return s.Token != nil && (s.Token.AccessToken != "" || s.Token.RefreshToken != "")
}

// WithRefresh attaches an oauth2 config used to refresh the token. When path
// is set, every refreshed token is written back to that session file, since
// a refresh may rotate and revoke the stored refresh token.
func (s *Session) WithRefresh(ctx context.Context, cfg *oauth2.Config, path string) {
	if s.Token == nil {
		return
	}
	src := oauth2.ReuseTokenSource(s.Token, cfg.TokenSource(ctx, s.Token))
	if path == "" {
		s.refresher = src
		return
	}
	s.refresher = &persistingSource{src: src, sess: s, path: path}
}

// persistingSource saves the session whenever the wrapped source hands out
// a token other than the stored one.
type persistingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	sess *Session
	path string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.sess.Token
	if cur != nil && cur.AccessToken == tok.AccessToken && cur.RefreshToken == tok.RefreshToken {
		return tok, nil
	}
	p.sess.Token = tok
	if err := Save(p.path, p.sess); err != nil {
		slog.Warn("failed to save refreshed session", "path", p.path, "error", err)
	}
	return tok, nil
}

// TokenSource returns the token source for authenticated transports.
func (s *Session) TokenSource() oauth2.TokenSource {
	if s.refresher != nil {
		return s.refresher
	}
	return oauth2.StaticTokenSource(s.Token)
}

// Load reads a session file. Returns ErrNoSession if it does not exist.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	if !s.Valid() {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session with mode 0600.
func Save(path string, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Remove deletes the session file. Removing a missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
