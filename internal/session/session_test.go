package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/session"
)

func TestLoad_Missing(t *testing.T) {
	_, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSaveLoadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	want := &session.Session{
		Provider: session.ProviderPassword,
		UserID:   "user-1",
		Email:    "ada@example.com",
		Token:    &oauth2.Token{AccessToken: "a", RefreshToken: "r"},
	}
	if err := session.Save(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := session.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.Token.RefreshToken != "r" {
		t.Errorf("got %+v", got)
	}

	if err := session.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := session.Remove(path); err != nil {
		t.Errorf("removing a missing session should succeed, got %v", err)
	}
}

func TestLoad_InvalidSessionsCountAsMissing(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no user id", `{"provider":"local"}`},
		{"remote without token", `{"provider":"password","user_id":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := session.Load(path); !errors.Is(err, session.ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := session.Load(path)
	if err == nil || errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestSignInLocal(t *testing.T) {
	a, err := session.SignInLocal("  Ada@Example.com ")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := session.SignInLocal("ada@example.com")
	c, _ := session.SignInLocal("bob@example.com")

	if a.UserID != b.UserID {
		t.Error("the same address should map to the same user id")
	}
	if a.UserID == c.UserID {
		t.Error("different addresses should map to different user ids")
	}
	if !a.Valid() || a.Email != "ada@example.com" {
		t.Errorf("unexpected session %+v", a)
	}

	if _, err := session.SignInLocal(" "); err == nil {
		t.Error("expected an error for a blank address")
	}
}

func TestSignInPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = r.ParseForm()
			if r.PostForm.Get("username") != "ada@example.com" || r.PostForm.Get("client_id") != "anon" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
		case "/auth/v1/user":
			if r.Header.Get("apikey") != "anon" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"id":"u-7"}`)
		}
	}))
	defer srv.Close()

	sess, err := session.SignInPassword(context.Background(), srv.Client(), srv.URL, "anon", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("SignInPassword: %v", err)
	}
	if sess.UserID != "u-7" || sess.Email != "ada@example.com" || sess.Provider != session.ProviderPassword {
		t.Errorf("unexpected session %+v", sess)
	}

	if _, err := session.SignInPassword(context.Background(), srv.Client(), srv.URL, "anon", "bob@example.com", "pw"); err == nil {
		t.Error("expected the grant to be rejected")
	}
}

func TestPasswordConfig(t *testing.T) {
	cfg := session.PasswordConfig("https://db.example.com/", "anon")
	if cfg.Endpoint.TokenURL != "https://db.example.com/auth/v1/token" {
		t.Errorf("token url = %q", cfg.Endpoint.TokenURL)
	}
	if cfg.ClientID != "anon" {
		t.Errorf("client id = %q", cfg.ClientID)
	}
}

func TestGoogleConfig(t *testing.T) {
	if _, err := session.GoogleConfig([]byte("not json")); err == nil {
		t.Error("expected an error for invalid credentials")
	}
	cfg, err := session.GoogleConfig([]byte(`{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://a","token_uri":"https://t","redirect_uris":["http://localhost"]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != session.GoogleTasksScope {
		t.Errorf("scopes = %v", cfg.Scopes)
	}
}

func TestSignOutPassword(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/auth/v1/logout" || r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sess := &session.Session{Provider: session.ProviderPassword, UserID: "u1", Token: &oauth2.Token{AccessToken: "tok"}}
	if err := session.SignOutPassword(context.Background(), srv.Client(), srv.URL, "anon", sess); err != nil {
		t.Fatalf("SignOutPassword: %v", err)
	}
	if err := session.SignOutPassword(context.Background(), srv.Client(), srv.URL, "wrong", sess); err == nil {
		t.Error("expected a rejected sign-out to fail")
	}
	if err := session.SignOutPassword(context.Background(), srv.Client(), srv.URL, "anon", &session.Session{}); err != nil || calls != 2 {
		t.Errorf("a session without a token should not call the store (err %v, calls %d)", err, calls)
	}
}

func TestWithRefresh_SavesRotatedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("refresh_token") != "r1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"a2","refresh_token":"r2","token_type":"bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	tests := []struct {
		name      string
		persist   bool
		wantSaved string
	}{
		{"with path", true, "r2"},
		{"without path", false, "r1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			sess := &session.Session{
				Provider: session.ProviderPassword,
				UserID:   "u1",
				Token:    &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: time.Now().Add(-time.Minute)},
			}
			if err := session.Save(path, sess); err != nil {
				t.Fatal(err)
			}

			savePath := ""
			if tt.persist {
				savePath = path
			}
			sess.WithRefresh(context.Background(), session.PasswordConfig(srv.URL, "anon"), savePath)
			tok, err := sess.TokenSource().Token()
			if err != nil {
				t.Fatalf("Token: %v", err)
			}
			if tok.AccessToken != "a2" {
				t.Errorf("access token = %q", tok.AccessToken)
			}

			stored, err := session.Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Token.RefreshToken != tt.wantSaved {
				t.Errorf("stored refresh token = %q, want %q", stored.Token.RefreshToken, tt.wantSaved)
			}
		})
	}
}
