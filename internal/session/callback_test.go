package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCallbackHandler_RepeatedCallbacksDoNotBlock(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler("s1", codeCh, errCh)

	targets := []struct {
		url    string
		status int
	}{
		{"/callback?state=s1&code=first", http.StatusOK},
		{"/callback?state=s1&code=second", http.StatusOK},
		{"/callback?state=s1", http.StatusBadRequest},
		{"/callback?state=s1", http.StatusBadRequest},
		{"/callback?state=other&code=forged", http.StatusBadRequest},
	}
	for _, tt := range targets {
		done := make(chan int)
		go func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			done <- rec.Code
		}()
		select {
		case got := <-done:
			if got != tt.status {
				t.Errorf("%s: status %d, want %d", tt.url, got, tt.status)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: handler blocked", tt.url)
		}
	}

	if got := <-codeCh; got != "first" {
		t.Errorf("code = %q, want the first one", got)
	}
	if err := <-errCh; err == nil {
		t.Error("expected the missing code to be reported")
	}
}
