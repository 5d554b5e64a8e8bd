// Package rest implements service.Store against a hosted database service
// exposing a PostgREST-style HTTP API.
//
// Requests carry the project's anon key in the apikey header and the
// session's OAuth2 access token as a bearer token. Row-level policies on
// the server scope every query to the token's user.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// AvatarBucket is the storage bucket holding profile pictures.
	AvatarBucket = "avatars"

	tasksPath    = "/rest/v1/tasks"
	profilesPath = "/rest/v1/profiles"
	storagePath  = "/storage/v1/object"
)

// Client implements service.Store and service.ProfileStore.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// New creates a client for the project at baseURL.
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
	}
}

// NewWithHTTPClient creates a client with a custom base HTTP client (for testing).
// The bearer transport is layered on top of it.
func NewWithHTTPClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	c := New(baseURL, anonKey)
	c.httpClient = httpClient
	return c
}

// row is the wire shape of a tasks row.
type row struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// insertRow is the body of an insert; id and timestamps are server defaults.
type insertRow struct {
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
}

func (r row) task() (service.Task, error) {
	status, err := service.ParseStatus(r.Status)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	priority, err := service.ParsePriority(r.Priority)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	t := service.Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    status,
		Priority:  priority,
		Owner:     r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	return t, nil
}

type profileRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelectTasks implements service.Store.
func (c *Client) SelectTasks(ctx context.Context, sess *session.Session) ([]service.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc,id.asc")

	var rows []row
	if err := c.do(ctx, sess, http.MethodGet, tasksPath+"?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]service.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.task()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// InsertTask implements service.Store.
func (c *Client) InsertTask(ctx context.Context, sess *session.Session, t service.NewTask) error {
	body := insertRow{
		UserID:   sess.UserID,
		Title:    t.Title,
		Status:   service.StatusTodo.String(),
		Priority: t.Priority.String(),
	}
	if t.Description != "" {
		body.Description = &t.Description
	}
	return c.do(ctx, sess, http.MethodPost, tasksPath, body, http.Header{"Prefer": {"return=minimal"}}, nil)
}

// UpdateTaskStatus implements service.Store.
func (c *Client) UpdateTaskStatus(ctx context.Context, sess *session.Session, id string, status service.Status) error {
	var rows []row
	err := c.do(ctx, sess, http.MethodPatch, tasksPath+"?id=eq."+url.QueryEscape(id),
		map[string]string{"status": status.String()},
		http.Header{"Prefer": {"return=representation"}}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return service.NotFound("update status", id)
	}
	return nil
}

// DeleteTask implements service.Store.
func (c *Client) DeleteTask(ctx context.Context, sess *session.Session, id string) error {
	var rows []row
	err := c.do(ctx, sess, http.MethodDelete, tasksPath+"?id=eq."+url.QueryEscape(id), nil,
		http.Header{"Prefer": {"return=representation"}}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return service.NotFound("delete", id)
	}
	return nil
}

// SelectProfile implements service.ProfileStore. A user without a
// profiles row gets one built from the session.
func (c *Client) SelectProfile(ctx context.Context, sess *session.Session) (service.Profile, error) {
	var rows []profileRow
	path := profilesPath + "?select=*&id=eq." + url.QueryEscape(sess.UserID)
	if err := c.do(ctx, sess, http.MethodGet, path, nil, nil, &rows); err != nil {
		return service.Profile{}, err
	}
	if len(rows) == 0 {
		return service.Profile{ID: sess.UserID, Email: sess.Email}, nil
	}
	r := rows[0]
	p := service.Profile{ID: r.ID, Email: r.Email, UpdatedAt: r.UpdatedAt}
	if r.FullName != nil {
		p.FullName = *r.FullName
	}
	if r.AvatarURL != nil {
		p.AvatarURL = *r.AvatarURL
	}
	if p.Email == "" {
		p.Email = sess.Email
	}
	return p, nil
}

// UpsertProfile implements service.ProfileStore.
func (c *Client) UpsertProfile(ctx context.Context, sess *session.Session, p service.Profile) error {
	body := profileRow{
		ID:        sess.UserID,
		Email:     p.Email,
		FullName:  &p.FullName,
		AvatarURL: &p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
	if body.UpdatedAt.IsZero() {
		body.UpdatedAt = time.Now().UTC()
	}
	return c.do(ctx, sess, http.MethodPost, profilesPath, body,
		http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}}, nil)
}

// UploadAvatar implements service.ProfileStore and returns the object's public URL.
func (c *Client) UploadAvatar(ctx context.Context, sess *session.Session, objectPath string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	path := storagePath + "/" + AvatarBucket + "/" + objectPath
	if err := c.send(ctx, sess, http.MethodPost, path, bytes.NewReader(data), http.Header{
		"Content-Type": {http.DetectContentType(data)},
		"X-Upsert":     {"true"},
	}, nil); err != nil {
		return "", err
	}
	return c.PublicURL(objectPath), nil
}

// PublicURL returns the public URL of an object in the avatars bucket.
func (c *Client) PublicURL(objectPath string) string {
	return c.baseURL + storagePath + "/public/" + AvatarBucket + "/" + objectPath
}

func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, body any, header http.Header, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
		if header == nil {
			header = http.Header{}
		}
		header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, sess, method, path, r, header, out)
}

func (c *Client) send(ctx context.Context, sess *session.Session, method, path string, body io.Reader, header http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	op := strings.ToLower(method) + " " + strings.SplitN(path, "?", 2)[0]
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client(ctx, sess).Do(req)
	if err != nil {
		return wrapError(op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return service.Transport(op, fmt.Errorf("invalid response: %w", err))
	}
	return nil
}

func (c *Client) client(ctx context.Context, sess *session.Session) *http.Client {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return oauth2.NewClient(ctx, sess.TokenSource())
}

// apiError is the error body returned by the REST and storage endpoints.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	err := errors.New(msg)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return service.Auth(op, fmt.Errorf("token expired or revoked (run: taskflow login): %w", err))
	case http.StatusNotFound:
		return &service.Failure{Kind: service.NotFoundFailure, Op: op, Err: err}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return service.Validation(op, err)
	}
	return service.Transport(op, err)
}

// wrapError classifies transport-level errors.
func wrapError(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return service.Auth(op, fmt.Errorf("token expired or revoked (run: taskflow login): %w", err))
	}
	return service.Classify(op, err)
}

var (
	_ service.Store        = (*Client)(nil)
	_ service.ProfileStore = (*Client)(nil)
)
