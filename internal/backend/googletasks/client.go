// Package googletasks implements service.Store using the Google Tasks API.
//
// Google Tasks has no priority, no in-progress state and no creation time,
// so those are kept in a one-line trailer appended to the task's notes:
//
//	[taskflow priority=high status=in_progress created=2026-01-02T15:04:05Z]
//
// Only the user's default list is used.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// Client implements service.Store using Google Tasks API.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New creates a Google Tasks client. Each call authenticates with the
// session's token source.
func New() *Client {
	return &Client{}
}

// NewWithHTTPClient creates a client with a custom base HTTP client and API
// endpoint (for testing).
func NewWithHTTPClient(httpClient *http.Client, endpoint string) *Client {
	return &Client{httpClient: httpClient, endpoint: endpoint}
}

func (c *Client) service(ctx context.Context, sess *session.Session) (*tasks.Service, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, sess.TokenSource()))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return svc, nil
}

// SelectTasks implements service.Store. Completed and hidden tasks are
// included; deleted ones are not.
func (c *Client) SelectTasks(ctx context.Context, sess *session.Session) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	svc, err := c.service(ctx, sess)
	if err != nil {
		return nil, err
	}

	var result []service.Task
	err = svc.Tasks.List(DefaultListID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				result = append(result, fromAPI(item, sess.UserID))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError("list", err)
	}
	service.SortTasks(result)
	return result, nil
}

// InsertTask implements service.Store.
func (c *Client) InsertTask(ctx context.Context, sess *session.Session, t service.NewTask) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	svc, err := c.service(ctx, sess)
	if err != nil {
		return err
	}

	m := meta{Priority: t.Priority, Status: service.StatusTodo, Created: time.Now().UTC().Truncate(time.Second)}
	_, err = svc.Tasks.Insert(DefaultListID, &tasks.Task{
		Title:  t.Title,
		Notes:  encodeNotes(t.Description, m),
		Status: statusNeedsAction,
	}).Context(ctx).Do()
	if err != nil {
		return wrapError("insert", err)
	}
	return nil
}

// UpdateTaskStatus implements service.Store.
func (c *Client) UpdateTaskStatus(ctx context.Context, sess *session.Session, id string, status service.Status) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	svc, err := c.service(ctx, sess)
	if err != nil {
		return err
	}
	current, err := c.get(ctx, svc, "update status", id)
	if err != nil {
		return err
	}

	desc, m := decodeNotes(current.Notes)
	if m.Created.IsZero() {
		m = metaFromAPI(current)
	}
	m.Status = status

	patch := &tasks.Task{Notes: encodeNotes(desc, m), Status: statusNeedsAction}
	if status == service.StatusDone {
		patch.Status = statusCompleted
	} else {
		// Reopening a task requires clearing its completion time.
		patch.NullFields = []string{"Completed"}
	}
	if _, err := svc.Tasks.Patch(DefaultListID, id, patch).Context(ctx).Do(); err != nil {
		return wrapError("update status", err)
	}
	return nil
}

// DeleteTask implements service.Store.
func (c *Client) DeleteTask(ctx context.Context, sess *session.Session, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	svc, err := c.service(ctx, sess)
	if err != nil {
		return err
	}
	// Deleted tasks stay readable with deleted=true; a second delete must
	// still report not found.
	if _, err := c.get(ctx, svc, "delete", id); err != nil {
		return err
	}
	if err := svc.Tasks.Delete(DefaultListID, id).Context(ctx).Do(); err != nil {
		return wrapError("delete", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, svc *tasks.Service, op, id string) (*tasks.Task, error) {
	t, err := svc.Tasks.Get(DefaultListID, id).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, service.NotFound(op, id)
		}
		return nil, wrapError(op, err)
	}
	if t.Deleted {
		return nil, service.NotFound(op, id)
	}
	return t, nil
}

func fromAPI(item *tasks.Task, owner string) service.Task {
	desc, m := decodeNotes(item.Notes)
	if m.Created.IsZero() {
		m = metaFromAPI(item)
	}
	status := m.Status
	if item.Status == statusCompleted {
		status = service.StatusDone
	} else if status == service.StatusDone || !status.Valid() {
		status = service.StatusTodo
	}
	updated, _ := time.Parse(time.RFC3339, item.Updated)
	return service.Task{
		ID:          item.Id,
		Title:       item.Title,
		Description: desc,
		Status:      status,
		Priority:    m.Priority,
		Owner:       owner,
		CreatedAt:   m.Created,
		UpdatedAt:   updated,
	}
}

// metaFromAPI builds metadata for tasks created outside taskflow.
func metaFromAPI(item *tasks.Task) meta {
	created, _ := time.Parse(time.RFC3339, item.Updated)
	return meta{Priority: service.PriorityMedium, Status: service.StatusTodo, Created: created}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return service.Transport(op, fmt.Errorf("request timed out"))
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return service.Auth(op, fmt.Errorf("token expired or revoked (run: taskflow login)"))
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return service.Auth(op, fmt.Errorf("token expired or revoked (run: taskflow login)"))
		case http.StatusNotFound:
			return &service.Failure{Kind: service.NotFoundFailure, Op: op, Err: fmt.Errorf("not found")}
		case http.StatusBadRequest:
			return service.Validation(op, errors.New(strings.TrimSpace(gerr.Message)))
		}
	}
	return service.Classify(op, err)
}

var _ service.Store = (*Client)(nil)
