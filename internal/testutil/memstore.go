package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

// MemStore is an in-memory service.Store and service.ProfileStore.
// Rows are scoped by owner the way a hosted store's access policy would.
type MemStore struct {
	mu       sync.Mutex
	rows     []service.Task
	profiles map[string]service.Profile
	objects  map[string][]byte
	nextID   int
	clock    time.Time

	Calls int // total store calls

	// Error injection for testing
	SelectErr error
	InsertErr error
	UpdateErr error
	DeleteErr error
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		profiles: make(map[string]service.Profile),
		objects:  make(map[string][]byte),
		clock:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Object returns an uploaded object by path.
func (m *MemStore) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[path]
	return b, ok
}

// SelectTasks implements service.Store.
func (m *MemStore) SelectTasks(ctx context.Context, sess *session.Session) ([]service.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.SelectErr != nil {
		return nil, m.SelectErr
	}
	var out []service.Task
	for _, t := range m.rows {
		if t.Owner == sess.UserID {
			out = append(out, t)
		}
	}
	service.SortTasks(out)
	return out, nil
}

// InsertTask implements service.Store.
func (m *MemStore) InsertTask(ctx context.Context, sess *session.Session, t service.NewTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	m.rows = append(m.rows, service.Task{
		ID:          fmt.Sprintf("row-%d", m.nextID),
		Title:       t.Title,
		Description: t.Description,
		Status:      service.StatusTodo,
		Priority:    t.Priority,
		Owner:       sess.UserID,
		CreatedAt:   m.clock,
		UpdatedAt:   m.clock,
	})
	return nil
}

// UpdateTaskStatus implements service.Store.
func (m *MemStore) UpdateTaskStatus(ctx context.Context, sess *session.Session, id string, status service.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i, t := range m.rows {
		if t.ID == id && t.Owner == sess.UserID {
			m.rows[i].Status = status
			m.rows[i].UpdatedAt = m.clock.Add(time.Second)
			return nil
		}
	}
	return service.NotFound("update status", id)
}

// DeleteTask implements service.Store.
func (m *MemStore) DeleteTask(ctx context.Context, sess *session.Session, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for i, t := range m.rows {
		if t.ID == id && t.Owner == sess.UserID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return service.NotFound("delete", id)
}

// SelectProfile implements service.ProfileStore.
func (m *MemStore) SelectProfile(ctx context.Context, sess *session.Session) (service.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.profiles[sess.UserID], nil
}

// UpsertProfile implements service.ProfileStore.
func (m *MemStore) UpsertProfile(ctx context.Context, sess *session.Session, p service.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	p.ID = sess.UserID
	m.profiles[sess.UserID] = p
	return nil
}

// UploadAvatar implements service.ProfileStore.
func (m *MemStore) UploadAvatar(ctx context.Context, sess *session.Session, path string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.objects[path] = buf.Bytes()
	return "mem://avatars/" + path, nil
}

// TaskOnlyStore hides the ProfileStore methods of a store.
type TaskOnlyStore struct{ service.Store }

var (
	_ service.Store        = (*MemStore)(nil)
	_ service.ProfileStore = (*MemStore)(nil)
)
