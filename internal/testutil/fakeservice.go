// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"taskflow/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// Tasks are kept in creation order; List returns them newest first.
type FakeService struct {
	mu      sync.RWMutex
	tasks   []service.Task
	profile service.Profile
	nextID  int
	clock   time.Time

	// Call counts, for asserting that validation happens before the store.
	ListCalls   int
	CreateCalls int
	UpdateCalls int
	DeleteCalls int

	// Error injection for testing
	ListErr    error
	CreateErr  error
	UpdateErr  error
	DeleteErr  error
	ProfileErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		clock:   time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		profile: service.Profile{ID: "user-1", Email: "test@example.com"},
	}
}

// AddTask adds a task with the given id and title, status todo and
// priority medium, created one minute after the previous one.
func (f *FakeService) AddTask(id, title string) service.Task {
	return f.AddTaskWith(service.Task{ID: id, Title: title})
}

// AddTaskWith adds a fully specified task. Zero status, priority and
// timestamps are filled in.
func (f *FakeService) AddTaskWith(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	if t.Status == 0 {
		t.Status = service.StatusTodo
	}
	if t.Priority == 0 {
		t.Priority = service.PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.clock
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Owner == "" {
		t.Owner = f.profile.ID
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Task returns the stored task with the given id.
func (f *FakeService) Task(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Len returns the number of stored tasks.
func (f *FakeService) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.ListCalls++
	f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	service.SortTasks(result)
	return result, nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, d service.Draft) error {
	f.mu.Lock()
	f.CreateCalls++
	f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("task-%d", f.nextID)
	f.mu.Unlock()
	f.AddTaskWith(service.Task{ID: id, Title: d.Title, Description: d.Description, Priority: d.Priority})
	return nil
}

// UpdateStatus implements service.Service.
func (f *FakeService) UpdateStatus(ctx context.Context, id string, status service.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Status = status
			f.tasks[i].UpdatedAt = f.clock.Add(time.Second)
			return nil
		}
	}
	return service.NotFound("update status", id)
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.NotFound("delete", id)
}

// Profile implements service.Service.
func (f *FakeService) Profile(ctx context.Context) (service.Profile, error) {
	if f.ProfileErr != nil {
		return service.Profile{}, f.ProfileErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.profile, nil
}

// UpdateProfile implements service.Service.
func (f *FakeService) UpdateProfile(ctx context.Context, fullName string) (service.Profile, error) {
	if f.ProfileErr != nil {
		return service.Profile{}, f.ProfileErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile.FullName = strings.TrimSpace(fullName)
	return f.profile, nil
}

// UploadAvatar implements service.Service.
func (f *FakeService) UploadAvatar(ctx context.Context, filename string, r io.Reader) (service.Profile, error) {
	if f.ProfileErr != nil {
		return service.Profile{}, f.ProfileErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return service.Profile{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile.AvatarURL = "https://example.test/avatars/" + f.profile.ID + "/" + filename
	return f.profile, nil
}

var _ service.Service = (*FakeService)(nil)
