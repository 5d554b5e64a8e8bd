package service

import (
	"context"
	"io"

	"taskflow/internal/session"
)

// Service is the task repository as seen by commands, the dashboard
// controller and the API server. Backends never implement it directly;
// repository.Repository wraps a Store.
type Service interface {
	// List returns every task visible to the session, newest first.
	List(ctx context.Context) ([]Task, error)

	// Create inserts a task built from the draft. The new task is not
	// returned; callers re-list to observe it.
	Create(ctx context.Context, d Draft) error

	// UpdateStatus sets a task's status.
	// Returns a NotFoundFailure if the id is missing or not owned by the session.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// Delete removes a task permanently.
	// Deleting a missing id is a NotFoundFailure.
	Delete(ctx context.Context, id string) error

	// Profile returns the session user's profile.
	Profile(ctx context.Context) (Profile, error)

	// UpdateProfile sets the user's full name.
	UpdateProfile(ctx context.Context, fullName string) (Profile, error)

	// UploadAvatar stores an avatar image and points the profile at it.
	UploadAvatar(ctx context.Context, filename string, r io.Reader) (Profile, error)
}

// Store is the remote task table. Access control is the store's job:
// every call runs under the given session and only sees the session's rows.
type Store interface {
	// SelectTasks returns the session's tasks ordered by created_at descending.
	SelectTasks(ctx context.Context, sess *session.Session) ([]Task, error)

	// InsertTask inserts a row with status todo.
	InsertTask(ctx context.Context, sess *session.Session, t NewTask) error

	// UpdateTaskStatus updates the status column by primary key.
	UpdateTaskStatus(ctx context.Context, sess *session.Session, id string, status Status) error

	// DeleteTask deletes by primary key.
	DeleteTask(ctx context.Context, sess *session.Session, id string) error
}

// ProfileStore is implemented by stores that also hold profiles and avatars.
type ProfileStore interface {
	SelectProfile(ctx context.Context, sess *session.Session) (Profile, error)
	UpsertProfile(ctx context.Context, sess *session.Session, p Profile) error
	UploadAvatar(ctx context.Context, sess *session.Session, path string, r io.Reader) (url string, err error)
}
