// Package sqlstore implements service.Store on database/sql, for SQLite
// files and MySQL servers.
//
// Row ownership is enforced in every query: a session only ever sees,
// updates or deletes rows whose owner column matches its user id.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskflow/internal/service"
	"taskflow/internal/session"
)

// Drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Store is a SQL-backed task store.
type Store struct {
	db        *sql.DB
	driver    string
	avatarDir string
	now       func() time.Time
}

// OpenSQLite opens (and creates) a SQLite database file. path ":memory:"
// opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := "file::memory:?_busy_timeout=5000"
	avatarDir := ""
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", path)
		avatarDir = filepath.Join(filepath.Dir(path), "avatars")
	}
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return open(ctx, db, DriverSQLite, avatarDir)
}

// OpenMySQL connects to a MySQL server. parseTime is forced on so
// timestamps scan into time.Time.
func OpenMySQL(ctx context.Context, dsn, avatarDir string) (*Store, error) {
	if !strings.Contains(dsn, "parseTime=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}
	db, err := sql.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, service.Transport("connect", err)
	}
	return open(ctx, db, DriverMySQL, avatarDir)
}

func open(ctx context.Context, db *sql.DB, driver, avatarDir string) (*Store, error) {
	s := &Store{db: db, driver: driver, avatarDir: avatarDir, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	var stmts []string
	switch s.driver {
	case DriverMySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS tasks (
    id CHAR(36) PRIMARY KEY,
    owner_id VARCHAR(64) NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'todo',
    priority VARCHAR(20) NOT NULL DEFAULT 'medium',
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    INDEX idx_tasks_owner_created (owner_id, created_at)
)`,
			`CREATE TABLE IF NOT EXISTS profiles (
    id VARCHAR(64) PRIMARY KEY,
    email VARCHAR(320),
    full_name VARCHAR(200),
    avatar_url TEXT,
    updated_at DATETIME(6) NOT NULL
)`,
		}
	default:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL CHECK (length(trim(title)) > 0),
    description TEXT,
    status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in_progress', 'done')),
    priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks(owner_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    email TEXT,
    full_name TEXT,
    avatar_url TEXT,
    updated_at DATETIME NOT NULL
)`,
		}
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SelectTasks implements service.Store.
func (s *Store) SelectTasks(ctx context.Context, sess *session.Session) ([]service.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, COALESCE(description, ''), status, priority, created_at, updated_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC, id ASC`, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var out []service.Task
	for rows.Next() {
		var (
			t                service.Task
			status, priority string
		)
		if err := rows.Scan(&t.ID, &t.Owner, &t.Title, &t.Description, &status, &priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Status, err = service.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.Priority, err = service.ParsePriority(priority); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return out, nil
}

// InsertTask implements service.Store.
func (s *Store) InsertTask(ctx context.Context, sess *session.Session, t service.NewTask) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), sess.UserID, t.Title, nullString(t.Description),
		service.StatusTodo.String(), t.Priority.String(), now, now)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// UpdateTaskStatus implements service.Store.
func (s *Store) UpdateTaskStatus(ctx context.Context, sess *session.Session, id string, status service.Status) error {
	// MySQL reports zero affected rows when the value is unchanged, so the
	// row's existence is checked separately.
	return s.withOwnedRow(ctx, sess, "update status", id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
			status.String(), s.now(), id, sess.UserID)
		return err
	})
}

// DeleteTask implements service.Store.
func (s *Store) DeleteTask(ctx context.Context, sess *session.Session, id string) error {
	return s.withOwnedRow(ctx, sess, "delete", id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, sess.UserID)
		return err
	})
}

func (s *Store) withOwnedRow(ctx context.Context, sess *session.Session, op, id string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM tasks WHERE id = ? AND owner_id = ?`, id, sess.UserID).Scan(&n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return service.NotFound(op, id)
	}
	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return tx.Commit()
}

// SelectProfile implements service.ProfileStore.
func (s *Store) SelectProfile(ctx context.Context, sess *session.Session) (service.Profile, error) {
	var p service.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(avatar_url, ''), updated_at
		FROM profiles WHERE id = ?`, sess.UserID).
		Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return service.Profile{ID: sess.UserID, Email: sess.Email}, nil
	}
	if err != nil {
		return service.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// UpsertProfile implements service.ProfileStore.
func (s *Store) UpsertProfile(ctx context.Context, sess *session.Session, p service.Profile) error {
	query := `INSERT INTO profiles (id, email, full_name, avatar_url, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, full_name = excluded.full_name,
		avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`
	if s.driver == DriverMySQL {
		query = `INSERT INTO profiles (id, email, full_name, avatar_url, updated_at) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE email = VALUES(email), full_name = VALUES(full_name),
		avatar_url = VALUES(avatar_url), updated_at = VALUES(updated_at)`
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	if _, err := s.db.ExecContext(ctx, query, sess.UserID, nullString(p.Email), nullString(p.FullName), nullString(p.AvatarURL), updated); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// UploadAvatar implements service.ProfileStore by writing the object under
// the avatars directory next to the database. The returned URL is a file URL.
func (s *Store) UploadAvatar(ctx context.Context, sess *session.Session, objectPath string, r io.Reader) (string, error) {
	if s.avatarDir == "" {
		return "", service.Unsupported("upload avatar")
	}
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", service.Validation("upload avatar", fmt.Errorf("invalid object path: %s", objectPath))
	}
	dest := filepath.Join(s.avatarDir, clean)
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return "", err
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(dest), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	_ service.Store        = (*Store)(nil)
	_ service.ProfileStore = (*Store)(nil)
)
