// Package repository implements service.Service on top of a service.Store.
//
// The repository performs no caching: every List goes to the store, and
// callers are expected to re-list after each successful mutation.
package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/telemetry"
)

// Repository wraps a store with session checks, error classification,
// logging and telemetry.
type Repository struct {
	store   service.Store
	sess    *session.Session
	backend string
	log     *slog.Logger
	tracer  trace.Tracer
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithTelemetry sets the tracer and meter.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(r *Repository) {
		r.tracer = p.Tracer
		r.calls, _ = p.Meter.Int64Counter("taskflow.store.calls",
			metric.WithDescription("Store calls by operation and outcome"))
		r.latency, _ = p.Meter.Float64Histogram("taskflow.store.duration",
			metric.WithDescription("Store call duration"), metric.WithUnit("ms"))
	}
}

// WithBackend names the backend in spans and logs.
func WithBackend(name string) Option {
	return func(r *Repository) { r.backend = name }
}

// New creates a repository for the given session. sess may be nil, in which
// case every call fails with an AuthFailure.
func New(store service.Store, sess *session.Session, opts ...Option) *Repository {
	r := &Repository{store: store, sess: sess, log: telemetry.Discard()}
	WithTelemetry(telemetry.Noop())(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session returns the session the repository runs under.
func (r *Repository) Session() *session.Session { return r.sess }

// List implements service.Service.
func (r *Repository) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	err := r.call(ctx, "list", nil, func(ctx context.Context) error {
		var err error
		tasks, err = r.store.SelectTasks(ctx, r.sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	service.SortTasks(tasks)
	r.log.Debug("listed tasks", "count", len(tasks))
	return tasks, nil
}

// Create implements service.Service.
func (r *Repository) Create(ctx context.Context, d service.Draft) error {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}
	return r.call(ctx, "create", nil, func(ctx context.Context) error {
		return r.store.InsertTask(ctx, r.sess, service.NewTask{
			Title:       d.Title,
			Description: d.Description,
			Priority:    d.Priority,
			Owner:       r.sess.UserID,
		})
	})
}

// UpdateStatus implements service.Service.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status service.Status) error {
	if !status.Valid() {
		return service.Validation("update status", fmt.Errorf("invalid status: %d", int(status)))
	}
	attrs := []attribute.KeyValue{telemetry.AttrTaskID.String(id), telemetry.AttrStatus.String(status.String())}
	return r.call(ctx, "update_status", attrs, func(ctx context.Context) error {
		return r.store.UpdateTaskStatus(ctx, r.sess, id, status)
	})
}

// Delete implements service.Service.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.call(ctx, "delete", []attribute.KeyValue{telemetry.AttrTaskID.String(id)}, func(ctx context.Context) error {
		return r.store.DeleteTask(ctx, r.sess, id)
	})
}

// Profile implements service.Service.
func (r *Repository) Profile(ctx context.Context) (service.Profile, error) {
	ps, ok := r.store.(service.ProfileStore)
	if !ok {
		return service.Profile{}, service.Unsupported("profile")
	}
	var p service.Profile
	err := r.call(ctx, "profile", nil, func(ctx context.Context) error {
		var err error
		p, err = ps.SelectProfile(ctx, r.sess)
		return err
	})
	if err != nil {
		return service.Profile{}, err
	}
	if p.ID == "" {
		p.ID = r.sess.UserID
	}
	if p.Email == "" {
		p.Email = r.sess.Email
	}
	return p, nil
}

// UpdateProfile implements service.Service.
func (r *Repository) UpdateProfile(ctx context.Context, fullName string) (service.Profile, error) {
	p, err := r.Profile(ctx)
	if err != nil {
		return service.Profile{}, err
	}
	p.FullName = strings.TrimSpace(fullName)
	return r.upsertProfile(ctx, p)
}

// UploadAvatar implements service.Service. Avatars are stored under
// "<user id>/<random>.<ext>".
func (r *Repository) UploadAvatar(ctx context.Context, filename string, body io.Reader) (service.Profile, error) {
	ps, ok := r.store.(service.ProfileStore)
	if !ok {
		return service.Profile{}, service.Unsupported("upload avatar")
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		return service.Profile{}, service.Validation("upload avatar", fmt.Errorf("avatar file needs an extension: %s", filename))
	}
	p, err := r.Profile(ctx)
	if err != nil {
		return service.Profile{}, err
	}

	objectPath := fmt.Sprintf("%s/%s.%s", r.sess.UserID, uuid.NewString(), ext)
	err = r.call(ctx, "upload_avatar", nil, func(ctx context.Context) error {
		url, err := ps.UploadAvatar(ctx, r.sess, objectPath, body)
		if err != nil {
			return err
		}
		p.AvatarURL = url
		return nil
	})
	if err != nil {
		return service.Profile{}, err
	}
	return r.upsertProfile(ctx, p)
}

func (r *Repository) upsertProfile(ctx context.Context, p service.Profile) (service.Profile, error) {
	ps, ok := r.store.(service.ProfileStore)
	if !ok {
		return service.Profile{}, service.Unsupported("update profile")
	}
	p.UpdatedAt = time.Now().UTC()
	err := r.call(ctx, "upsert_profile", nil, func(ctx context.Context) error {
		return ps.UpsertProfile(ctx, r.sess, p)
	})
	if err != nil {
		return service.Profile{}, err
	}
	return p, nil
}

// call runs one store operation inside a span, records metrics, and
// classifies the error.
func (r *Repository) call(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	if !r.sess.Valid() {
		return service.Auth(op, session.ErrNoSession)
	}

	attrs = append(attrs, telemetry.AttrBackend.String(r.backend))
	ctx, span := telemetry.StartClientSpan(ctx, r.tracer, "store."+op, attrs...)
	defer span.End()

	start := time.Now()
	err := service.Classify(op, fn(ctx))
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	outcome := "ok"
	if err != nil {
		outcome = service.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		r.log.Warn("store call failed", "op", op, "backend", r.backend, "kind", outcome, "error", err)
	} else {
		r.log.Debug("store call", "op", op, "backend", r.backend, "ms", elapsed)
	}

	metricAttrs := metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome))
	r.calls.Add(ctx, 1, metricAttrs)
	r.latency.Record(ctx, elapsed, metricAttrs)
	return err
}

var _ service.Service = (*Repository)(nil)
