package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskflow/internal/service"
)

// Notification messages.
const (
	MsgFetchFailed   = "Failed to fetch tasks"
	MsgCreated       = "Task created!"
	MsgCreateFailed  = "Failed to create task"
	MsgUpdated       = "Task updated!"
	MsgUpdateFailed  = "Failed to update task"
	MsgDeleted       = "Task deleted!"
	MsgDeleteFailed  = "Failed to delete task"
	MsgTitleRequired = "Title is required"
)

var errTitleRequired = errors.New("title required")

// Controller orchestrates user actions against a task repository.
//
// Calls do not coordinate with each other. When two actions overlap, the
// list that completes last wins, even if it was started first.
type Controller struct {
	svc    service.Service
	notify Notifier

	mu    sync.Mutex
	state State
}

// NewController creates a controller in the Loading phase.
func NewController(svc service.Service, notify Notifier) *Controller {
	if notify == nil {
		notify = NotifierFunc(func(Notification) {})
	}
	return &Controller{
		svc:    svc,
		notify: notify,
		state:  State{Phase: PhaseLoading, Draft: service.NewDraft()},
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Mount performs the initial list. A failed list still ends in Ready, with
// no tasks, and one notification.
func (c *Controller) Mount(ctx context.Context) State {
	return c.Refresh(ctx)
}

// Refresh replaces the task list with a fresh snapshot from the store.
// On failure the previous tasks are kept.
func (c *Controller) Refresh(ctx context.Context) State {
	c.mu.Lock()
	if c.state.Phase != PhaseFormOpen {
		c.state.Phase = PhaseLoading
	}
	c.mu.Unlock()

	tasks, err := c.svc.List(ctx)

	c.mu.Lock()
	if err != nil {
		c.state.Err = err
	} else {
		c.state.Tasks = tasks
		c.state.Err = nil
		c.state.Loaded = true
	}
	if c.state.Phase == PhaseLoading {
		c.state.Phase = PhaseReady
	}
	snapshot := c.state.clone()
	c.mu.Unlock()

	if err != nil {
		c.notify.Notify(Notification{Level: LevelError, Message: MsgFetchFailed, Err: err})
	}
	return snapshot
}

// ToggleForm opens the form with a fresh draft, or closes it.
func (c *Controller) ToggleForm() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseFormOpen {
		c.state.Phase = PhaseReady
	} else {
		c.state.Phase = PhaseFormOpen
	}
	c.state.Draft = service.NewDraft()
	return c.state.clone()
}

// ShowForm opens the form with a fresh draft.
func (c *Controller) ShowForm() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Phase = PhaseFormOpen
	c.state.Draft = service.NewDraft()
	return c.state.clone()
}

// CancelForm closes the form and discards the draft.
func (c *Controller) CancelForm() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseFormOpen {
		c.state.Phase = PhaseReady
	}
	c.state.Draft = service.NewDraft()
	return c.state.clone()
}

// SetDraft replaces the open form's draft. Ignored when the form is closed.
func (c *Controller) SetDraft(d service.Draft) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseFormOpen {
		c.state.Draft = d
	}
	return c.state.clone()
}

// Submit creates a task from the draft. A blank title is rejected without
// calling the repository. On failure the form stays open with the draft
// preserved.
func (c *Controller) Submit(ctx context.Context, d service.Draft) (State, error) {
	c.mu.Lock()
	c.state.Phase = PhaseFormOpen
	c.state.Draft = d
	c.mu.Unlock()

	if strings.TrimSpace(d.Title) == "" {
		err := service.Validation("submit", errTitleRequired)
		c.fail(MsgTitleRequired, nil, err)
		return c.State(), err
	}

	if err := c.svc.Create(ctx, d); err != nil {
		c.fail(MsgCreateFailed, err, err)
		return c.State(), err
	}

	c.mu.Lock()
	c.state.Phase = PhaseReady
	c.state.Draft = service.NewDraft()
	c.mu.Unlock()
	c.notify.Notify(Notification{Level: LevelSuccess, Message: MsgCreated})

	return c.Refresh(ctx), nil
}

// SetStatus updates a task's status and re-lists whatever the outcome.
func (c *Controller) SetStatus(ctx context.Context, id string, status service.Status) (State, error) {
	err := c.svc.UpdateStatus(ctx, id, status)
	if err != nil {
		c.fail(MsgUpdateFailed, err, err)
	} else {
		c.notify.Notify(Notification{Level: LevelSuccess, Message: MsgUpdated})
	}
	return c.Refresh(ctx), err
}

// Remove deletes a task and re-lists whatever the outcome.
func (c *Controller) Remove(ctx context.Context, id string) (State, error) {
	err := c.svc.Delete(ctx, id)
	if err != nil {
		c.fail(MsgDeleteFailed, err, err)
	} else {
		c.notify.Notify(Notification{Level: LevelSuccess, Message: MsgDeleted})
	}
	return c.Refresh(ctx), err
}

func (c *Controller) fail(msg string, cause, err error) {
	c.mu.Lock()
	c.state.Err = err
	c.mu.Unlock()
	c.notify.Notify(Notification{Level: LevelError, Message: msg, Err: cause})
}
