// Package dashboard holds the task list state and the controller that turns
// user actions into repository calls, full re-lists and notifications.
//
// The controller never patches its list in place. After every mutation,
// successful or not, it re-lists, so the displayed tasks are always a real
// snapshot of the store.
package dashboard

import "taskflow/internal/service"

// Phase is the controller's state machine position.
type Phase int

// Phases.
const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFormOpen
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFormOpen:
		return "form"
	default:
		return "unknown"
	}
}

// State is a snapshot of the dashboard.
type State struct {
	Phase Phase
	Tasks []service.Task

	// Draft is the open form's content. Meaningful only in PhaseFormOpen.
	Draft service.Draft

	// Err is the most recent failure, cleared by the next successful list.
	Err error

	// Loaded reports whether at least one list has completed.
	Loaded bool
}

// FormOpen reports whether the create form is visible.
func (s State) FormOpen() bool { return s.Phase == PhaseFormOpen }

// Empty reports whether a completed list returned no tasks.
func (s State) Empty() bool { return s.Loaded && len(s.Tasks) == 0 }

// Find returns the task with the given id.
func (s State) Find(id string) (service.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// clone copies the task slice so snapshots never alias controller state.
func (s State) clone() State {
	if s.Tasks != nil {
		tasks := make([]service.Task, len(s.Tasks))
		copy(tasks, s.Tasks)
		s.Tasks = tasks
	}
	return s
}
