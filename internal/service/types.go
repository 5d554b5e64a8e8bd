// Package service defines the backend-agnostic task model and interfaces.
package service

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status int

// Status values. The zero value is not a valid status.
const (
	StatusTodo Status = iota + 1
	StatusInProgress
	StatusDone
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusInProgress:
		return "in_progress"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return s.String()
	}
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	return s >= StatusTodo && s <= StatusDone
}

// ParseStatus parses a wire or display name (case-insensitive, "-" and " " accepted for "_").
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "todo", "to_do":
		return StatusTodo, nil
	case "in_progress", "inprogress", "doing":
		return StatusInProgress, nil
	case "done", "completed":
		return StatusDone, nil
	}
	return 0, Validation("parse status", fmt.Errorf("invalid status: %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Priority is the importance of a task.
type Priority int

// Priority values. The zero value is not a valid priority.
const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// ParsePriority parses a priority name (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return 0, Validation("parse priority", fmt.Errorf("invalid priority: %q", s))
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority: %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Task represents a single task row.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Owner       string    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SortTasks orders tasks newest first. Ties on CreatedAt are broken by ID
// so repeated lists of the same snapshot render identically.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// Draft holds the fields of a task that has not been submitted yet.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// NewDraft returns an empty draft with the default priority.
func NewDraft() Draft {
	return Draft{Priority: PriorityMedium}
}

// Normalize trims the text fields and fills in the default priority.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Priority == 0 {
		d.Priority = PriorityMedium
	}
	return d
}

// Validate checks the draft before it is sent to a store.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Validation("validate draft", fmt.Errorf("title required"))
	}
	if d.Priority != 0 && !d.Priority.Valid() {
		return Validation("validate draft", fmt.Errorf("invalid priority: %d", int(d.Priority)))
	}
	return nil
}

// NewTask is the row inserted by a store. Owner comes from the session.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	Owner       string
}

// Profile is the user's public profile row.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Initials returns up to two initials for avatar placeholders.
func (p Profile) Initials() string {
	if fields := strings.Fields(p.FullName); len(fields) > 0 {
		var initials []rune
		for _, f := range fields {
			initials = append(initials, []rune(f)[0])
			if len(initials) == 2 {
				break
			}
		}
		return strings.ToUpper(string(initials))
	}
	if p.Email != "" {
		return strings.ToUpper(string([]rune(p.Email)[0]))
	}
	return "U"
}
