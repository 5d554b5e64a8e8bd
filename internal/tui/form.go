package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/service"
)

// Form fields, in focus order.
const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldSubmit
	formFieldCount
)

// TaskForm is the new-task form. It only collects input; the controller
// decides whether a draft is acceptable.
type TaskForm struct {
	open        bool
	focusIndex  int
	title       string
	description string
	priority    int // index into service.Priorities
}

// FormSubmittedMsg carries the draft entered in the form.
type FormSubmittedMsg struct {
	Draft service.Draft
}

// FormCancelledMsg is sent when the form is dismissed with esc.
type FormCancelledMsg struct{}

// Open resets the form to a fresh draft.
func (f *TaskForm) Open() {
	*f = TaskForm{open: true, priority: priorityIndex(service.PriorityMedium)}
}

// Close hides the form. The entered values are kept until the next Open.
func (f *TaskForm) Close() { f.open = false }

// IsOpen reports whether the form is shown.
func (f TaskForm) IsOpen() bool { return f.open }

// Draft returns the form's current values.
func (f TaskForm) Draft() service.Draft {
	return service.Draft{
		Title:       f.title,
		Description: f.description,
		Priority:    service.Priorities[f.priority],
	}
}

// SetDraft loads a draft into the form, keeping focus.
func (f *TaskForm) SetDraft(d service.Draft) {
	f.title = d.Title
	f.description = d.Description
	if d.Priority.Valid() {
		f.priority = priorityIndex(d.Priority)
	}
}

// Update handles a key while the form is open.
func (f *TaskForm) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		f.Close()
		return func() tea.Msg { return FormCancelledMsg{} }
	case "tab", "down":
		f.focusIndex = (f.focusIndex + 1) % formFieldCount
		return nil
	case "shift+tab", "up":
		f.focusIndex = (f.focusIndex + formFieldCount - 1) % formFieldCount
		return nil
	case "left", "right":
		if f.focusIndex == fieldPriority {
			n := len(service.Priorities)
			if msg.String() == "left" {
				f.priority = (f.priority - 1 + n) % n
			} else {
				f.priority = (f.priority + 1) % n
			}
		}
		return nil
	case "enter":
		if f.focusIndex == fieldTitle || f.focusIndex == fieldSubmit {
			d := f.Draft()
			return func() tea.Msg { return FormSubmittedMsg{Draft: d} }
		}
		f.focusIndex = (f.focusIndex + 1) % formFieldCount
		return nil
	case "backspace":
		switch f.focusIndex {
		case fieldTitle:
			f.title = dropLastRune(f.title)
		case fieldDescription:
			f.description = dropLastRune(f.description)
		}
		return nil
	}

	if msg.Type != tea.KeyRunes && msg.Type != tea.KeySpace {
		return nil
	}
	text := string(msg.Runes)
	if msg.Type == tea.KeySpace {
		text = " "
	}
	switch f.focusIndex {
	case fieldTitle:
		f.title += text
	case fieldDescription:
		f.description += text
	}
	return nil
}

// View renders the form.
func (f TaskForm) View() string {
	if !f.open {
		return ""
	}

	mk := func(idx int) string {
		if f.focusIndex == idx {
			return focusStyle.Render("▸ ")
		}
		return "  "
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("New Task") + "\n\n")
	b.WriteString(mk(fieldTitle) + "Title:       [ " + f.title + " ]\n")
	b.WriteString(mk(fieldDescription) + "Description: [ " + truncate(f.description, 40) + " ]\n")
	b.WriteString(mk(fieldPriority) + "Priority:    [ ◀ " + priorityBadge(service.Priorities[f.priority]) + " ▶ ]\n\n")
	btn := "[ Create ]"
	if f.focusIndex == fieldSubmit {
		btn = focusStyle.Render(btn)
	}
	b.WriteString("  " + btn + dimStyle.Render("  (Esc to cancel)"))

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).Padding(1, 2).Width(64).Render(b.String())
}

func priorityIndex(p service.Priority) int {
	for i, x := range service.Priorities {
		if x == p {
			return i
		}
	}
	return 0
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
