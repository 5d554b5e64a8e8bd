// Package tui is the interactive terminal dashboard. It renders the
// dashboard controller's state and forwards key presses to it.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/dashboard"
	"taskflow/internal/service"
)

// stateMsg carries the state returned by a controller action.
type stateMsg struct {
	state dashboard.State
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	run  func(func(context.Context) dashboard.State) tea.Cmd
	ctrl *dashboard.Controller
	rec  *dashboard.Recorder

	state  dashboard.State
	form   TaskForm
	cursor int
	width  int

	toast    dashboard.Notification
	hasToast bool
	seen     int
}

// New creates a dashboard model whose controller actions run under ctx.
// rec must be among the controller's notifiers; its latest notification is
// shown as a toast.
func New(ctx context.Context, ctrl *dashboard.Controller, rec *dashboard.Recorder) Model {
	run := func(fn func(context.Context) dashboard.State) tea.Cmd {
		return func() tea.Msg { return stateMsg{state: fn(ctx)} }
	}
	return Model{run: run, ctrl: ctrl, rec: rec, state: ctrl.State()}
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, ctrl *dashboard.Controller, rec *dashboard.Recorder) error {
	p := tea.NewProgram(New(ctx, ctrl, rec), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.do(func(ctx context.Context) dashboard.State { return m.ctrl.Mount(ctx) })
}

// do runs a controller action off the update loop.
func (m Model) do(fn func(ctx context.Context) dashboard.State) tea.Cmd {
	return m.run(fn)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.apply(msg.state)
		return m, nil

	case FormSubmittedMsg:
		d := msg.Draft
		return m, m.do(func(ctx context.Context) dashboard.State {
			s, _ := m.ctrl.Submit(ctx, d)
			return s
		})

	case FormCancelledMsg:
		m.apply(m.ctrl.CancelForm())
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.form.IsOpen() {
			cmd := m.form.Update(msg)
			if m.form.IsOpen() {
				m.state = m.ctrl.SetDraft(m.form.Draft())
			}
			return m, cmd
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "a", "n":
		m.apply(m.ctrl.ToggleForm())
	case "down", "j":
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		return m, m.do(m.ctrl.Refresh)
	case "t":
		return m, m.setStatus(service.StatusTodo)
	case "p":
		return m, m.setStatus(service.StatusInProgress)
	case "d":
		return m, m.setStatus(service.StatusDone)
	case "x", "delete":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.do(func(ctx context.Context) dashboard.State {
			s, _ := m.ctrl.Remove(ctx, task.ID)
			return s
		})
	}
	return m, nil
}

func (m Model) setStatus(status service.Status) tea.Cmd {
	task, ok := m.selected()
	if !ok {
		return nil
	}
	return m.do(func(ctx context.Context) dashboard.State {
		s, _ := m.ctrl.SetStatus(ctx, task.ID, status)
		return s
	})
}

func (m Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return service.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

// apply adopts a controller snapshot. The form keeps what the user typed
// unless it is being opened.
func (m *Model) apply(s dashboard.State) {
	m.state = s
	switch {
	case s.FormOpen() && !m.form.IsOpen():
		m.form.Open()
		m.form.SetDraft(s.Draft)
	case !s.FormOpen():
		m.form.Close()
	}

	if m.cursor >= len(s.Tasks) {
		m.cursor = len(s.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	if m.rec != nil {
		if all := m.rec.All(); len(all) > m.seen {
			m.seen = len(all)
			m.toast = all[len(all)-1]
			m.hasToast = true
		}
	}
}

// State returns the last controller snapshot the model rendered.
func (m Model) State() dashboard.State { return m.state }

// Cursor returns the selected row.
func (m Model) Cursor() int { return m.cursor }

// Form returns the create form.
func (m Model) Form() TaskForm { return m.form }

// Toast returns the notification currently shown.
func (m Model) Toast() (dashboard.Notification, bool) { return m.toast, m.hasToast }

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TaskFlow"))
	if m.state.Loaded {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d tasks", len(m.state.Tasks))))
	}
	if m.state.Phase == dashboard.PhaseLoading {
		b.WriteString(dimStyle.Render("  loading..."))
	}
	b.WriteString("\n\n")

	switch {
	case !m.state.Loaded && m.state.Phase == dashboard.PhaseLoading:
		b.WriteString(dimStyle.Render("  Loading tasks...") + "\n")
	case len(m.state.Tasks) == 0:
		b.WriteString(dimStyle.Render("  No tasks yet. Press a to create one.") + "\n")
	default:
		for i, t := range m.state.Tasks {
			b.WriteString(m.renderRow(i, t) + "\n")
		}
	}

	if m.form.IsOpen() {
		b.WriteString("\n" + m.form.View() + "\n")
	}

	b.WriteString("\n" + m.renderToast() + "\n")
	if m.form.IsOpen() {
		b.WriteString(dimStyle.Render("tab next field  ←/→ priority  enter create  esc cancel"))
	} else {
		b.WriteString(dimStyle.Render("a add  j/k move  t todo  p in progress  d done  x delete  r refresh  q quit"))
	}
	return b.String()
}

func (m Model) renderRow(i int, t service.Task) string {
	cursor := "  "
	title := t.Title
	if t.Status == service.StatusDone {
		title = doneStyle.Render(title)
	}
	if i == m.cursor {
		cursor = focusStyle.Render("> ")
		if t.Status != service.StatusDone {
			title = selectStyle.Render(title)
		}
	}
	row := fmt.Sprintf("%s%s %s  %s %s", cursor, statusIcon(t.Status), title,
		priorityBadge(t.Priority), dimStyle.Render(t.Status.Label()))
	if desc := strings.TrimSpace(t.Description); desc != "" && i == m.cursor {
		row += "\n      " + dimStyle.Render(truncate(desc, 60))
	}
	return row
}

func (m Model) renderToast() string {
	if !m.hasToast {
		return ""
	}
	if m.toast.Level == dashboard.LevelError {
		if m.toast.Err != nil {
			return errStyle.Render(fmt.Sprintf("✗ %s: %v", m.toast.Message, m.toast.Err))
		}
		return errStyle.Render("✗ " + m.toast.Message)
	}
	return okStyle.Render("✓ " + m.toast.Message)
}
