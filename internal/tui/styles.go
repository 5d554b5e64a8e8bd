package tui

import (
	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/service"
)

var (
	accent = lipgloss.Color("62")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	selectStyle  = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	progressIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("◐")
	doneIcon     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	todoIcon     = dimStyle.Render("○")
)

func priorityBadge(p service.Priority) string {
	switch p {
	case service.PriorityHigh:
		return highStyle.Render("high")
	case service.PriorityLow:
		return lowStyle.Render("low")
	default:
		return mediumStyle.Render("medium")
	}
}

func statusIcon(s service.Status) string {
	switch s {
	case service.StatusDone:
		return doneIcon
	case service.StatusInProgress:
		return progressIcon
	default:
		return todoIcon
	}
}
