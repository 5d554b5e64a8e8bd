// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskflow/internal/service"
)

const (
	// ListSeparator is the separator line for sections.
	ListSeparator = "------------"

	// TimeLayout is the timestamp layout used in listings.
	TimeLayout = "2006-01-02 15:04"
)

// StatusIcon returns the checkbox shown for a status.
func StatusIcon(s service.Status) string {
	switch s {
	case service.StatusInProgress:
		return "[~]"
	case service.StatusDone:
		return "[x]"
	default:
		return "[ ]"
	}
}

// FormatTask formats a task line for the list command.
// Format: "{N:>4}  {ICON} {PRIORITY:<6}  {TITLE}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	title := normalizeTitle(task.Title)
	fmt.Fprintf(w, "%4d  %s %-6s  %s\n", num, StatusIcon(task.Status), task.Priority, title)
}

// FormatTaskDetail formats a task with its description, id and creation time,
// indented under the task line.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "                    %s\n", strings.TrimRight(line, "\r"))
		}
	}
	fmt.Fprintf(w, "                    id %s, created %s\n", task.ID, task.CreatedAt.Local().Format(TimeLayout))
}

// FormatSummary prints the per-status counts.
func FormatSummary(w io.Writer, tasks []service.Task) {
	counts := make(map[service.Status]int, len(service.Statuses))
	for _, t := range tasks {
		counts[t.Status]++
	}
	parts := make([]string, 0, len(service.Statuses))
	for _, s := range service.Statuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], strings.ToLower(s.Label())))
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%d tasks: %s\n", len(tasks), strings.Join(parts, ", "))
}

// FormatProfile formats the profile for the profile and whoami commands.
func FormatProfile(w io.Writer, p service.Profile) {
	name := p.FullName
	if strings.TrimSpace(name) == "" {
		name = "(no name)"
	}
	fmt.Fprintf(w, "[%s] %s\n", p.Initials(), name)
	if p.Email != "" {
		fmt.Fprintf(w, "email:  %s\n", p.Email)
	}
	if p.AvatarURL != "" {
		fmt.Fprintf(w, "avatar: %s\n", p.AvatarURL)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
