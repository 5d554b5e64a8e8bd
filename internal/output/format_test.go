package output

import (
	"bytes"
	"testing"
	"time"

	"taskflow/internal/service"
)

func TestFormatTask(t *testing.T) {
	tests := []struct {
		name string
		task service.Task
		want string
	}{
		{"todo", service.Task{Title: "Buy milk", Priority: service.PriorityMedium}, "   3  [ ] medium  Buy milk\n"},
		{"in progress", service.Task{Title: "Report", Status: service.StatusInProgress, Priority: service.PriorityHigh}, "   3  [~] high    Report\n"},
		{"done", service.Task{Title: "Call", Status: service.StatusDone, Priority: service.PriorityLow}, "   3  [x] low     Call\n"},
		{"newlines", service.Task{Title: "a\nb", Priority: service.PriorityLow}, "   3  [ ] low     a b\n"},
		{"blank", service.Task{Title: "  ", Priority: service.PriorityLow}, "   3  [ ] low     (untitled)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatTask(&buf, 3, tt.task)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatTaskDetail(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	FormatTaskDetail(&buf, 1, service.Task{ID: "t1", Title: "Buy milk", Description: "two litres", Priority: service.PriorityMedium, CreatedAt: created})

	want := "   1  [ ] medium  Buy milk\n" +
		"                    two litres\n" +
		"                    id t1, created 2026-03-01 09:30\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatSummary(&buf, []service.Task{
		{Status: service.StatusTodo},
		{Status: service.StatusDone},
		{Status: service.StatusDone},
	})
	want := ListSeparator + "\n3 tasks: 1 to do, 0 in progress, 2 done\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatProfile(t *testing.T) {
	var buf bytes.Buffer
	FormatProfile(&buf, service.Profile{FullName: "Ada Lovelace", Email: "ada@example.com", AvatarURL: "https://x/a.png"})
	want := "[AL] Ada Lovelace\nemail:  ada@example.com\navatar: https://x/a.png\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
