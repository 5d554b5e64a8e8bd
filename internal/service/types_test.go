package service_test

import (
	"errors"
	"testing"
	"time"

	"taskflow/internal/service"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want service.Status
	}{
		{"todo", service.StatusTodo},
		{"To Do", service.StatusTodo},
		{"to-do", service.StatusTodo},
		{"in_progress", service.StatusInProgress},
		{"In Progress", service.StatusInProgress},
		{"in-progress", service.StatusInProgress},
		{"inprogress", service.StatusInProgress},
		{" DOING ", service.StatusInProgress},
		{"done", service.StatusDone},
		{"Completed", service.StatusDone},
	}
	for _, tt := range tests {
		got, err := service.ParseStatus(tt.in)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "finished", "in progress!", "3"} {
		if _, err := service.ParseStatus(in); !errors.Is(err, service.ErrValidation) {
			t.Errorf("ParseStatus(%q): expected a validation failure, got %v", in, err)
		}
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want service.Priority
	}{
		{"low", service.PriorityLow},
		{"Medium", service.PriorityMedium},
		{" med ", service.PriorityMedium},
		{"HIGH", service.PriorityHigh},
	}
	for _, tt := range tests {
		got, err := service.ParsePriority(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePriority(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}

	for _, in := range []string{"", "urgent", "1"} {
		if _, err := service.ParsePriority(in); !errors.Is(err, service.ErrValidation) {
			t.Errorf("ParsePriority(%q): expected a validation failure, got %v", in, err)
		}
	}
}

func TestMarshalText_RejectsZeroValues(t *testing.T) {
	if _, err := service.Status(0).MarshalText(); err == nil {
		t.Error("expected the zero status to be rejected")
	}
	if _, err := service.Priority(0).MarshalText(); err == nil {
		t.Error("expected the zero priority to be rejected")
	}

	b, err := service.StatusInProgress.MarshalText()
	if err != nil || string(b) != "in_progress" {
		t.Errorf("got %q, %v", b, err)
	}
	var s service.Status
	if err := s.UnmarshalText([]byte("Done")); err != nil || s != service.StatusDone {
		t.Errorf("UnmarshalText: %s, %v", s, err)
	}
	var p service.Priority
	if err := p.UnmarshalText([]byte("urgent")); err == nil {
		t.Error("expected an unknown priority to be rejected")
	}
	if p != 0 {
		t.Errorf("failed unmarshal should leave the value untouched, got %s", p)
	}
}

func TestStatusLabels(t *testing.T) {
	want := map[service.Status]string{
		service.StatusTodo:       "To Do",
		service.StatusInProgress: "In Progress",
		service.StatusDone:       "Done",
		service.Status(9):        "Status(9)",
	}
	for s, label := range want {
		if got := s.Label(); got != label {
			t.Errorf("%d.Label() = %q, want %q", int(s), got, label)
		}
	}
}

func TestSortTasks(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tasks := []service.Task{
		{ID: "c", CreatedAt: t0},
		{ID: "old", CreatedAt: t0.Add(-time.Hour)},
		{ID: "a", CreatedAt: t0},
		{ID: "new", CreatedAt: t0.Add(time.Hour)},
		// Same instant in another zone still ties.
		{ID: "b", CreatedAt: t0.In(time.FixedZone("CEST", 2*60*60))},
	}
	service.SortTasks(tasks)

	want := []string{"new", "a", "b", "c", "old"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(tasks), want)
		}
	}
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestDraft(t *testing.T) {
	d := service.Draft{Title: "  Buy milk ", Description: " two litres "}.Normalize()
	if d.Title != "Buy milk" || d.Description != "two litres" || d.Priority != service.PriorityMedium {
		t.Errorf("Normalize = %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	tests := []struct {
		name  string
		draft service.Draft
	}{
		{"blank title", service.Draft{Title: "  "}},
		{"bad priority", service.Draft{Title: "x", Priority: service.Priority(7)}},
	}
	for _, tt := range tests {
		if err := tt.draft.Validate(); !errors.Is(err, service.ErrValidation) {
			t.Errorf("%s: expected a validation failure, got %v", tt.name, err)
		}
	}
}

func TestProfileInitials(t *testing.T) {
	tests := []struct {
		name    string
		profile service.Profile
		want    string
	}{
		{"two names", service.Profile{FullName: "ada lovelace"}, "AL"},
		{"three names", service.Profile{FullName: "Ada King Lovelace"}, "AK"},
		{"one name", service.Profile{FullName: "ada"}, "A"},
		{"non ascii", service.Profile{FullName: "émile zola"}, "ÉZ"},
		{"blank name uses email", service.Profile{FullName: "   ", Email: "bob@example.com"}, "B"},
		{"email only", service.Profile{Email: "zoe@example.com"}, "Z"},
		{"nothing", service.Profile{}, "U"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Initials(); got != tt.want {
				t.Errorf("Initials() = %q, want %q", got, tt.want)
			}
		})
	}
}
