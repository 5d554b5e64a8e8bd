package commands

import (
	"errors"
	"testing"

	"taskflow/internal/service"
)

func TestParseTaskRef_Position(t *testing.T) {
	ref, err := ParseTaskRef([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected position 5, got %+v", ref)
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"3f1c2a9e-7d41-4b8e-9a55-0c7b2e8d1f00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 0 || ref.ID != "3f1c2a9e-7d41-4b8e-9a55-0c7b2e8d1f00" {
		t.Errorf("expected id ref, got %+v", ref)
	}
}

func TestParseTaskRef_Invalid(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"0", "invalid task reference: 0"},
		{"-1", "invalid task reference: -1"},
		{"two words", "invalid task reference: two words"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			_, err := ParseTaskRef([]string{tt.arg})
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParseTaskRef_NoArgs_Error(t *testing.T) {
	_, err := ParseTaskRef([]string{})
	if err != ErrTaskRefRequired {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
	_, err = ParseTaskRef([]string{"   "})
	if err != ErrTaskRefRequired {
		t.Errorf("blank arg: expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRefs_Dedupes(t *testing.T) {
	refs, err := ParseTaskRefs([]string{"2", "abc", "2", "abc", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TaskRef{{Num: 2}, {ID: "abc"}, {Num: 1}}
	if len(refs) != len(want) {
		t.Fatalf("expected %v, got %v", want, refs)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %v, want %v", i, refs[i], want[i])
		}
	}
}

func TestParseTaskRefs_StopsAtInvalid(t *testing.T) {
	if _, err := ParseTaskRefs([]string{"1", "0"}); err == nil {
		t.Error("expected error for position 0")
	}
	if _, err := ParseTaskRefs(nil); err != ErrTaskRefRequired {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestTaskRef_Resolve(t *testing.T) {
	tasks := []service.Task{{ID: "newest"}, {ID: "older"}}

	got, err := TaskRef{Num: 2}.Resolve(tasks)
	if err != nil || got.ID != "older" {
		t.Errorf("position 2: got %+v, %v", got, err)
	}
	got, err = TaskRef{ID: "newest"}.Resolve(tasks)
	if err != nil || got.ID != "newest" {
		t.Errorf("id: got %+v, %v", got, err)
	}

	for _, ref := range []TaskRef{{Num: 3}, {ID: "gone"}} {
		if _, err := ref.Resolve(tasks); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("%v: expected not found, got %v", ref, err)
		}
	}
}

func TestTaskRef_String(t *testing.T) {
	if s := (TaskRef{Num: 4}).String(); s != "4" {
		t.Errorf("got %q", s)
	}
	if s := (TaskRef{ID: "abc"}).String(); s != "abc" {
		t.Errorf("got %q", s)
	}
}
