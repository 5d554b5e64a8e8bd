package googletasks

import (
	"fmt"
	"strings"
	"time"

	"taskflow/internal/service"
)

const trailerPrefix = "[taskflow "

// meta is the taskflow state kept in a task's notes.
type meta struct {
	Priority service.Priority
	Status   service.Status
	Created  time.Time
}

// encodeNotes appends the metadata trailer to the description.
func encodeNotes(desc string, m meta) string {
	trailer := fmt.Sprintf("%spriority=%s status=%s created=%s]",
		trailerPrefix, m.Priority, m.Status, m.Created.UTC().Format(time.RFC3339))
	desc = strings.TrimRight(desc, "\n")
	if desc == "" {
		return trailer
	}
	return desc + "\n\n" + trailer
}

// decodeNotes splits notes into the description and the metadata trailer.
// Notes without a trailer decode to the whole text and zero metadata with
// medium priority.
func decodeNotes(notes string) (string, meta) {
	m := meta{Priority: service.PriorityMedium, Status: service.StatusTodo}

	idx := strings.LastIndex(notes, trailerPrefix)
	if idx < 0 || !strings.HasSuffix(strings.TrimSpace(notes), "]") {
		return notes, m
	}
	body := strings.TrimSuffix(strings.TrimSpace(notes[idx+len(trailerPrefix):]), "]")
	for _, field := range strings.Fields(body) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch k {
		case "priority":
			if p, err := service.ParsePriority(v); err == nil {
				m.Priority = p
			}
		case "status":
			if s, err := service.ParseStatus(v); err == nil {
				m.Status = s
			}
		case "created":
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				m.Created = t
			}
		}
	}
	return strings.TrimRight(notes[:idx], "\n"), m
}
