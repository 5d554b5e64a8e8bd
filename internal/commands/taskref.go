package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskflow/internal/service"
)

// TaskRef represents a parsed task reference: a 1-based position in the
// current list, or a task id.
type TaskRef struct {
	Num int    // 1-based position; 0 if ID is set
	ID  string // task id; empty if Num is set
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a single task reference from args.
//
// Parsing rules:
// 1. All digits → position (must be ≥ 1)
// 2. Anything else without whitespace → task id
// 3. No args or a blank arg → ErrTaskRefRequired
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	return parseOne(args[0])
}

// ParseTaskRefs parses one or more task references. Duplicates are dropped.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	seen := make(map[TaskRef]bool, len(args))
	refs := make([]TaskRef, 0, len(args))
	for _, arg := range args {
		ref, err := parseOne(arg)
		if err != nil {
			return nil, err
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseOne(arg string) (TaskRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}
	if strings.IndexFunc(arg, unicode.IsSpace) >= 0 || strings.HasPrefix(arg, "-") {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: arg}, nil
}

// Resolve finds the referenced task in a listing.
// A position past the end or an unknown id is a NotFoundFailure.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, service.NotFound("resolve", r.ID)
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, &service.Failure{
			Kind: service.NotFoundFailure,
			Op:   "resolve",
			Err:  fmt.Errorf("task number out of range: %d", r.Num),
		}
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
