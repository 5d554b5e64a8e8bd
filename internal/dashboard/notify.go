package dashboard

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Level is the severity of a notification.
type Level int

// Levels.
const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a user-facing message.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// WriterNotifier prints success messages to Out and failures to ErrOut.
// Quiet suppresses success messages.
type WriterNotifier struct {
	Out    io.Writer
	ErrOut io.Writer
	Quiet  bool
}

// Notify implements Notifier.
func (w *WriterNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		if n.Err != nil {
			fmt.Fprintf(w.ErrOut, "error: %s: %v\n", n.Message, n.Err)
			return
		}
		fmt.Fprintf(w.ErrOut, "error: %s\n", n.Message)
		return
	}
	if !w.Quiet {
		fmt.Fprintln(w.Out, n.Message)
	}
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		l.Log.Warn(n.Message, "error", n.Err)
		return
	}
	l.Log.Info(n.Message)
}

// Recorder keeps every notification, for tests and for surfaces that show
// the latest one.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

// Reset drops all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
}

// Tee fans a notification out to several notifiers.
type Tee []Notifier

// Notify implements Notifier.
func (t Tee) Notify(n Notification) {
	for _, x := range t {
		if x != nil {
			x.Notify(n)
		}
	}
}
