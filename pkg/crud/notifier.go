package crud

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Notifier surfaces the outcome of a mutation to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to a logrus logger.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info(msg) }
func (n LogNotifier) Error(msg string)   { n.Logger.Error(msg) }

// Notice is one recorded notification.
type Notice struct {
	OK      bool
	Message string
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *RecordingNotifier) Success(msg string) { r.add(Notice{OK: true, Message: msg}) }
func (r *RecordingNotifier) Error(msg string)   { r.add(Notice{Message: msg}) }

func (r *RecordingNotifier) add(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of what has been recorded so far.
func (r *RecordingNotifier) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Error(string)   {}
