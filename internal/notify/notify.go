// Package notify delivers the transient messages shown after a session or
// task operation succeeds or fails.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier receives user-visible notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Notification is one delivered message.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Feed prints notifications to a terminal and mirrors them to the log.
type Feed struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger
}

func NewFeed(out io.Writer, logger *zap.Logger) *Feed {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{out: out, logger: logger.Named("notify")}
}

func (f *Feed) Success(message string) {
	f.write("✓", message)
	f.logger.Info(message, zap.String("level", string(LevelSuccess)))
}

func (f *Feed) Error(message string) {
	f.write("✗", message)
	f.logger.Warn(message, zap.String("level", string(LevelError)))
}

// Write prints p as is. The shell routes every line through the feed so
// background refreshes never interleave with notifications.
func (f *Feed) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

func (f *Feed) write(mark, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.out, "%s %s\n", mark, message)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(message string) { r.add(LevelSuccess, message) }

func (r *Recorder) Error(message string) { r.add(LevelError, message) }

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message, At: time.Now()})
}

// All returns the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the newest notification and whether there was one.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

var (
	_ Notifier = (*Feed)(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = Discard{}
)
