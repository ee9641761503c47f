// Package ticker rotates through the active announcements on a fixed
// period.
package ticker

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"newsdesk/pkg/crud"
	"newsdesk/pkg/news"
)

const (
	DefaultInterval      = 5 * time.Second
	DefaultModalInterval = 8 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("ticker: already started")
	ErrOutOfRange     = errors.New("ticker: index out of range")
)

// Fallback is shown when the list cannot be loaded or is empty.
var Fallback = news.Announcement{
	ID:      "fallback",
	Title:   "Welcome to the newsroom",
	Content: "There are no announcements right now.",
}

// Loader fetches the announcements to rotate through.
type Loader func(ctx context.Context) ([]news.Announcement, error)

// LoadFromClient lists endpoint through client.
func LoadFromClient(client *crud.Client, endpoint string) Loader {
	return func(ctx context.Context) ([]news.Announcement, error) {
		page, err := crud.List[news.Announcement](ctx, client, endpoint, url.Values{"limit": {"100"}})
		if err != nil {
			return nil, err
		}
		return page.Data, nil
	}
}

// Frame is what is on display.
type Frame struct {
	Item     news.Announcement
	Index    int
	Total    int
	Fallback bool
}

// Ticker advances a display index every interval while it holds more than
// one item. Manual navigation restarts the period, so the item picked by
// hand stays up for a full interval.
type Ticker struct {
	load     Loader
	interval time.Duration
	clock    clockwork.Clock
	onChange func(Frame)
	logger   logrus.FieldLogger

	mu       sync.Mutex
	items    []news.Announcement
	index    int
	fallback bool
	started  bool
	ctx      context.Context
	timer    clockwork.Timer
	due      time.Time
	stop     chan struct{}
	done     chan struct{}
	// emitting is the done channel of the rotation whose OnChange call is
	// in progress.
	emitting chan struct{}
}

type Option func(*Ticker)

func WithInterval(d time.Duration) Option {
	return func(t *Ticker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// Modal selects the slower modal rotation.
func Modal() Option { return WithInterval(DefaultModalInterval) }

func WithClock(c clockwork.Clock) Option {
	return func(t *Ticker) { t.clock = c }
}

// OnChange is called after every index or list change, outside the lock.
func OnChange(fn func(Frame)) Option {
	return func(t *Ticker) { t.onChange = fn }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Ticker) { t.logger = l }
}

func New(load Loader, opts ...Option) *Ticker {
	t := &Ticker{
		load:     load,
		interval: DefaultInterval,
		clock:    clockwork.NewRealClock(),
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start loads the list once and starts rotating. The rotation ends on
// Stop or when ctx is done.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.ctx = ctx
	t.mu.Unlock()

	items, err := t.load(ctx)
	if err != nil {
		t.logger.WithError(err).Warn("announcements unavailable, showing fallback")
		items = nil
	}
	t.SetItems(items)
	return nil
}

// Stop ends the rotation and waits for it to exit. Safe to call more than
// once. While the rotation is inside OnChange, for instance when the
// callback itself calls Stop, it returns without waiting and the rotation
// exits as soon as the callback returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.detachLocked()
	t.mu.Unlock()
	wait(stop, done)
}

// SetItems replaces the list. The index is kept when still in range.
func (t *Ticker) SetItems(items []news.Announcement) {
	t.mu.Lock()
	t.fallback = len(items) == 0
	if t.fallback {
		items = []news.Announcement{Fallback}
	}
	t.items = append([]news.Announcement(nil), items...)
	if t.index >= len(t.items) {
		t.index = 0
	}

	var stop, done chan struct{}
	if len(t.items) > 1 {
		t.startLocked()
	} else {
		stop, done = t.detachLocked()
	}
	frame := t.frameLocked()
	t.mu.Unlock()

	wait(stop, done)
	t.emit(frame)
}

// Current returns the item on display.
func (t *Ticker) Current() Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameLocked()
}

// Running reports whether the periodic task is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Ticker) Next() { t.move(func(i, n int) int { return (i + 1) % n }) }

func (t *Ticker) Previous() { t.move(func(i, n int) int { return (i - 1 + n) % n }) }

// GoTo shows item i.
func (t *Ticker) GoTo(i int) error {
	t.mu.Lock()
	if i < 0 || i >= len(t.items) {
		t.mu.Unlock()
		return ErrOutOfRange
	}
	t.mu.Unlock()
	t.move(func(int, int) int { return i })
	return nil
}

func (t *Ticker) move(next func(i, n int) int) {
	t.mu.Lock()
	n := len(t.items)
	if n <= 1 {
		t.mu.Unlock()
		return
	}
	t.index = next(t.index, n)
	if t.timer != nil {
		t.rearmLocked()
	}
	frame := t.frameLocked()
	t.mu.Unlock()
	t.emit(frame)
}

// tick advances on an expiry of timer. An expiry that was already in flight
// when navigation re-armed the timer arrives before the new deadline and is
// dropped.
func (t *Ticker) tick(timer clockwork.Timer, done chan struct{}) {
	t.mu.Lock()
	if t.timer != timer || len(t.items) <= 1 || t.clock.Now().Before(t.due) {
		t.mu.Unlock()
		return
	}
	t.index = (t.index + 1) % len(t.items)
	t.rearmLocked()
	frame := t.frameLocked()
	t.emitting = done
	t.mu.Unlock()

	t.emit(frame)

	t.mu.Lock()
	if t.emitting == done {
		t.emitting = nil
	}
	t.mu.Unlock()
}

// rearmLocked restarts the period from now, discarding an expiry that has
// fired but not been received.
func (t *Ticker) rearmLocked() {
	if !t.timer.Stop() {
		select {
		case <-t.timer.Chan():
		default:
		}
	}
	t.due = t.clock.Now().Add(t.interval)
	t.timer.Reset(t.interval)
}

func (t *Ticker) startLocked() {
	if t.timer != nil {
		return
	}
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	t.due = t.clock.Now().Add(t.interval)
	timer := t.clock.NewTimer(t.interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	t.timer, t.stop, t.done = timer, stop, done
	go t.run(ctx, timer, stop, done)
}

func (t *Ticker) run(ctx context.Context, timer clockwork.Timer, stop, done chan struct{}) {
	defer close(done)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			if t.timer == timer {
				t.timer, t.stop, t.done = nil, nil, nil
			}
			t.mu.Unlock()
			return
		case <-stop:
			return
		case <-timer.Chan():
			t.tick(timer, done)
		}
	}
}

// detachLocked forgets the running task and hands back what the caller
// must close and wait on once the lock is released. done is nil when the
// task is inside OnChange, since waiting there could be waiting on itself.
func (t *Ticker) detachLocked() (stop, done chan struct{}) {
	if t.timer == nil {
		return nil, nil
	}
	t.timer.Stop()
	stop, done = t.stop, t.done
	t.timer, t.stop, t.done = nil, nil, nil
	if t.emitting == done {
		done = nil
	}
	return stop, done
}

func wait(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	if done != nil {
		<-done
	}
}

func (t *Ticker) frameLocked() Frame {
	f := Frame{Index: t.index, Total: len(t.items), Fallback: t.fallback}
	if t.index < len(t.items) {
		f.Item = t.items[t.index]
	}
	return f
}

func (t *Ticker) emit(f Frame) {
	if t.onChange != nil {
		t.onChange(f)
	}
}
