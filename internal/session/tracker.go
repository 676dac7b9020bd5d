package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"example.com/gymsession/internal/store"
)

// ZeroElapsed is the rendered duration shown whenever no session is open or
// the stored timestamp is unusable.
const ZeroElapsed = "00:00:00"

// Tracker renders the time since check-in as HH:MM:SS. While a session is
// open it re-reads the store every tick instead of caching the timestamp, so
// a checkout landing from any other component stops it within one tick.
// While idle it falls back to a slower status cadence.
type Tracker struct {
	store    store.Store
	logger   *log.Logger
	now      func() time.Time
	interval time.Duration // tick cadence while a session is open
	idlePoll time.Duration // store re-check cadence while idle
	onChange func(string)

	mu      sync.Mutex
	elapsed string
	active  bool

	shutdownComplete chan struct{}
}

// TrackerOption configures optional behaviour for the Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger overrides the logger used for store read failures.
func WithTrackerLogger(logger *log.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithTickInterval overrides the one-second tick used while a session is open.
func WithTickInterval(interval time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.interval = interval
	}
}

// WithIdleInterval overrides the slower cadence used while no session is open.
func WithIdleInterval(interval time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.idlePoll = interval
	}
}

// WithTrackerClock overrides the time source.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithOnChange registers a callback invoked whenever the rendered value
// changes. Called from the tracker goroutine; keep it cheap.
func WithOnChange(fn func(string)) TrackerOption {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// NewTracker constructs a Tracker over the given store.
func NewTracker(s store.Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:            s,
		logger:           log.New(log.Writer(), "[tracker] ", log.LstdFlags),
		now:              time.Now,
		interval:         time.Second,
		idlePoll:         10 * time.Second,
		elapsed:          ZeroElapsed,
		shutdownComplete: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the tick loop. It should be called in a goroutine. A single
// ticker is re-armed on active/idle flips, so duplicate timers cannot exist.
func (t *Tracker) Start(ctx context.Context) {
	t.tick(ctx)

	ticker := time.NewTicker(t.currentInterval())
	defer func() {
		ticker.Stop()
		close(t.shutdownComplete)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		wasActive := t.Active()
		t.tick(ctx)
		if t.Active() != wasActive {
			ticker.Reset(t.currentInterval())
		}
	}
}

// Wait blocks until the tick loop has stopped.
func (t *Tracker) Wait() {
	<-t.shutdownComplete
}

// tick performs one pass: read the stored check-in, recompute the rendered
// duration, and publish it. Every failure path degrades to ZeroElapsed.
func (t *Tracker) tick(ctx context.Context) {
	checkIn, err := store.LoadCheckIn(ctx, t.store)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.logger.Printf("reading check-in failed: %v", err)
		}
		t.publish(false, ZeroElapsed)
		return
	}

	t.publish(true, FormatElapsed(t.now().Sub(checkIn)))
}

func (t *Tracker) publish(active bool, elapsed string) {
	t.mu.Lock()
	changed := t.elapsed != elapsed
	t.elapsed = elapsed
	t.active = active
	fn := t.onChange
	t.mu.Unlock()

	if active {
		elapsedGauge.Set(elapsedSeconds(elapsed))
	} else {
		elapsedGauge.Set(0)
	}
	if changed && fn != nil {
		fn(elapsed)
	}
}

// Elapsed returns the current rendered duration.
func (t *Tracker) Elapsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Active reports whether a check-in timestamp was present on the last tick.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) currentInterval() time.Duration {
	if t.Active() {
		return t.interval
	}
	return t.idlePoll
}

// FormatElapsed renders a duration as HH:MM:SS. Hours are not capped at 24;
// a session longer than a day keeps counting. Negative durations (clock skew,
// corrupted timestamp) render as ZeroElapsed rather than an error.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		return ZeroElapsed
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func elapsedSeconds(rendered string) float64 {
	var h, m, s int64
	if _, err := fmt.Sscanf(rendered, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0
	}
	return float64(h*3600 + m*60 + s)
}
