// Package feedback polls the workout backend for per-set analysis results.
package feedback

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"example.com/gymsession/internal/domain"
)

// Fetcher exposes the two read paths the poller needs from the api client.
type Fetcher interface {
	LatestFeedback(ctx context.Context, userID int64, exercise string) ([]domain.FeedbackEntry, error)
	TodayFeedback(ctx context.Context, userID int64, exercise string) ([]domain.FeedbackEntry, error)
}

// Poller detects when analysis feedback becomes available for recorded sets.
// It keeps two parallel arrays indexed by set position: ready marks feedback
// that arrived but has not been acted on, received marks sets the user
// already acknowledged. Position is the only correlation key with the server
// list; the backend offers no stable per-set identifier.
type Poller struct {
	fetcher  Fetcher
	logger   *log.Logger
	interval time.Duration

	mu       sync.Mutex
	userID   int64
	exercise string
	sets     []domain.WorkoutSet
	ready    []bool
	received []bool

	shutdownComplete chan struct{}
}

// Option configures optional behaviour for the Poller.
type Option func(*Poller)

// WithLogger overrides the logger used to report poll failures.
func WithLogger(logger *log.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithInterval overrides the default 5s poll interval.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		p.interval = interval
	}
}

// NewPoller constructs a Poller for one user and exercise with the given
// initial sets.
func NewPoller(fetcher Fetcher, userID int64, exercise string, sets []domain.WorkoutSet, opts ...Option) *Poller {
	p := &Poller{
		fetcher:          fetcher,
		logger:           log.New(log.Writer(), "[feedback] ", log.LstdFlags),
		interval:         5 * time.Second,
		userID:           userID,
		exercise:         exercise,
		sets:             append([]domain.WorkoutSet(nil), sets...),
		shutdownComplete: make(chan struct{}),
	}
	p.ready = make([]bool, len(p.sets))
	p.received = make([]bool, len(p.sets))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling loop. It should be called in a goroutine.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer func() {
		ticker.Stop()
		close(p.shutdownComplete)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := p.CheckNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Printf("readiness poll failed: %v", err)
		}
	}
}

// Wait blocks until the polling loop has stopped.
func (p *Poller) Wait() {
	<-p.shutdownComplete
}

// CheckNow performs one readiness pass: fetch the latest feedback list and
// recompute ready[i] = present(i) && !received[i] for every position. The
// recomputation is pure — an acknowledged set turns back off even while the
// server keeps reporting its feedback. Errors leave both arrays untouched.
func (p *Poller) CheckNow(ctx context.Context) error {
	p.mu.Lock()
	userID, exercise := p.userID, p.exercise
	p.mu.Unlock()

	entries, err := p.fetcher.LatestFeedback(ctx, userID, exercise)
	if err != nil {
		pollErrors.Inc()
		return err
	}
	pollPasses.Inc()

	p.mu.Lock()
	defer p.mu.Unlock()

	// The dependency set may have changed while the request was in flight;
	// recompute against the current arrays, never against a snapshot.
	readyCount := 0
	for i := range p.ready {
		present := i < len(entries) && entries[i].Feedback != nil
		p.ready[i] = present && !p.received[i]
		if p.ready[i] {
			readyCount++
		}
	}
	readyGauge.Set(float64(readyCount))
	return nil
}

// FetchNow performs the richer manual read: it pulls today's full feedback
// list, rewrites each local set's memo and feedback flag from the response,
// and marks every position with present feedback as received.
func (p *Poller) FetchNow(ctx context.Context) error {
	p.mu.Lock()
	userID, exercise := p.userID, p.exercise
	p.mu.Unlock()

	entries, err := p.fetcher.TodayFeedback(ctx, userID, exercise)
	if err != nil {
		pollErrors.Inc()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.sets {
		var fb *domain.Feedback
		if i < len(entries) {
			fb = entries[i].Feedback
			if entries[i].S3Key != "" {
				p.sets[i].S3Key = entries[i].S3Key
			}
		}
		p.sets[i].Memo = fb.Memo()
		p.sets[i].HasFeedback = fb != nil && fb.Depth != ""
	}
	for i := range p.received {
		p.received[i] = i < len(entries) && entries[i].Feedback != nil
	}
	return nil
}

// Acknowledge records that the user acted on the feedback for set i. It is
// never unset for the lifetime of the poller except by SetExercise/SetSets.
func (p *Poller) Acknowledge(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.received) {
		return
	}
	p.received[i] = true
	p.ready[i] = false
}

// SetExercise switches the selected exercise type and replaces the tracked
// sets. Both arrays reset to all-false: positions are the only correlation
// key, and a different exercise has a different server list.
func (p *Poller) SetExercise(exercise string, sets []domain.WorkoutSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exercise = exercise
	p.sets = append([]domain.WorkoutSet(nil), sets...)
	p.ready = make([]bool, len(p.sets))
	p.received = make([]bool, len(p.sets))
}

// SetSets replaces the tracked sets for the current exercise. A size change
// invalidates the positional correlation and resets both arrays; a same-size
// replacement keeps them.
func (p *Poller) SetSets(sets []domain.WorkoutSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	resize := len(sets) != len(p.sets)
	p.sets = append([]domain.WorkoutSet(nil), sets...)
	if resize {
		p.ready = make([]bool, len(p.sets))
		p.received = make([]bool, len(p.sets))
	}
}

// Ready reports whether unacknowledged feedback is available for set i.
func (p *Poller) Ready(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return i >= 0 && i < len(p.ready) && p.ready[i]
}

// Received reports whether the user already acknowledged feedback for set i.
func (p *Poller) Received(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return i >= 0 && i < len(p.received) && p.received[i]
}

// Sets returns a copy of the tracked sets with their current memos.
func (p *Poller) Sets() []domain.WorkoutSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.WorkoutSet(nil), p.sets...)
}
