// Package session owns the client-side session state: the current user, the
// mirrored check-in timestamp, and the long-lived timers that act on them.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"example.com/gymsession/internal/domain"
	"example.com/gymsession/internal/store"
)

// Route names the screen the host UI should show next. The agent never
// renders anything; it only resolves the route.
type Route string

const (
	RouteLogin       Route = "login"
	RouteWorkoutType Route = "workout-type"
	RouteCheckOut    Route = "check-out"
)

// AppState mirrors the host application's lifecycle state.
type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateBackground AppState = "background"
	AppStateInactive   AppState = "inactive"
)

// VisitClient is the slice of the api client the session manager calls.
type VisitClient interface {
	CheckIn(ctx context.Context, userID int64, at time.Time) error
	CheckOut(ctx context.Context, userID int64, at time.Time) (domain.Visit, error)
	LastVisit(ctx context.Context, userID int64) (*domain.Visit, error)
}

// ErrNoUser is returned by operations that require an authenticated session.
var ErrNoUser = errors.New("session: no user logged in")

// Manager holds the mutable session state and owns the background-grace and
// inactivity timers. Every timer arm first stops the previously armed timer
// of the same kind, so neither can leak or double-fire.
type Manager struct {
	store  store.Store
	client VisitClient
	logger *log.Logger
	now    func() time.Time

	grace           time.Duration
	inactivityLimit time.Duration
	callTimeout     time.Duration

	mu              sync.Mutex
	user            *domain.User
	route           Route
	backgrounded    bool
	graceTimer      *time.Timer
	inactivityTimer *time.Timer
	closed          bool
}

// ManagerOption configures optional behaviour for the Manager.
type ManagerOption func(*Manager)

// WithLogger overrides the logger used for background failures.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithBackgroundGrace overrides the 5-minute delay before an abandoned
// session is checked out.
func WithBackgroundGrace(grace time.Duration) ManagerOption {
	return func(m *Manager) {
		m.grace = grace
	}
}

// WithInactivityLimit overrides the 24-hour forced-logout window.
func WithInactivityLimit(limit time.Duration) ManagerOption {
	return func(m *Manager) {
		m.inactivityLimit = limit
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager constructs a Manager over the given store and visit client.
func NewManager(s store.Store, client VisitClient, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:           s,
		client:          client,
		logger:          log.New(log.Writer(), "[session] ", log.LstdFlags),
		now:             time.Now,
		grace:           5 * time.Minute,
		inactivityLimit: 24 * time.Hour,
		callTimeout:     10 * time.Second,
		route:           RouteLogin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap restores the session from the persistent store and resolves the
// initial route. When the store has a user but no open check-in it asks the
// backend for the last visit and adopts a still-open one, healing the gap
// left by a crash between check-in and persist.
func (m *Manager) Bootstrap(ctx context.Context) error {
	user, err := store.LoadUser(ctx, m.store)
	if errors.Is(err, store.ErrNotFound) {
		m.setRoute(RouteLogin)
		return nil
	}
	if err != nil {
		m.logger.Printf("bootstrap: loading user failed: %v", err)
		m.setRoute(RouteLogin)
		return nil
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()

	if _, err := store.LoadCheckIn(ctx, m.store); err == nil {
		m.setRoute(RouteCheckOut)
	} else {
		if visit, lvErr := m.client.LastVisit(ctx, user.ID); lvErr == nil && visit.Open() {
			if saveErr := store.SaveCheckIn(ctx, m.store, visit.CheckIn); saveErr != nil {
				m.logger.Printf("bootstrap: adopting server check-in failed: %v", saveErr)
			} else {
				m.setRoute(RouteCheckOut)
				m.resetInactivityTimer()
				return nil
			}
		}
		m.setRoute(RouteWorkoutType)
	}

	m.resetInactivityTimer()
	return nil
}

// Login installs the authenticated user, persists it, and starts the
// inactivity window.
func (m *Manager) Login(ctx context.Context, user domain.User) error {
	if err := store.SaveUser(ctx, m.store, user); err != nil {
		return err
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()

	m.setRoute(RouteWorkoutType)
	m.resetInactivityTimer()
	return nil
}

// Logout clears the user and any mirrored check-in, stops both timers, and
// routes back to login.
func (m *Manager) Logout(ctx context.Context) error {
	if err := store.ClearUser(ctx, m.store); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Printf("logout: clearing user failed: %v", err)
	}
	if err := store.ClearCheckIn(ctx, m.store); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Printf("logout: clearing check-in failed: %v", err)
	}

	m.mu.Lock()
	m.user = nil
	m.backgrounded = false
	m.stopTimersLocked()
	m.route = RouteLogin
	m.mu.Unlock()
	return nil
}

// CheckIn opens a visit on the backend and mirrors the timestamp locally.
func (m *Manager) CheckIn(ctx context.Context) error {
	user := m.User()
	if user == nil {
		return ErrNoUser
	}

	at := m.now()
	if err := m.client.CheckIn(ctx, user.ID, at); err != nil {
		return err
	}
	if err := store.SaveCheckIn(ctx, m.store, at); err != nil {
		return err
	}
	m.setRoute(RouteCheckOut)
	checkInsCounter.Inc()
	return nil
}

// CheckOut closes the open visit and clears the local mirror. User-initiated,
// so failures surface to the caller.
func (m *Manager) CheckOut(ctx context.Context) (domain.Visit, error) {
	user := m.User()
	if user == nil {
		return domain.Visit{}, ErrNoUser
	}

	visit, err := m.client.CheckOut(ctx, user.ID, m.now())
	if err != nil {
		return domain.Visit{}, err
	}
	if err := store.ClearCheckIn(ctx, m.store); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Printf("checkout: clearing check-in failed: %v", err)
	}
	m.setRoute(RouteWorkoutType)
	checkOutsCounter.WithLabelValues("manual").Inc()
	return visit, nil
}

// RecordInteraction resets the inactivity window. The host calls this on any
// detected user interaction.
func (m *Manager) RecordInteraction() {
	m.resetInactivityTimer()
}

// HandleAppState drives the auto-checkout watcher. Entering background or
// inactive arms one grace timer; re-entering while already backgrounded is a
// no-op; returning to active cancels the pending checkout and resets the
// inactivity window.
func (m *Manager) HandleAppState(state AppState) {
	switch state {
	case AppStateActive:
		m.mu.Lock()
		m.backgrounded = false
		if m.graceTimer != nil {
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
		m.mu.Unlock()
		m.resetInactivityTimer()
	case AppStateBackground, AppStateInactive:
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.backgrounded || m.closed {
			return
		}
		m.backgrounded = true
		if m.graceTimer != nil {
			m.graceTimer.Stop()
		}
		m.graceTimer = time.AfterFunc(m.grace, m.autoCheckout)
	}
}

// autoCheckout fires after the grace period. It re-reads the store rather
// than trusting in-memory state: a manual checkout may have landed while the
// timer was pending.
func (m *Manager) autoCheckout() {
	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	if _, err := store.LoadCheckIn(ctx, m.store); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Printf("auto checkout: reading check-in failed: %v", err)
		}
		return
	}

	user := m.User()
	if user == nil {
		return
	}

	if _, err := m.client.CheckOut(ctx, user.ID, m.now()); err != nil {
		// Leave the stale check-in in place; the next bootstrap or manual
		// checkout reconciles it.
		m.logger.Printf("auto checkout failed: %v", err)
		return
	}

	if err := store.ClearCheckIn(ctx, m.store); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Printf("auto checkout: clearing check-in failed: %v", err)
	}
	m.setRoute(RouteLogin)
	checkOutsCounter.WithLabelValues("auto").Inc()
	m.logger.Printf("auto checkout completed for user %d", user.ID)
}

// forceLogout fires when the inactivity window elapses, regardless of
// check-in state.
func (m *Manager) forceLogout() {
	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	m.logger.Printf("inactivity limit reached, logging out")
	forcedLogoutsCounter.Inc()
	if err := m.Logout(ctx); err != nil {
		m.logger.Printf("forced logout failed: %v", err)
	}
}

func (m *Manager) resetInactivityTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.user == nil {
		return
	}
	if m.inactivityTimer != nil {
		m.inactivityTimer.Stop()
	}
	m.inactivityTimer = time.AfterFunc(m.inactivityLimit, m.forceLogout)
}

// User returns the current session user, or nil.
func (m *Manager) User() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Route returns the screen the host should show next.
func (m *Manager) Route() Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.route
}

func (m *Manager) setRoute(route Route) {
	m.mu.Lock()
	m.route = route
	m.mu.Unlock()
}

// Close stops both timers. The manager must not be reused afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopTimersLocked()
}

func (m *Manager) stopTimersLocked() {
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
	if m.inactivityTimer != nil {
		m.inactivityTimer.Stop()
		m.inactivityTimer = nil
	}
}
