// Package session tracks the identity provider's auth state for the lifetime
// of the process and resolves it to a full profile.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lotworks/lotworks/internal/identity"
	"github.com/lotworks/lotworks/internal/profile"
	"github.com/lotworks/lotworks/internal/shared"
)

// State is the manager's lifecycle position.
type State int

const (
	// StateInitializing is the only initial state, held until the startup
	// probe or the first provider event settles the session.
	StateInitializing State = iota
	// StateUnauthenticated means no provider session exists.
	StateUnauthenticated
	// StateAuthenticated means a provider session exists and the profile
	// resolved.
	StateAuthenticated
	// StateDegraded means the provider session is valid but the profile
	// could not be resolved. User is nil; callers that care can tell this
	// apart from StateUnauthenticated.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateDegraded:
		return "degraded"
	}
	return "unknown"
}

// Snapshot is the coherent, race-free view of the current session.
type Snapshot struct {
	User    *profile.User
	Loading bool
	State   State
}

// Authenticated reports whether a provider session exists, including the
// degraded case where the profile is unresolved.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated || s.State == StateDegraded
}

// Trail records sign-in/out transitions, best effort.
type Trail interface {
	Record(ctx context.Context, event, userID string) error
}

// Manager is the session state machine. A single dispatcher goroutine (the
// run loop) owns all state; provider callbacks and fetch completions only
// enqueue closures onto it. Profile fetches triggered by events are deferred
// off the event callback and tagged with a generation captured at schedule
// time; a result whose generation no longer matches is discarded, so rapid
// event toggling always converges to the state implied by the last event.
type Manager struct {
	provider identity.Provider
	profiles profile.Source
	trail    Trail
	logger   *slog.Logger

	tasks   chan func()
	stopped chan struct{}

	// generation is owned by the run loop.
	generation uint64

	mu   sync.RWMutex
	snap Snapshot

	watchMu  sync.Mutex
	watchers map[int]chan Snapshot
	watchSeq int

	unsubscribe func()
}

// NewManager constructs a Manager. trail may be nil.
func NewManager(provider identity.Provider, profiles profile.Source, trail Trail, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		provider: provider,
		profiles: profiles,
		trail:    trail,
		logger:   logger,
		tasks:    make(chan func(), 128),
		stopped:  make(chan struct{}),
		snap:     Snapshot{State: StateInitializing, Loading: true},
		watchers: make(map[int]chan Snapshot),
	}
}

// Start subscribes to provider events and concurrently probes for an existing
// session. The two paths may complete in either order; the probe result is
// ignored once any event has begun a resolution of its own.
func (m *Manager) Start(ctx context.Context) {
	m.unsubscribe = m.provider.Subscribe(func(ev identity.Event) {
		// Enqueue only. The provider may hold internal locks during
		// dispatch; calling back into it from here can deadlock.
		m.enqueue(func() { m.handleEvent(ctx, ev) })
	})

	go m.loop(ctx)

	go func() {
		sess, err := m.provider.CurrentSession(ctx)
		m.enqueue(func() { m.applyProbe(ctx, sess, err) })
	}()
}

// SignIn delegates to the provider. It never sets the user itself; the
// SIGNED_IN event the provider emits is the single source of truth for
// "session established".
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	return m.provider.SignInWithPassword(ctx, email, password)
}

// SignUp delegates account registration to the provider.
func (m *Manager) SignUp(ctx context.Context, email, password string, meta identity.SignUpMetadata) error {
	return m.provider.SignUp(ctx, email, password, meta)
}

// SignOut delegates to the provider and, on success, immediately transitions
// to Unauthenticated without waiting for the corresponding event.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		return err
	}
	m.enqueue(func() { m.applySignOut(ctx) })
	return nil
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Watch delivers a snapshot on every state change until cancel is called.
// Slow receivers lose intermediate snapshots, never the ordering.
func (m *Manager) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	m.watchMu.Lock()
	id := m.watchSeq
	m.watchSeq++
	m.watchers[id] = ch
	m.watchMu.Unlock()
	cancel := func() {
		m.watchMu.Lock()
		delete(m.watchers, id)
		m.watchMu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.stopped)
	for {
		select {
		case <-ctx.Done():
			if m.unsubscribe != nil {
				m.unsubscribe()
			}
			return
		case task := <-m.tasks:
			task()
		}
	}
}

func (m *Manager) enqueue(task func()) {
	select {
	case m.tasks <- task:
	case <-m.stopped:
	}
}

// handleEvent runs on the loop goroutine.
func (m *Manager) handleEvent(ctx context.Context, ev identity.Event) {
	switch ev.Type {
	case identity.EventSignedIn:
		if ev.Session == nil {
			return
		}
		m.recordTrail(ctx, "signed_in", ev.Session.UserID)
		m.beginResolve(ctx, ev.Session.UserID)
	case identity.EventUserUpdated:
		if ev.Session == nil {
			return
		}
		m.beginResolve(ctx, ev.Session.UserID)
	case identity.EventTokenRefreshed:
		if ev.Session == nil {
			return
		}
		snap := m.Snapshot()
		if snap.State == StateAuthenticated && snap.User != nil && snap.User.ID == ev.Session.UserID {
			return
		}
		m.beginResolve(ctx, ev.Session.UserID)
	case identity.EventSignedOut:
		m.applySignOut(ctx)
	default:
		m.logger.Debug("ignoring provider event", slog.String("type", string(ev.Type)))
	}
}

// beginResolve schedules a deferred profile fetch tagged with the current
// generation. Runs on the loop goroutine.
func (m *Manager) beginResolve(ctx context.Context, userID string) {
	m.generation++
	gen := m.generation

	snap := m.Snapshot()
	snap.Loading = true
	m.setSnapshot(snap)

	go func() {
		user, err := m.profiles.FetchByID(ctx, userID)
		m.enqueue(func() { m.applyProfile(gen, userID, user, err) })
	}()
}

// applyProfile runs on the loop goroutine. Results from a superseded
// generation are discarded: an in-flight fetch cannot be cancelled, only
// ignored.
func (m *Manager) applyProfile(gen uint64, userID string, user *profile.User, err error) {
	if gen != m.generation {
		m.logger.Debug("discarding stale profile result",
			slog.String("user_id", userID),
			slog.Uint64("generation", gen),
			slog.Uint64("current", m.generation))
		return
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			m.logger.Warn("profile not found for valid session", slog.String("user_id", userID))
		} else {
			m.logger.Error("profile fetch failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		m.setSnapshot(Snapshot{State: StateDegraded})
		return
	}
	m.setSnapshot(Snapshot{User: user, State: StateAuthenticated})
}

// applyProbe runs on the loop goroutine. A non-zero generation means some
// event already started settling the state and the probe result is obsolete.
func (m *Manager) applyProbe(ctx context.Context, sess *identity.Session, err error) {
	if m.generation > 0 {
		return
	}
	if err != nil {
		m.logger.Error("session probe failed", slog.Any("error", err))
		m.setSnapshot(Snapshot{State: StateUnauthenticated})
		return
	}
	if sess == nil {
		m.setSnapshot(Snapshot{State: StateUnauthenticated})
		return
	}
	m.beginResolve(ctx, sess.UserID)
}

// applySignOut runs on the loop goroutine. Idempotent: the transition can
// arrive both from SignOut and from the provider's SIGNED_OUT event.
func (m *Manager) applySignOut(ctx context.Context) {
	prev := m.Snapshot()
	if prev.State == StateUnauthenticated && !prev.Loading {
		return
	}
	m.generation++
	if prev.User != nil {
		m.recordTrail(ctx, "signed_out", prev.User.ID)
	}
	m.setSnapshot(Snapshot{State: StateUnauthenticated})
}

func (m *Manager) setSnapshot(snap Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()

	m.watchMu.Lock()
	for _, ch := range m.watchers {
		select {
		case ch <- snap:
		default:
			// Make room by dropping the oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	m.watchMu.Unlock()
}

func (m *Manager) recordTrail(ctx context.Context, event, userID string) {
	if m.trail == nil {
		return
	}
	// Off-loop: the trail write must not stall event processing.
	go func() {
		if err := m.trail.Record(ctx, event, userID); err != nil {
			m.logger.Warn("record session audit", slog.String("event", event), slog.Any("error", err))
		}
	}()
}
