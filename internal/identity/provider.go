package identity

import (
	"context"
	"sync"
	"time"

	"github.com/lotworks/lotworks/internal/shared"
)

// EventType discriminates auth state change notifications.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Session is the provider's view of an authenticated session. It is minted
// and persisted by the provider; the rest of the system only reflects it.
type Session struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Event is delivered to subscribers on every auth state change, in emission
// order. Session is nil for sign-out events.
type Event struct {
	Type    EventType
	Session *Session
}

// SignUpMetadata carries the profile fields supplied at registration.
type SignUpMetadata struct {
	FirstName string
	LastName  string
	Role      shared.Role
}

// Provider is the external identity service boundary. Implementations may
// hold internal locks while dispatching events: subscriber callbacks must
// never call back into the provider synchronously.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) error
	SignOut(ctx context.Context) error
	// CurrentSession returns the active session, or (nil, nil) when signed out.
	CurrentSession(ctx context.Context) (*Session, error)
	// Subscribe registers fn for auth events and returns an unsubscribe func.
	Subscribe(fn func(Event)) func()
}

// dispatcher implements ordered event fan-out for provider implementations.
// Dispatch happens under the dispatcher lock, which is what makes synchronous
// re-entry from a callback a deadlock.
type dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func (d *dispatcher) Subscribe(fn func(Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs == nil {
		d.subs = make(map[int]func(Event))
	}
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

func (d *dispatcher) emit(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, fn := range d.subs {
		fn(ev)
	}
}
