package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lotworks/lotworks/internal/shared"
)

type devAccount struct {
	id           string
	passwordHash []byte
	active       bool
}

// DevProvider is an in-memory identity service used for local development and
// tests. It dispatches events while holding its account lock, faithfully
// reproducing the reentrancy hazard of real providers: a subscriber that calls
// back in synchronously will deadlock.
type DevProvider struct {
	dispatcher

	mu       sync.Mutex
	accounts map[string]devAccount
	current  *Session
	ttl      time.Duration
}

// NewDevProvider constructs an empty DevProvider.
func NewDevProvider() *DevProvider {
	return &DevProvider{
		accounts: make(map[string]devAccount),
		ttl:      time.Hour,
	}
}

// Seed registers an account with a known id, hashing the password with bcrypt.
func (p *DevProvider) Seed(email, password, userID string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = devAccount{id: userID, passwordHash: hash, active: true}
	return nil
}

// SignInWithPassword validates credentials and emits SIGNED_IN.
func (p *DevProvider) SignInWithPassword(ctx context.Context, email, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok || !account.active {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}

	p.current = &Session{
		UserID:      account.id,
		AccessToken: uuid.NewString(),
		ExpiresAt:   time.Now().Add(p.ttl),
	}
	p.emit(Event{Type: EventSignedIn, Session: p.current})
	return nil
}

// SignUp registers a new account without signing it in.
func (p *DevProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return shared.ErrValidation
	}
	p.accounts[email] = devAccount{id: uuid.NewString(), passwordHash: hash, active: true}
	return nil
}

// SignOut clears the current session and emits SIGNED_OUT.
func (p *DevProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.emit(Event{Type: EventSignedOut})
	return nil
}

// CurrentSession returns a copy of the active session, if any.
func (p *DevProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	sess := *p.current
	return &sess, nil
}

var _ Provider = (*DevProvider)(nil)
