package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lotworks/lotworks/internal/shared"
)

const sessionStorageKey = "identity:session"

// HTTPProvider talks to a GoTrue-style identity service over REST and keeps
// the current session persisted in Redis so it survives process restarts.
type HTTPProvider struct {
	dispatcher

	baseURL string
	apiKey  string
	client  *http.Client
	store   *redis.Client
	logger  *slog.Logger
}

// NewHTTPProvider constructs an HTTPProvider.
func NewHTTPProvider(baseURL, apiKey string, store *redis.Client, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		store:   store,
		logger:  logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// SignInWithPassword exchanges credentials for a session and emits SIGNED_IN.
func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	var token tokenResponse
	status, err := p.post(ctx, "/token?grant_type=password", "", payload, &token)
	if err != nil {
		return err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return shared.ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return fmt.Errorf("identity: sign in: unexpected status %d", status)
	}

	sess := &Session{
		UserID:      token.User.ID,
		AccessToken: token.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if err := p.persist(ctx, sess); err != nil {
		p.logger.Warn("persist session", slog.Any("error", err))
	}
	p.emit(Event{Type: EventSignedIn, Session: sess})
	return nil
}

// SignUp registers a new account. The identity service decides whether the
// account is immediately usable; no event is emitted here.
func (p *HTTPProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) error {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"first_name": meta.FirstName,
			"last_name":  meta.LastName,
			"role":       meta.Role.String(),
		},
	}
	status, err := p.post(ctx, "/signup", "", payload, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("identity: sign up: unexpected status %d", status)
	}
	return nil
}

// SignOut revokes the current session and emits SIGNED_OUT.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	sess, err := p.stored(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if status, err := p.post(ctx, "/logout", sess.AccessToken, nil, nil); err != nil {
			p.logger.Warn("remote logout", slog.Any("error", err))
		} else if status >= http.StatusInternalServerError {
			return fmt.Errorf("identity: sign out: unexpected status %d", status)
		}
	}
	if err := p.store.Del(ctx, sessionStorageKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	p.emit(Event{Type: EventSignedOut})
	return nil
}

// CurrentSession revalidates the persisted session against the identity
// service. A rejected token clears local state and reads as signed out.
func (p *HTTPProvider) CurrentSession(ctx context.Context) (*Session, error) {
	sess, err := p.stored(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		_ = p.store.Del(ctx, sessionStorageKey).Err()
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	p.decorate(req, sess.AccessToken)
	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		_ = p.store.Del(ctx, sessionStorageKey).Err()
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: validate session: unexpected status %d", res.StatusCode)
	}
	return sess, nil
}

func (p *HTTPProvider) stored(ctx context.Context) (*Session, error) {
	raw, err := p.store.Get(ctx, sessionStorageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (p *HTTPProvider) persist(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Hour
	}
	return p.store.Set(ctx, sessionStorageKey, data, ttl).Err()
}

func (p *HTTPProvider) post(ctx context.Context, path, bearer string, payload, out any) (int, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	p.decorate(req, bearer)
	res, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, err
		}
	}
	return res.StatusCode, nil
}

func (p *HTTPProvider) decorate(req *http.Request, bearer string) {
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

var _ Provider = (*HTTPProvider)(nil)
