package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"crmdesk/internal/storage"
)

var (
	// ErrInvalidCredentials indicates the server rejected the email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoRefreshToken indicates a refresh was attempted without a stored token.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrRefreshFailed indicates the refresh token was rejected; the session is gone.
	ErrRefreshFailed = errors.New("session refresh failed")
)

// Manager owns the session lifecycle: login, refresh, logout, persistence,
// and invalidation notifications. All methods are safe for concurrent use.
type Manager struct {
	baseURL string
	client  *http.Client
	store   *storage.Store
	log     zerolog.Logger

	mu      sync.Mutex
	state   State
	session Session
	subs    []func()
}

// NewManager builds a Manager and restores any persisted session.
func NewManager(ctx context.Context, baseURL string, client *http.Client, store *storage.Store, log zerolog.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	m := &Manager{
		baseURL: baseURL,
		client:  client,
		store:   store,
		log:     log.With().Str("component", "session").Logger(),
	}
	m.restore(ctx)
	return m
}

func (m *Manager) restore(ctx context.Context) {
	token, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return
	}
	m.session.AccessToken = token
	if refresh, err := m.store.Get(ctx, storage.KeyRefreshToken); err == nil {
		m.session.RefreshToken = refresh
	}
	if raw, err := m.store.Get(ctx, storage.KeyUser); err == nil {
		var user UserRecord
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			m.session.User = &user
		}
	}
	if m.session.Authenticated() || m.session.RefreshToken != "" {
		m.state = StateAuthenticated
		m.log.Debug().Msg("restored persisted session")
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken
}

// RefreshToken returns the stored refresh token, or "".
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.RefreshToken
}

// User returns the authenticated user record, or nil.
func (m *Manager) User() *UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.User
}

// Authenticated reports whether a live session is present.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Authenticated()
}

// Subscribe registers a callback invoked when the session becomes invalid
// (refresh failure or logout). Callbacks run outside the manager lock.
func (m *Manager) Subscribe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *UserRecord `json:"user"`
}

// Login exchanges credentials for a session. The refresh token is persisted
// only when keepSignedIn is set; otherwise any previously stored one is
// removed so a restart cannot silently extend the session.
func (m *Manager) Login(ctx context.Context, email, password string, keepSignedIn bool) error {
	m.setState(StateAuthenticating)

	var resp loginResponse
	status, err := m.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		m.setState(StateAnonymous)
		return fmt.Errorf("login: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusBadRequest {
		m.setState(StateAnonymous)
		return ErrInvalidCredentials
	}
	if status != http.StatusOK || resp.Token == "" {
		m.setState(StateAnonymous)
		return fmt.Errorf("login: unexpected status %d", status)
	}

	m.mu.Lock()
	m.session = Session{User: resp.User, AccessToken: resp.Token}
	if keepSignedIn {
		m.session.RefreshToken = resp.RefreshToken
	}
	m.state = StateAuthenticated
	m.mu.Unlock()

	if err := m.store.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		return err
	}
	if keepSignedIn && resp.RefreshToken != "" {
		if err := m.store.Set(ctx, storage.KeyRefreshToken, resp.RefreshToken); err != nil {
			return err
		}
	} else {
		if err := m.store.Delete(ctx, storage.KeyRefreshToken); err != nil {
			return err
		}
	}
	if resp.User != nil {
		raw, err := json.Marshal(resp.User)
		if err == nil {
			if err := m.store.Set(ctx, storage.KeyUser, string(raw)); err != nil {
				return err
			}
		}
		if err := m.store.Set(ctx, storage.KeyUserID, resp.User.ID); err != nil {
			return err
		}
	}
	m.log.Info().Str("email", email).Bool("keepSignedIn", keepSignedIn).Msg("logged in")
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

// Refresh mints a new access token from the stored refresh token. A failed
// refresh is terminal: credentials are cleared and subscribers notified.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	refreshToken := m.session.RefreshToken
	m.mu.Unlock()

	if refreshToken == "" {
		m.forceLogout(ctx)
		return "", ErrNoRefreshToken
	}

	m.setState(StateRefreshing)
	var resp refreshResponse
	status, err := m.post(ctx, "/auth/refresh-token", refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// A cancelled call proves nothing about the refresh token;
			// the session stays intact.
			m.setState(StateAuthenticated)
			return "", fmt.Errorf("refresh: %w", err)
		}
		m.forceLogout(ctx)
		return "", fmt.Errorf("refresh: %w", err)
	}
	if status != http.StatusOK || resp.Token == "" {
		m.forceLogout(ctx)
		return "", ErrRefreshFailed
	}

	m.mu.Lock()
	m.session.AccessToken = resp.Token
	m.state = StateAuthenticated
	m.mu.Unlock()

	if err := m.store.Set(ctx, storage.KeyToken, resp.Token); err != nil {
		return resp.Token, err
	}
	m.log.Info().Msg("access token refreshed")
	return resp.Token, nil
}

// Logout best-effort notifies the server, then unconditionally clears every
// stored credential and resets to anonymous.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.post(ctx, "/auth/logout", struct{}{}, nil); err != nil {
		m.log.Warn().Err(err).Msg("logout endpoint unreachable")
	}
	m.forceLogout(ctx)
	return nil
}

func (m *Manager) forceLogout(ctx context.Context) {
	m.mu.Lock()
	m.session = Session{}
	m.state = StateAnonymous
	subs := make([]func(), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	// Credentials must come off disk even when the triggering context is
	// already cancelled.
	if err := m.store.Delete(context.WithoutCancel(ctx), storage.KeyToken, storage.KeyRefreshToken, storage.KeyUser, storage.KeyUserID); err != nil {
		m.log.Error().Err(err).Msg("clear credentials")
	}
	for _, fn := range subs {
		fn()
	}
	m.log.Info().Msg("session cleared")
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// post sends a JSON request to an auth endpoint. Auth endpoints bypass the
// authenticated transport so a refresh can never recurse into itself; the
// bearer header is attached directly where a token exists.
func (m *Manager) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := m.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read response: %w", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
