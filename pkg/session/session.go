// Package session holds who is signed in to the storefront and keeps that
// record in local storage across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/NicolasHaas/goshop/pkg/datastore"
	"github.com/NicolasHaas/goshop/pkg/model"
	"github.com/NicolasHaas/goshop/pkg/rbac"
)

// Persisted keys. They are cleared together on logout, except loginClick.
const (
	KeyAuthToken  = "authToken"
	KeyUser       = "user"
	KeyRole       = "role"
	KeyLoginClick = "loginClick"
)

var (
	ErrEmptyToken = errors.New("session: empty token")
	ErrNilUser    = errors.New("session: nil user")
)

// Sealer protects the token at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Session is a snapshot of the client-side auth state.
// User and Token are either both set or both empty.
type Session struct {
	User        *model.User
	Role        string
	Token       string
	LoginIntent bool
	SearchQuery string
}

// IsLoggedIn is derived from the presence of a user.
func (s Session) IsLoggedIn() bool {
	return s.User != nil
}

// Subject returns the view used for access checks.
func (s Session) Subject() rbac.Subject {
	sub := rbac.Subject{LoggedIn: s.IsLoggedIn()}
	if s.User != nil {
		sub.Roles = append(sub.Roles, s.User.Roles...)
	}
	if s.Role != "" {
		sub.Roles = append(sub.Roles, s.Role)
	}
	return sub
}

// Manager owns the process-wide Session. It is passed explicitly to the
// components that need it.
type Manager struct {
	mu sync.RWMutex

	kv     datastore.KV
	sealer Sealer
	now    func() time.Time

	state    Session
	restored bool

	// OnChange is called after every mutation with the new snapshot.
	OnChange func(Session)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSealer seals the token before it is persisted.
func WithSealer(s Sealer) Option {
	return func(m *Manager) { m.sealer = s }
}

// WithClock overrides time.Now, used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a logged-out Manager backed by kv. It performs no I/O.
func New(kv datastore.KV, opts ...Option) *Manager {
	m := &Manager{
		kv:  kv,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore rebuilds the session from storage. Any read or decode failure
// leaves the session logged out; it never fails the caller. Only the first
// call has an effect.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	if m.restored {
		m.mu.Unlock()
		return
	}
	m.restored = true
	m.mu.Unlock()

	// Without a stored identity the session starts with LoginIntent=false,
	// whatever loginClick holds.
	var s Session
	user, role, token, ok := m.readIdentity(ctx)
	if ok {
		s.User, s.Role, s.Token = user, role, token
		if v, err := m.kv.Get(ctx, KeyLoginClick); err == nil {
			s.LoginIntent, _ = strconv.ParseBool(v)
		} else if !errors.Is(err, datastore.ErrNotFound) {
			slog.Warn("session: read login intent", "err", err)
		}
	}

	m.mu.Lock()
	m.state = s
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if ok {
		slog.Info("session restored", "user", user.Email, "role", role)
	} else {
		slog.Debug("session restored logged out")
	}
	m.notify(snap)
}

// readIdentity loads user/role/token. ok is false when any piece is missing
// or unreadable, or the token has expired.
func (m *Manager) readIdentity(ctx context.Context) (*model.User, string, string, bool) {
	rawUser, err := m.kv.Get(ctx, KeyUser)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			slog.Warn("session: read user", "err", err)
		}
		return nil, "", "", false
	}
	user := &model.User{}
	if err := json.Unmarshal([]byte(rawUser), user); err != nil {
		slog.Warn("session: decode stored user", "err", err)
		return nil, "", "", false
	}

	token, err := m.kv.Get(ctx, KeyAuthToken)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			slog.Warn("session: read token", "err", err)
		}
		return nil, "", "", false
	}
	if m.sealer != nil {
		token, err = m.sealer.Open(token)
		if err != nil {
			slog.Warn("session: open stored token", "err", err)
			return nil, "", "", false
		}
	}
	if token == "" {
		return nil, "", "", false
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(m.now()) {
		slog.Info("session: stored token expired", "expired_at", exp)
		if err := m.kv.Delete(ctx, KeyAuthToken, KeyUser, KeyRole); err != nil {
			slog.Warn("session: clear expired identity", "err", err)
		}
		return nil, "", "", false
	}

	role, err := m.kv.Get(ctx, KeyRole)
	if err != nil && !errors.Is(err, datastore.ErrNotFound) {
		slog.Warn("session: read role", "err", err)
	}
	if role == "" {
		role = user.PrimaryRole()
	}
	return user, role, token, true
}

// Login records a successful sign-in and persists it. The backend already
// checked the credentials; only a non-empty token is required here.
// An empty role falls back to the user's first role.
func (m *Manager) Login(ctx context.Context, user *model.User, role, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if user == nil {
		return ErrNilUser
	}
	if role == "" {
		role = user.PrimaryRole()
	}
	u := *user
	u.Roles = append([]string(nil), user.Roles...)

	m.mu.Lock()
	m.state.User = &u
	m.state.Role = role
	m.state.Token = token
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return m.persistIdentity(ctx, &u, role, token)
}

func (m *Manager) persistIdentity(ctx context.Context, user *model.User, role, token string) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	stored := token
	if m.sealer != nil {
		if stored, err = m.sealer.Seal(token); err != nil {
			return fmt.Errorf("session: seal token: %w", err)
		}
	}
	for _, kv := range [][2]string{
		{KeyAuthToken, stored},
		{KeyUser, string(rawUser)},
		{KeyRole, role},
	} {
		if err := m.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("session: persist %s: %w", kv[0], err)
		}
	}
	return nil
}

// Logout clears the identity in memory and in storage. Login intent and
// the search query are left alone.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.state.User = nil
	m.state.Role = ""
	m.state.Token = ""
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	if err := m.kv.Delete(ctx, KeyAuthToken, KeyUser, KeyRole); err != nil {
		return fmt.Errorf("session: clear identity: %w", err)
	}
	slog.Info("logged out")
	return nil
}

// SetSearch replaces the search query. Empty means no filter.
func (m *Manager) SetSearch(query string) {
	m.mu.Lock()
	m.state.SearchQuery = query
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// SetLoginIntent records whether the user is about to log in. It only
// affects which navigation affordance is shown.
func (m *Manager) SetLoginIntent(ctx context.Context, intent bool) error {
	m.mu.Lock()
	m.state.LoginIntent = intent
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	if err := m.kv.Set(ctx, KeyLoginClick, strconv.FormatBool(intent)); err != nil {
		return fmt.Errorf("session: persist %s: %w", KeyLoginClick, err)
	}
	return nil
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// IsLoggedIn reports whether a user is signed in.
func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.User != nil
}

// IsAdmin reports whether the signed-in user holds the admin role.
func (m *Manager) IsAdmin() bool {
	s := m.Snapshot()
	return s.IsLoggedIn() && rbac.IsAdmin(s.Subject().Roles...)
}

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

func (m *Manager) snapshotLocked() Session {
	s := m.state
	if s.User != nil {
		u := *s.User
		u.Roles = append([]string(nil), s.User.Roles...)
		s.User = &u
	}
	return s
}

func (m *Manager) notify(s Session) {
	if m.OnChange != nil {
		m.OnChange(s)
	}
}
