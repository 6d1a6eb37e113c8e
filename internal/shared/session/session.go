// Package session binds an authenticated account to a client through an
// encrypted cookie and resolves it back on later requests.
//
// Terminated sessions are remembered in process memory only. After a restart,
// or on another instance, a terminated cookie resolves again until it expires,
// so keep SESSION_TTL short when running more than one replica.
package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrasnagy-data/gatehouse/internal/components/account"
	"github.com/andrasnagy-data/gatehouse/internal/shared/config"
	"github.com/andrasnagy-data/gatehouse/internal/shared/cookie"
)

const cookieName = "session"

// ErrNoSession means the request is unauthenticated: the cookie is missing,
// invalid, expired, terminated, or names an account that no longer resolves.
var ErrNoSession = errors.New("no valid session")

type (
	// Resolver loads the account a session is bound to.
	Resolver interface {
		FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	}

	Manager struct {
		codec    *cookie.Codec
		accounts Resolver
		ttl      time.Duration
		now      func() time.Time
		revoked  *revocations
	}

	token struct {
		accountID uuid.UUID
		sessionID uuid.UUID
		expiresAt time.Time
	}

	// revocations remembers terminated session ids until they would have
	// expired anyway.
	revocations struct {
		mu  sync.Mutex
		ids map[uuid.UUID]time.Time
	}
)

// NewManager builds the manager from the configured secret and TTL.
func NewManager(cfg *config.Config, accounts Resolver) (*Manager, error) {
	secret, err := cfg.Secret()
	if err != nil {
		return nil, err
	}
	return New(secret, cfg.SessionTTL, cfg.CookieSecure, accounts)
}

func New(secret []byte, ttl time.Duration, secure bool, accounts Resolver) (*Manager, error) {
	codec, err := cookie.NewCodec(secret, cookie.Options{Secure: secure, MaxAge: ttl})
	if err != nil {
		return nil, err
	}
	return &Manager{
		codec:    codec,
		accounts: accounts,
		ttl:      ttl,
		now:      time.Now,
		revoked:  &revocations{ids: make(map[uuid.UUID]time.Time)},
	}, nil
}

// Establish issues a fresh session for subject. A session already carried by
// the request is terminated first.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, subject account.Subject) error {
	if prev, err := m.current(r); err == nil {
		m.revoked.add(prev.sessionID, prev.expiresAt, m.now())
	}

	t := token{
		accountID: subject.SubjectID(),
		sessionID: uuid.New(),
		expiresAt: m.now().Add(m.ttl),
	}
	return m.codec.Write(w, cookieName, t.String())
}

// Resolve returns the account of the request's session, or ErrNoSession.
// Any other error comes from the account lookup.
func (m *Manager) Resolve(r *http.Request) (*account.Account, error) {
	t, err := m.current(r)
	if err != nil {
		return nil, ErrNoSession
	}

	acc, err := m.accounts.FindByID(r.Context(), t.accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrNoSession
	}
	return acc, nil
}

// Terminate invalidates the request's session and clears the cookie.
func (m *Manager) Terminate(w http.ResponseWriter, r *http.Request) {
	if t, err := m.current(r); err == nil {
		m.revoked.add(t.sessionID, t.expiresAt, m.now())
	}
	m.codec.Clear(w, cookieName)
}

func (m *Manager) current(r *http.Request) (token, error) {
	raw, err := m.codec.Read(r, cookieName)
	if err != nil {
		return token{}, err
	}
	t, err := parseToken(raw)
	if err != nil {
		return token{}, err
	}
	if !m.now().Before(t.expiresAt) {
		return token{}, ErrNoSession
	}
	if m.revoked.has(t.sessionID) {
		return token{}, ErrNoSession
	}
	return t, nil
}

func (t token) String() string {
	return t.accountID.String() + "|" + t.sessionID.String() + "|" + strconv.FormatInt(t.expiresAt.Unix(), 10)
}

func parseToken(raw string) (token, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return token{}, cookie.ErrInvalidValue
	}
	accountID, err := uuid.Parse(parts[0])
	if err != nil {
		return token{}, cookie.ErrInvalidValue
	}
	sessionID, err := uuid.Parse(parts[1])
	if err != nil {
		return token{}, cookie.ErrInvalidValue
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return token{}, cookie.ErrInvalidValue
	}
	return token{accountID: accountID, sessionID: sessionID, expiresAt: time.Unix(exp, 0)}, nil
}

func (rv *revocations) add(id uuid.UUID, expiresAt, now time.Time) {
	rv.mu.Lock()
	defer rv.mu.Unlock()

	for k, exp := range rv.ids {
		if !now.Before(exp) {
			delete(rv.ids, k)
		}
	}
	rv.ids[id] = expiresAt
}

func (rv *revocations) has(id uuid.UUID) bool {
	rv.mu.Lock()
	defer rv.mu.Unlock()

	_, ok := rv.ids[id]
	return ok
}
