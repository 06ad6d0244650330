package apiclient

import (
	"context"
	"strings"
	"sync"
)

// TokenStore holds a bearer credential.
type TokenStore interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, token string)
	Clear(ctx context.Context)
}

// MemoryTokenStore is a process-wide store, used as the long-lived
// ("remember me") credential slot.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore returns an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryTokenStore) SetToken(_ context.Context, token string) {
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear(context.Context) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

type sessionSlot struct {
	mu    sync.RWMutex
	token string
}

type sessionKey struct{}

// WithSession attaches a fresh, empty session credential slot to ctx. The
// site adapter calls it once per incoming request so tokens written during
// that request (login without remember-me) stay scoped to it.
func WithSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, &sessionSlot{})
}

// WithToken attaches a session slot pre-filled with token, typically read
// from the visitor's cookie.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionKey{}, &sessionSlot{token: strings.TrimSpace(token)})
}

// ContextTokenStore is the session-scoped store: it reads and writes the slot
// attached to the call context and is empty when none is attached.
type ContextTokenStore struct{}

var _ TokenStore = ContextTokenStore{}

func (ContextTokenStore) Token(ctx context.Context) (string, bool) {
	slot := slotFrom(ctx)
	if slot == nil {
		return "", false
	}
	slot.mu.RLock()
	defer slot.mu.RUnlock()
	return slot.token, slot.token != ""
}

func (ContextTokenStore) SetToken(ctx context.Context, token string) {
	if slot := slotFrom(ctx); slot != nil {
		slot.mu.Lock()
		slot.token = strings.TrimSpace(token)
		slot.mu.Unlock()
	}
}

func (ContextTokenStore) Clear(ctx context.Context) {
	if slot := slotFrom(ctx); slot != nil {
		slot.mu.Lock()
		slot.token = ""
		slot.mu.Unlock()
	}
}

func slotFrom(ctx context.Context) *sessionSlot {
	if ctx == nil {
		return nil
	}
	slot, _ := ctx.Value(sessionKey{}).(*sessionSlot)
	return slot
}

// StaticTokenStore always returns the same token; SetToken and Clear are
// ignored. Handy for service-to-service calls and tests.
type StaticTokenStore string

var _ TokenStore = StaticTokenStore("")

func (s StaticTokenStore) Token(context.Context) (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

func (StaticTokenStore) SetToken(context.Context, string) {}
func (StaticTokenStore) Clear(context.Context)            {}

// Credentials resolves the bearer token for a call. The persistent store is
// consulted before the session store; with neither configured the lookup
// short-circuits to "absent".
type Credentials struct {
	Persistent TokenStore
	Session    TokenStore
}

// Token returns the first token found in precedence order.
func (c Credentials) Token(ctx context.Context) (string, bool) {
	for _, store := range []TokenStore{c.Persistent, c.Session} {
		if store == nil {
			continue
		}
		if token, ok := store.Token(ctx); ok {
			return token, true
		}
	}
	return "", false
}

// Store saves token in the persistent store when remember is set, otherwise
// in the session store. When the preferred store is not configured the other
// one is used. Once the token is written the remaining store is cleared so
// precedence cannot resurrect a stale token.
func (c Credentials) Store(ctx context.Context, token string, remember bool) {
	primary, secondary := c.Session, c.Persistent
	if remember {
		primary, secondary = c.Persistent, c.Session
	}
	if primary == nil {
		primary, secondary = secondary, nil
	}
	if primary == nil {
		return
	}
	primary.SetToken(ctx, token)
	if secondary != nil {
		secondary.Clear(ctx)
	}
}

// Clear removes the token from both stores.
func (c Credentials) Clear(ctx context.Context) {
	if c.Persistent != nil {
		c.Persistent.Clear(ctx)
	}
	if c.Session != nil {
		c.Session.Clear(ctx)
	}
}
