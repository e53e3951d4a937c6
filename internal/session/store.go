package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Store is the single source of truth for "am I logged in, and as whom".
// It is created once at the application root and passed to whatever needs
// it; there is no package-level instance.
type Store struct {
	resolver Resolver
	logger   zerolog.Logger

	// notifyMu is taken before mu and held while subscribers run, so
	// deliveries happen in mutation order.
	notifyMu sync.Mutex

	mu          sync.Mutex
	current     Session
	generation  uint64
	nextSubID   uint64
	subscribers []subscriber
}

type subscriber struct {
	id uint64
	fn func(Session)
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for store diagnostics
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store in the unauthenticated state. The resolver is
// only consulted by Refresh.
func NewStore(resolver Resolver, opts ...StoreOption) *Store {
	s := &Store{
		resolver: resolver,
		logger:   zerolog.Nop(),
		current:  Anonymous(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns a snapshot of the current state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// SetAuthenticated records a successful login without asking the server.
// Callers use it right after a login response so the UI reflects the login
// before any guard runs.
func (s *Store) SetAuthenticated(u User) error {
	next, err := NewSession(u)
	if err != nil {
		return err
	}
	s.replace(next)
	s.logger.Debug().Str("user_id", u.ID).Str("role", string(next.Role())).Msg("Session set")
	return nil
}

// Clear drops the session.
func (s *Store) Clear() {
	s.replace(Anonymous())
	s.logger.Debug().Msg("Session cleared")
}

// Refresh asks the resolver for the server's view of the session and stores
// it. It never fails: resolver problems come back as the anonymous session.
//
// If SetAuthenticated or Clear runs while the probe is in flight, the probe
// result is stale and is dropped; the returned value is then the store's
// current session.
func (s *Store) Refresh(ctx context.Context) Session {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	resolved := Anonymous()
	if s.resolver != nil {
		resolved = s.resolver.Resolve(ctx)
	}

	if !s.replaceIf(gen, resolved) {
		s.logger.Debug().Msg("Discarding stale session probe")
		return s.Session()
	}
	return resolved.clone()
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription. fn may read the store but must not
// mutate it.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) replace(next Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	s.swapLocked(next)
}

// replaceIf swaps the state only if no mutation happened since gen was read.
func (s *Store) replaceIf(gen uint64, next Session) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.swapLocked(next)
	return true
}

// swapLocked must be called with notifyMu and mu held. It releases mu before
// notifying subscribers so a subscriber may read the store; notifyMu stays
// held until the caller returns.
func (s *Store) swapLocked(next Session) {
	s.current = next.clone()
	s.generation++
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next.clone())
	}
}
