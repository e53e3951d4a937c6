package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LoginPath is where denied navigations are sent. The originally requested
// destination is not remembered.
const LoginPath = "/login"

// Requirement is what a route demands of the session.
type Requirement int

const (
	// RequireSession admits any logged-in user regardless of role.
	RequireSession Requirement = iota
	RequireUser
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireSession:
		return "session"
	case RequireUser:
		return "user"
	case RequireAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Admits reports whether s satisfies the requirement. Unknown requirement
// values admit nothing.
func (r Requirement) Admits(s Session) bool {
	if !s.Authenticated || s.User == nil {
		return false
	}
	switch r {
	case RequireSession:
		return true
	case RequireUser:
		return s.User.Role == RoleUser
	case RequireAdmin:
		return s.User.Role == RoleAdmin
	default:
		return false
	}
}

// RequirementFor maps a role to the requirement that admits exactly it.
func RequirementFor(role Role) Requirement {
	switch role {
	case RoleAdmin:
		return RequireAdmin
	case RoleUser:
		return RequireUser
	default:
		return RequireSession
	}
}

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	Pending Decision = iota
	Allowed
	Denied
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Guard decides whether a navigation may proceed. It always asks the
// resolver rather than trusting a cached session, so a session that ended
// elsewhere cannot pass on a stale client-side flag.
type Guard struct {
	resolver Resolver
	logger   zerolog.Logger
	metrics  *Metrics
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithGuardLogger sets the guard's logger
func WithGuardLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithGuardMetrics records decisions
func WithGuardMetrics(m *Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

// NewGuard creates a guard probing through resolver
func NewGuard(resolver Resolver, opts ...GuardOption) *Guard {
	g := &Guard{
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check runs one evaluation to completion and returns Allowed or Denied.
// A check abandoned through ctx is Denied and is not recorded.
func (g *Guard) Check(ctx context.Context, req Requirement) Decision {
	s := g.resolver.Resolve(ctx)
	if ctx.Err() != nil {
		return Denied
	}
	return g.decide(req, s)
}

// Admit decides from a session the caller already holds, without a probe.
// Only the login screen's own post-login redirect uses it.
func (g *Guard) Admit(req Requirement, s Session) Decision {
	return g.decide(req, s)
}

func (g *Guard) decide(req Requirement, s Session) Decision {
	d := Denied
	if req.Admits(s) {
		d = Allowed
	}
	g.metrics.observeDecision(req, d)
	g.logger.Debug().
		Str("requirement", req.String()).
		Str("role", string(s.Role())).
		Str("decision", d.String()).
		Msg("Route guard decision")
	return d
}

// Evaluate starts an evaluation in the background. The returned Evaluation
// reports Pending until the probe finishes.
func (g *Guard) Evaluate(ctx context.Context, req Requirement) *Evaluation {
	ctx, cancel := context.WithCancel(ctx)
	e := &Evaluation{
		requirement: req,
		done:        make(chan struct{}),
		cancel:      cancel,
	}

	go func() {
		defer cancel()
		e.resolve(g.Check(ctx, req))
	}()

	return e
}

// Evaluation is one in-flight guard decision: Pending, then Allowed or
// Denied. It is never reused; a new navigation starts a new evaluation.
type Evaluation struct {
	requirement Requirement
	cancel      context.CancelFunc
	done        chan struct{}

	// deliver is held while callbacks run so Dispose waits for them.
	deliver sync.Mutex

	mu         sync.Mutex
	decision   Decision
	disposed   bool
	onResolved []func(Decision)
}

// Requirement returns what this evaluation checks
func (e *Evaluation) Requirement() Requirement {
	return e.requirement
}

// Decision returns the current state without blocking.
func (e *Evaluation) Decision() Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decision
}

// Done is closed once the evaluation has resolved.
func (e *Evaluation) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the evaluation resolves or ctx ends. If ctx ends first
// the result is Pending.
func (e *Evaluation) Wait(ctx context.Context) Decision {
	select {
	case <-e.done:
		return e.Decision()
	case <-ctx.Done():
		return Pending
	}
}

// OnResolved registers fn to receive the decision. If the evaluation has
// already resolved fn runs immediately; after Dispose it never runs. fn must
// not call Dispose.
func (e *Evaluation) OnResolved(fn func(Decision)) {
	e.deliver.Lock()
	defer e.deliver.Unlock()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	if e.decision == Pending {
		e.onResolved = append(e.onResolved, fn)
		e.mu.Unlock()
		return
	}
	d := e.decision
	e.mu.Unlock()
	fn(d)
}

// Dispose abandons the evaluation: the probe is cancelled and no callback
// registered through OnResolved runs after Dispose returns.
func (e *Evaluation) Dispose() {
	e.deliver.Lock()
	e.mu.Lock()
	e.disposed = true
	e.onResolved = nil
	e.mu.Unlock()
	e.deliver.Unlock()
	e.cancel()
}

func (e *Evaluation) resolve(d Decision) {
	e.deliver.Lock()
	defer e.deliver.Unlock()

	e.mu.Lock()
	e.decision = d
	callbacks := e.onResolved
	e.onResolved = nil
	disposed := e.disposed
	e.mu.Unlock()
	close(e.done)

	if disposed {
		return
	}
	for _, fn := range callbacks {
		fn(d)
	}
}
