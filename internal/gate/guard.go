package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/alecgard/accolade/internal/identity"
)

// RoleFetcher loads the role for a subject. A missing Role Record is
// reported as "" with a nil error.
type RoleFetcher interface {
	Role(ctx context.Context, uid string) (string, error)
}

// State is a snapshot of what the guard knows.
type State struct {
	Session    *identity.Session
	Role       string
	RoleLoaded bool
	// Known is false until the first session event arrives.
	Known bool
	// Err holds the last role fetch failure. The role is then treated as
	// absent.
	Err error
}

// Settled reports whether a decision can be made from s.
func (s State) Settled() bool {
	return s.Known && (s.Session == nil || s.RoleLoaded)
}

// Input converts s into a gate input for path.
func (s State) Input(path string) Input {
	return Input{
		Loaded:     s.Settled(),
		HasSession: s.Session != nil,
		Role:       s.Role,
		Path:       path,
	}
}

// Guard is the auth context for one client. It follows session events and
// keeps the matching role loaded. When the session changes while a role
// fetch is in flight, that fetch is cancelled and its result discarded.
type Guard struct {
	roles  RoleFetcher
	log    *slog.Logger
	base   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	gen        uint64
	fetchStop  context.CancelFunc
	changed    chan struct{}
	closed     bool
	fetchGroup sync.WaitGroup
}

// NewGuard creates a guard with no session information yet.
func NewGuard(roles RoleFetcher, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Guard{
		roles:   roles,
		log:     logger,
		base:    base,
		cancel:  cancel,
		changed: make(chan struct{}),
	}
}

// Run applies session events until ctx is done or events is closed.
func (g *Guard) Run(ctx context.Context, events <-chan identity.SessionEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.Observe(ev)
		}
	}
}

// Observe applies one session event. A new session starts a role fetch
// and replaces any fetch still running.
func (g *Guard) Observe(ev identity.SessionEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	g.gen++
	if g.fetchStop != nil {
		g.fetchStop()
		g.fetchStop = nil
	}

	g.state = State{Session: ev.Session, Known: true}
	if ev.Session == nil {
		g.notifyLocked()
		return
	}

	ctx, stop := context.WithCancel(g.base)
	g.fetchStop = stop
	gen, uid := g.gen, ev.Session.UID
	g.fetchGroup.Add(1)
	go g.fetch(ctx, gen, uid)
	g.notifyLocked()
}

func (g *Guard) fetch(ctx context.Context, gen uint64, uid string) {
	defer g.fetchGroup.Done()
	role, err := g.roles.Role(ctx, uid)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen || g.closed {
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.log.Warn("role fetch failed, treating role as absent", "uid", uid, "error", err)
		}
		role = ""
	}
	g.state.Role = role
	g.state.RoleLoaded = true
	g.state.Err = err
	if g.fetchStop != nil {
		g.fetchStop()
		g.fetchStop = nil
	}
	g.notifyLocked()
}

func (g *Guard) notifyLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}

// State returns the current snapshot.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate decides for path using the current state. It returns Loading
// until the latest session's role has been fetched.
func (g *Guard) Evaluate(path string) Decision {
	return Decide(g.State().Input(path))
}

// WaitSettled blocks until the state is settled or ctx is done.
func (g *Guard) WaitSettled(ctx context.Context) (State, error) {
	for {
		g.mu.Lock()
		st, ch, closed := g.state, g.changed, g.closed
		g.mu.Unlock()
		if st.Settled() {
			return st, nil
		}
		if closed {
			return st, errors.New("gate: guard closed")
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close cancels any fetch in flight and releases waiters. Closing is the
// teardown of the auth context; the guard ignores events afterwards.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.cancel()
	g.notifyLocked()
	g.mu.Unlock()
	g.fetchGroup.Wait()
}
