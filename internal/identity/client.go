package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SessionEvent reports a change of signed-in state. Session is nil when
// nobody is signed in.
type SessionEvent struct {
	Session *Session
}

// Subscription delivers session events. A slow reader only ever sees the
// latest state; intermediate events are dropped.
type Subscription struct {
	c      chan SessionEvent
	cancel func()
}

// C returns the event channel. It is closed when the subscription is
// cancelled or the client is closed.
func (s *Subscription) C() <-chan SessionEvent { return s.c }

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() { s.cancel() }

// Client holds one person's session, the way a browser tab would.
type Client struct {
	svc *Service

	mu      sync.Mutex
	current *Session
	subs    map[int]chan SessionEvent
	nextID  int
	closed  bool
}

// NewClient creates a signed-out client.
func NewClient(svc *Service) *Client {
	return &Client{svc: svc, subs: make(map[int]chan SessionEvent)}
}

// Subscribe registers for session changes. The current state is delivered
// first.
func (c *Client) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan SessionEvent, 1)
	if c.closed {
		close(ch)
		return &Subscription{c: ch, cancel: func() {}}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- SessionEvent{Session: c.current}

	var once sync.Once
	return &Subscription{c: ch, cancel: func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}}
}

// publish must be called with c.mu held.
func (c *Client) publish() {
	ev := SessionEvent{Session: c.current}
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

// SignIn authenticates and replaces the current session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.svc.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.current = sess
	c.publish()
	c.mu.Unlock()
	return sess, nil
}

// SignOut revokes the current session. The client is signed out locally
// even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	if sess != nil {
		c.publish()
	}
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	if err := c.svc.SignOut(ctx, sess.IDToken); err != nil && !errors.Is(err, ErrInvalidToken) {
		return err
	}
	return nil
}

// Current returns the signed-in session, or nil.
func (c *Client) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// IDToken returns a bearer token for the current session, refreshing it
// when it is about to expire. A session that can no longer be refreshed
// signs the client out.
func (c *Client) IDToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return "", ErrNoSession
	}
	if c.svc.now().Add(30 * time.Second).Before(sess.ExpiresAt) {
		return sess.IDToken, nil
	}

	fresh, err := c.svc.Refresh(ctx, sess.SessionID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != sess {
		// Signed in or out concurrently; the refresh result is stale.
		if c.current == nil {
			return "", ErrNoSession
		}
		return c.current.IDToken, nil
	}
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			c.current = nil
			c.publish()
			return "", ErrNoSession
		}
		return "", err
	}
	c.current = fresh
	c.publish()
	return fresh.IDToken, nil
}

// Close cancels every subscription.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
