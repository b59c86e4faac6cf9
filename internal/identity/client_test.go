package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recv(t *testing.T, sub *Subscription) SessionEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session event")
	}
	return SessionEvent{}
}

func TestClient_SubscribeDeliversCurrentState(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	mustCreate(t, svc, "ada@example.com", "hunter22", "Ada")
	c := NewClient(svc)
	defer c.Close()

	sub := c.Subscribe()
	defer sub.Cancel()
	if ev := recv(t, sub); ev.Session != nil {
		t.Fatalf("expected signed-out initial state, got %+v", ev.Session)
	}

	if _, err := c.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}
	ev := recv(t, sub)
	if ev.Session == nil || ev.Session.Email != "ada@example.com" {
		t.Fatalf("expected signed-in event, got %+v", ev.Session)
	}

	late := c.Subscribe()
	defer late.Cancel()
	if ev := recv(t, late); ev.Session == nil {
		t.Fatal("late subscriber should see the current session first")
	}
}

func TestClient_SlowSubscriberSeesLatest(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	mustCreate(t, svc, "ada@example.com", "hunter22", "Ada")
	mustCreate(t, svc, "bob@example.com", "hunter22", "Bob")
	c := NewClient(svc)
	defer c.Close()
	ctx := context.Background()

	sub := c.Subscribe()
	if _, err := c.SignIn(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}
	if err := c.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SignIn(ctx, "bob@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	ev := recv(t, sub)
	if ev.Session == nil || ev.Session.Email != "bob@example.com" {
		t.Fatalf("expected only the latest state, got %+v", ev.Session)
	}
	select {
	case ev := <-sub.C():
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestClient_CancelClosesChannel(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	c := NewClient(svc)
	sub := c.Subscribe()
	recv(t, sub)
	sub.Cancel()
	sub.Cancel()
	if _, ok := <-sub.C(); ok {
		t.Fatal("expected closed channel after Cancel")
	}

	c.Close()
	after := c.Subscribe()
	if _, ok := <-after.C(); ok {
		t.Fatal("subscribing to a closed client should yield a closed channel")
	}
}

func TestClient_IDToken(t *testing.T) {
	svc, _, clock := newTestService(t, Options{TokenTTL: time.Minute, SessionTTL: time.Hour})
	mustCreate(t, svc, "ada@example.com", "hunter22", "Ada")
	c := NewClient(svc)
	defer c.Close()
	ctx := context.Background()

	if _, err := c.IDToken(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	sess, err := c.SignIn(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	tok, err := c.IDToken(ctx)
	if err != nil || tok != sess.IDToken {
		t.Fatalf("expected current token, got %q, %v", tok, err)
	}

	clock.Advance(2 * time.Minute)
	tok, err = c.IDToken(ctx)
	if err != nil {
		t.Fatalf("IDToken refresh: %v", err)
	}
	if _, err := svc.VerifyIDToken(ctx, tok); err != nil {
		t.Fatalf("refreshed token should verify: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := c.IDToken(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expired session should sign the client out, got %v", err)
	}
	if c.Current() != nil {
		t.Error("client should be signed out")
	}
}
