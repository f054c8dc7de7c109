package session

import (
	"context"
	"errors"
	"testing"
)

func TestEstablishAnonymous(t *testing.T) {
	p := NewProvider("")
	if _, ok := p.Current(); ok {
		t.Fatalf("expected no session before establishment")
	}

	s, err := p.Establish(context.Background())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if s.ID == "" || !s.Anonymous {
		t.Fatalf("expected anonymous identity, got %+v", s)
	}

	got, ok := p.Current()
	if !ok || got.ID != s.ID {
		t.Fatalf("current session mismatch: %+v", got)
	}
}

func TestEstablishFromToken(t *testing.T) {
	p := NewProvider("practice.user-42.sig")
	s, err := p.Establish(context.Background())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if s.ID != "user-42" || s.Anonymous {
		t.Fatalf("expected token identity, got %+v", s)
	}
}

func TestEstablishMalformedToken(t *testing.T) {
	p := NewProvider("garbage")
	_, err := p.Establish(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if _, ok := p.Current(); ok {
		t.Fatalf("failed establishment must not leave a session")
	}
}

func TestEstablishCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider("").Establish(ctx)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError on cancelled context, got %v", err)
	}
}
