// Package session supplies the current-user identity. The rest of the
// system only needs two things from it: whether a session exists, and the
// id that tags records created by this process.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type (
	Session struct {
		ID        string
		Anonymous bool
	}

	// Provider establishes and holds the process session. Establishment
	// happens once at startup; refresh mechanics live outside the core.
	Provider struct {
		token   string
		current *Session
	}
)

// AuthError reports a failed session establishment. Recoverable: the
// caller may retry startup with corrected credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("session establishment failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewProvider builds a provider. token may be empty, in which case an
// anonymous identity is minted at establishment.
func NewProvider(token string) *Provider {
	return &Provider{token: strings.TrimSpace(token)}
}

// Establish creates the session: from the configured token when present,
// anonymous otherwise.
func (p *Provider) Establish(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, &AuthError{Err: err}
	}

	if p.token != "" {
		id, err := identityFromToken(p.token)
		if err != nil {
			return Session{}, &AuthError{Err: err}
		}
		p.current = &Session{ID: id}
		return *p.current, nil
	}

	p.current = &Session{ID: uuid.NewString(), Anonymous: true}
	return *p.current, nil
}

// Current returns the established session, or false when establishment has
// not happened yet.
func (p *Provider) Current() (Session, bool) {
	if p.current == nil {
		return Session{}, false
	}
	return *p.current, true
}

// identityFromToken derives a stable session id from an opaque token. The
// token format is subject.id.signature; only the id segment matters here.
func identityFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("malformed session token")
	}
	return parts[1], nil
}
