package binding

import (
	"context"

	"parkadmin/internal/bus"
	"parkadmin/internal/pkg/logger"
	"parkadmin/internal/session"
)

// Session keeps an observer in sync with the authentication flag.
type Session struct {
	*state[bool]
	manager *session.Manager
}

// AttachSession loads the flag and subscribes to session changes.
func AttachSession(ctx context.Context, manager *session.Manager, b *bus.Bus, observer Observer[bool], log *logger.Logger) (*Session, error) {
	st, err := attach(ctx, "session", b, bus.TopicSessionChanged, manager.IsAuthenticated, observer, log)
	if err != nil {
		return nil, err
	}
	return &Session{state: st, manager: manager}, nil
}

// Authenticated returns the last loaded flag.
func (s *Session) Authenticated() bool { return s.Value() }

// Login delegates to the manager; the binding refreshes through its signal.
func (s *Session) Login(ctx context.Context, identifier, secret string) (bool, error) {
	return s.manager.Login(ctx, identifier, secret)
}

// Logout delegates to the manager.
func (s *Session) Logout(ctx context.Context) error {
	return s.manager.Logout(ctx)
}
