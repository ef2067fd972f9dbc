package garmin

import (
	"context"
	"errors"
	"sync"

	"github.com/2beens/garminstats/internal/activities"

	log "github.com/sirupsen/logrus"
)

// Session is an activities source for long running processes. It logs in on first use
// and again whenever the token is gone or rejected.
type Session struct {
	client   *Client
	email    string
	password string

	loginMu sync.Mutex
}

func NewSession(client *Client, email, password string) *Session {
	return &Session{
		client:   client,
		email:    email,
		password: password,
	}
}

func (s *Session) ensureLoggedIn(ctx context.Context) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	if s.client.LoggedIn() {
		return nil
	}
	return s.client.Login(ctx, s.email, s.password)
}

func (s *Session) Activities(ctx context.Context, start, limit int) ([]activities.Activity, error) {
	if err := s.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	acts, err := s.client.Activities(ctx, start, limit)
	if errors.Is(err, ErrNotLoggedIn) {
		log.Debugf("garmin session [%s]: token expired, logging in again", s.email)
		if err := s.ensureLoggedIn(ctx); err != nil {
			return nil, err
		}
		return s.client.Activities(ctx, start, limit)
	}
	return acts, err
}
