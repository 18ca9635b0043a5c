// Package session stores console sessions: the API credentials a browser
// session was issued on login, keyed by the sid cookie.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/apiclient"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID          string                `json:"id"`
	Username    string                `json:"username"`
	Credentials apiclient.Credentials `json:"credentials"`
	ExpiresAt   time.Time             `json:"expires_at"`
}

// New starts a session valid for ttl.
func New(username string, creds apiclient.Credentials, ttl time.Duration) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Username:    username,
		Credentials: creds,
		ExpiresAt:   time.Now().Add(ttl),
	}
}

func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
