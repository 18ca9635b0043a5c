package apiclient

import (
	"context"
)

// Credentials is the API session of one console user: the session cookie
// and the CSRF token it is paired with.
type Credentials struct {
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
}

func (c *Credentials) Valid() bool {
	return c != nil && c.SessionID != ""
}

type credentialsKey struct{}

// WithCredentials binds the API session used by calls made with ctx.
func WithCredentials(ctx context.Context, creds *Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func UseCredentials(ctx context.Context) (*Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(*Credentials)
	return creds, ok && creds.Valid()
}
