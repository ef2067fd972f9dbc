package garmin

import (
	"context"
	"errors"
	"time"
)

var ErrTokenNotFound = errors.New("token not found")

const tokenKeyPrefix = "garmin-token::"

// expiryMargin keeps a token from being used right before it expires.
const expiryMargin = time.Minute

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	// bcrypt hash of the password the token was issued for, a stored token is only
	// handed out again for the same password
	PasswordHash string `json:"password_hash,omitempty"`
}

func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return now.Add(expiryMargin).Before(t.ExpiresAt)
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=garmin_test

// TokenStore keeps access tokens between logins, keyed by the login email.
type TokenStore interface {
	Get(ctx context.Context, email string) (*Token, error)
	Set(ctx context.Context, email string, token Token) error
	Delete(ctx context.Context, email string) error
}

func tokenKey(email string) string {
	return tokenKeyPrefix + email
}
