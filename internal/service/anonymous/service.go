// Package anonymous issues session tokens for shoppers who have not signed in.
package anonymous

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type sessionRepo interface {
	PutToken(ctx context.Context, token, anonymousID string, ttl time.Duration) error
	LookupToken(ctx context.Context, token string) (string, error)
}

type Service struct {
	sessions  sessionRepo
	accessTTL time.Duration
}

// New returns a Service whose tokens live as long as the session cart.
func New(sessions sessionRepo, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{sessions: sessions, accessTTL: ttl}
}

// Issue creates an anonymous id and a token bound to it.
func (s *Service) Issue(ctx context.Context) (token, anonymousID string, err error) {
	token, err = randomToken()
	if err != nil {
		return "", "", err
	}
	anonymousID = uuid.NewString()
	if err := s.sessions.PutToken(ctx, token, anonymousID, s.accessTTL); err != nil {
		return "", "", err
	}
	return token, anonymousID, nil
}

// LookupByToken returns the anonymous id behind token.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	id, err := s.sessions.LookupToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return id, nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
