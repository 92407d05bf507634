// Package session resolves request identities. A Store is built once at
// start-up with its verification and revocation strategies and handed to the
// middleware and handlers that need it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Roles known to the API.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var (
	// ErrNotInitialized is returned when the store is used before Initialize or after Cleanup.
	ErrNotInitialized = errors.New("session store not initialized")
	// ErrInvalidToken indicates the token could not be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevoked indicates the token was signed out.
	ErrRevoked = errors.New("token revoked")
)

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID uint
	Role   string
	Name   string
}

// IsReviewer reports whether the identity may review assignments.
func (i Identity) IsReviewer() bool {
	return i.Role == RoleTeacher || i.Role == RoleAdmin
}

// Claims is the verified content of a token.
type Claims struct {
	Identity  Identity
	ExpiresAt time.Time
}

// Verifier validates raw tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Revoker records signed-out tokens until they expire.
type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Store.
type Options struct {
	Verifier Verifier
	Revoker  Revoker
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Store authenticates tokens with its injected strategies.
type Store struct {
	verifier Verifier
	revoker  Revoker
	logger   zerolog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	ready bool
}

// NewStore constructs a store. Initialize must be called before use.
func NewStore(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		verifier: opts.Verifier,
		revoker:  opts.Revoker,
		logger:   opts.Logger.With().Str("component", "session_store").Logger(),
		now:      now,
	}
}

// Initialize checks the strategies and marks the store ready.
func (s *Store) Initialize(ctx context.Context) error {
	if s.verifier == nil {
		return errors.New("session store requires a verifier")
	}
	if p, ok := s.revoker.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("session revoker unavailable: %w", err)
		}
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.logger.Info().Bool("revocation", s.revoker != nil).Msg("session store initialized")
	return nil
}

// Cleanup releases the store. Subsequent calls fail with ErrNotInitialized.
func (s *Store) Cleanup() {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
}

// Authenticate verifies token and rejects revoked ones.
func (s *Store) Authenticate(ctx context.Context, token string) (Identity, error) {
	if !s.isReady() {
		return Identity{}, ErrNotInitialized
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("revocation lookup failed")
			return Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Identity{}, ErrRevoked
		}
	}

	return claims.Identity, nil
}

// SignOut revokes token for the rest of its lifetime.
func (s *Store) SignOut(ctx context.Context, token string) error {
	if !s.isReady() {
		return ErrNotInitialized
	}

	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if s.revoker == nil {
		return nil
	}

	ttl := time.Hour
	if !claims.ExpiresAt.IsZero() {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, token, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info().Uint("user_id", claims.Identity.UserID).Msg("session signed out")
	return nil
}

func (s *Store) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
