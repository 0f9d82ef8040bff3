package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid operator credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrNoOperators        = errors.New("no operators configured")
)

// Session is an authenticated operator session
type Session struct {
	Token     string
	Operator  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// Operators maps operator name to the bcrypt hash of their key
	Operators map[string]string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 12 * time.Hour,
		Operators:       map[string]string{},
	}
}

// ParseOperators parses "name:hash,name:hash" into an operator map
func ParseOperators(s string) (map[string]string, error) {
	ops := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, hash, ok := strings.Cut(part, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("malformed operator entry %q", part)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("operator %s: %w", name, err)
		}
		ops[name] = hash
	}
	return ops, nil
}

// HashKey returns the bcrypt hash of an operator key
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Service verifies operator keys and manages the sessions issued for them.
// Admin routes only see session tokens so bcrypt runs once per login.
type Service struct {
	clock     clock.Clock
	operators map[string]string

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// New creates a new auth service
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	ops := make(map[string]string, len(cfg.Operators))
	for name, hash := range cfg.Operators {
		ops[name] = hash
	}
	return &Service{
		clock:           clock,
		operators:       ops,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// Login checks an operator key against its stored hash and opens a session
func (s *Service) Login(operator, key string) (*Session, error) {
	if len(s.operators) == 0 {
		return nil, ErrNoOperators
	}
	hash, ok := s.operators[operator]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.createSession(operator), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if !s.clock.Now().Before(session.ExpiresAt) {
		s.InvalidateSession(token)
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CleanExpiredSessions removes expired sessions and returns how many were dropped
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

func (s *Service) createSession(operator string) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     newToken(),
		Operator:  operator,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

func newToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return "op_" + base64.RawURLEncoding.EncodeToString(b)
}
