package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gridfire-go/internal/dependencies/clock"
	"github.com/mcoot/gridfire-go/internal/dependencies/random"
	"github.com/mcoot/gridfire-go/internal/model"
	"github.com/mcoot/gridfire-go/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrNotInGame          = errors.New("session is not bound to this game")
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Session is an authenticated identity. Once the holder creates or joins
// a game it is bound to that game's seat; the core only ever consumes the
// validated (game, player, name) binding.
type Session struct {
	Token       string
	DisplayName string
	Username    string // Empty for guests

	GameID   model.GameID   // Empty until bound
	PlayerID model.PlayerID // Empty until bound

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// Service issues and validates player credentials
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// New creates a new auth service
func New(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         store,
		clock:           clk,
		random:          rnd,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateGuest issues a session for an anonymous player
func (s *Service) CreateGuest(displayName string) (*Session, error) {
	return s.createSession(displayName, ""), nil
}

// Register creates a registered account and issues a session
func (s *Service) Register(ctx context.Context, username, password, displayName string) (*Session, error) {
	_, err := s.storage.GetAccountByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	return s.createSession(displayName, username), nil
}

// Login authenticates a registered account and issues a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.storage.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(account.DisplayName, account.Username), nil
}

// ValidateSession checks a token and returns the live session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// BindGame attaches the session to a game seat. A session holds at most
// one seat; creating or joining a new game rebinds it.
func (s *Service) BindGame(token string, gameID model.GameID, playerID model.PlayerID) error {
	session, err := s.ValidateSession(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	session.GameID = gameID
	session.PlayerID = playerID
	s.mu.Unlock()
	return nil
}

// GameSeat validates that the session is bound to the given game and
// returns the seat's player ID
func (s *Service) GameSeat(token string, gameID model.GameID) (model.PlayerID, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if session.GameID != gameID || session.PlayerID == "" {
		return "", ErrNotInGame
	}
	return session.PlayerID, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// createSession mints and stores a new session
func (s *Service) createSession(displayName, username string) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:       "sess_" + s.random.String(24, tokenAlphabet),
		DisplayName: displayName,
		Username:    username,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}
