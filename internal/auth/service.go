// Package auth implements account registration and session management for
// the dashboard. Sessions are short-lived signed tokens tracked server-side
// so logout revokes them before expiry.
package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/juliobfg/finboard/internal/domain"
)

// DefaultSessionTTL matches the dashboard's 30-minute session window.
const DefaultSessionTTL = 30 * time.Minute

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidSession is returned for missing, expired or revoked tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// UserStore persists registered accounts.
type UserStore interface {
	Save(user domain.User) error
	FindByEmail(email string) (domain.User, bool)
}

// Service issues and validates sessions.
type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewService creates an auth service signing sessions with secret.
func NewService(store UserStore, secret []byte, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		secret:   secret,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}
}

// Register creates an account and opens a session for it.
func (s *Service) Register(name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", errors.New("name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.Save(user); err != nil {
		return "", err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.openSession(user)
}

// Login verifies credentials and opens a session.
func (s *Service) Login(email, password string) (string, error) {
	user, ok := s.store.FindByEmail(strings.TrimSpace(email))
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return s.openSession(user)
}

func (s *Service) openSession(user domain.User) (string, error) {
	sessionID := uuid.NewString()
	expires := s.now().Add(s.ttl)

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}

	s.mu.Lock()
	s.sessions[sessionID] = expires
	s.mu.Unlock()

	return token, nil
}

// Validate checks a session token and returns the user ID it belongs to.
func (s *Service) Validate(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", ErrInvalidSession
	}

	s.mu.Lock()
	expires, active := s.sessions[claims.ID]
	s.mu.Unlock()

	if !active || s.now().After(expires) {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// Logout revokes the session carried by token. Unknown and malformed tokens
// are ignored.
func (s *Service) Logout(token string) {
	claims, err := s.parse(token)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.sessions, claims.ID)
	s.mu.Unlock()
}

// HasActiveSession reports whether any unexpired session exists. The finance
// poller consults it on every tick so quotes are only fetched while someone
// is logged in. Expired sessions are pruned as a side effect.
func (s *Service) HasActiveSession() bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expires := range s.sessions {
		if now.After(expires) {
			delete(s.sessions, id)
			continue
		}
		return true
	}
	return false
}

func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
