// Package users persists registered accounts in an append-only WAL and keeps
// an in-memory index for lookups.
package users

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/juliobfg/finboard/internal/domain"
)

const (
	defaultUsersDir  = "./wal/users"
	userSegmentLimit = 1000
	userMaxSegments  = 100
	userKeyPrefix    = "user_"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// WALStore is a WAL-backed user store. Registrations are append-only; the
// email index is rebuilt from the log at startup.
type WALStore struct {
	wal     *gowal.Wal
	mu      sync.RWMutex
	byEmail map[string]domain.User
}

// NewWALStore opens (or creates) the user WAL under dir and replays it.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultUsersDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "users_",
		SegmentThreshold: userSegmentLimit,
		MaxSegments:      userMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init user WAL")
	}

	s := &WALStore{wal: wal, byEmail: make(map[string]domain.User)}
	if err := s.replay(); err != nil {
		_ = wal.Close()
		return nil, err
	}
	return s, nil
}

func (s *WALStore) replay() error {
	for idx := uint64(1); idx <= s.wal.CurrentIndex(); idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, userKeyPrefix) {
			continue
		}
		var user domain.User
		if err := json.Unmarshal(payload, &user); err != nil {
			return errors.Wrapf(err, "decode user record at index %d", idx)
		}
		s.byEmail[strings.ToLower(user.Email)] = user
	}
	return nil
}

// Save appends the user to the WAL. Email comparison is case-insensitive and
// duplicates are rejected with ErrEmailTaken.
func (s *WALStore) Save(user domain.User) error {
	if s == nil || s.wal == nil {
		return errors.New("user store is not initialized")
	}
	if user.Email == "" {
		return errors.New("user email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailTaken
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "marshal user record")
	}

	key := fmt.Sprintf("%s%s", userKeyPrefix, user.ID)
	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, key, payload); err != nil {
		return errors.Wrap(err, "append user record")
	}

	s.byEmail[email] = user
	return nil
}

// FindByEmail looks up a user by email, case-insensitively.
func (s *WALStore) FindByEmail(email string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[strings.ToLower(email)]
	return user, ok
}

// Count returns the number of registered users.
func (s *WALStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byEmail)
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("user store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
