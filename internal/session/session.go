// Package session keeps the logged-in user marker under its own key,
// separate from the CRM document.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/repository"
	"github.com/kazkleen/crm/internal/storage"
)

const DefaultKey = "currentUser"

var ErrNoSession = errors.New("no active session")

type Session struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Role      storage.Role `json:"role"`
	StartedAt time.Time    `json:"startedAt"`
}

func (s Session) IsManager() bool {
	return s.Role == storage.RoleManager
}

type Store struct {
	kv      storage.KV
	key     string
	log     *zap.Logger
	timeNow func() time.Time
}

func NewStore(kv storage.KV, key string, log *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, key: key, log: log, timeNow: time.Now}
}

// Begin replaces any existing marker with one for user.
func (s *Store) Begin(ctx context.Context, user storage.User) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Role:      user.Role,
		StartedAt: s.timeNow().UTC(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// Current returns the active marker. A missing or unreadable marker is
// ErrNoSession.
func (s *Store) Current(ctx context.Context) (Session, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.Username == "" {
		s.log.Warn("ignoring unreadable session marker", zap.String("key", s.key))
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Store) End(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
