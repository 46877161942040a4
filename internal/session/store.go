// Package session persists the logged-in identity and the display preference
// through a storage.KV.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/storage"
)

// Keys used in the backing store.
const (
	KeyCurrentUser = "currentUser"
	KeyDarkMode    = "darkMode"
)

// Store holds at most one Session under KeyCurrentUser.
type Store struct {
	kv     storage.KV
	logger *log.Logger
	now    func() time.Time
}

func NewStore(kv storage.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		kv:     kv,
		logger: logger.WithComponent(log.ComponentSession),
		now:    time.Now,
	}
}

// Save overwrites the stored session.
func (s *Store) Save(ctx context.Context, sess core.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCurrentUser, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the stored session. Missing, unreadable, malformed, anonymous
// or expired records all report false; Load never fails.
func (s *Store) Load(ctx context.Context) (core.Session, bool) {
	raw, err := s.kv.Get(ctx, KeyCurrentUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "Session read failed", log.FieldError, err.Error())
		}
		return core.Session{}, false
	}

	var sess core.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.WarnContext(ctx, "Discarding malformed session", log.FieldError, err.Error())
		return core.Session{}, false
	}
	if !sess.Valid() {
		return core.Session{}, false
	}
	if TokenExpired(sess.Token, s.now()) {
		s.logger.InfoContext(ctx, "Stored session token expired", log.FieldUsername, sess.Username)
		return core.Session{}, false
	}
	return sess, true
}

// Clear removes the stored session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyCurrentUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
