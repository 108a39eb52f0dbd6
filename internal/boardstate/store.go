// Package boardstate owns the player-to-boardstate mapping and the
// distinguished self copy. Both are mutated only through the store's
// entry points; callers never read-modify-write them.
package boardstate

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/domain"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/obslog"
)

var (
	// ErrMissingUserID marks a batch element without an owning user.
	ErrMissingUserID = errors.New("boardstate did not have ID")
	// ErrEmptyLibrary refuses a draw from an empty library.
	ErrEmptyLibrary = errors.New("cannot draw from an empty library")
)

// Store holds the latest known boardstate per player plus the self
// slot. Updates arrive from the bulk fetch, from subscription pushes,
// and from mutation echoes; last write wins per key.
type Store struct {
	mu     sync.RWMutex
	boards map[string]domain.Boardstate
	self   domain.Boardstate
	err    error

	notifier notify.Notifier
}

func NewStore(notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.NewLog(nil)
	}
	return &Store{
		boards:   make(map[string]domain.Boardstate),
		notifier: notifier,
	}
}

// ApplyBatch upserts each valid update keyed by its user ID. An
// element without a user ID surfaces a validation error and is
// skipped; the rest of the batch still applies. The joined error of
// all skipped elements is returned.
func (s *Store) ApplyBatch(updates []domain.Boardstate) error {
	var errs []error
	for _, bs := range updates {
		if bs.User.ID == "" {
			err := fmt.Errorf("%w (user %q, game %q)", ErrMissingUserID, bs.User.Username, bs.GameID)
			s.fail(err)
			errs = append(errs, err)
			continue
		}
		s.mu.Lock()
		s.boards[bs.User.ID] = bs
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// ApplySelf wholesale-replaces the self slot. No field merge: the
// previous value is never visible afterwards, even when the new one
// has fewer zones populated.
func (s *Store) ApplySelf(update domain.Boardstate) {
	s.mu.Lock()
	s.self = update
	s.mu.Unlock()
}

// Self returns the current self slot.
func (s *Store) Self() domain.Boardstate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

// Get returns the latest boardstate for the given player.
func (s *Store) Get(userID string) (domain.Boardstate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bs, ok := s.boards[userID]
	return bs, ok
}

// All returns a copy of the keyed mapping.
func (s *Store) All() map[string]domain.Boardstate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Boardstate, len(s.boards))
	for k, v := range s.boards {
		out[k] = v
	}
	return out
}

// Err returns the last error the store committed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Fail records a store-level error and raises a notification. Used by
// the coordinator for transport failures on boardstate paths so the
// error surface lives in one place.
func (s *Store) Fail(err error) {
	s.fail(err)
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	obslog.L().Error("boardstate_error", zap.Error(err))
	s.notifier.Notify(fmt.Sprintf("Boardstate error: %s", err), notify.SeverityError)
}
