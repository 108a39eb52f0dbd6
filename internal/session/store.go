// Package session holds the local user's identity. Hydrated once from
// persisted storage at startup, replaced wholesale on login or signup,
// cleared wholesale on logout. Every other component only reads it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/domain"
	"github.com/veldt-labs/commandzone/internal/gql"
	"github.com/veldt-labs/commandzone/internal/nav"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/obslog"
	"github.com/veldt-labs/commandzone/internal/persist"
)

type Store struct {
	mu   sync.RWMutex
	user domain.Session
	err  error

	kv       persist.KV
	api      gql.Mutator
	notifier notify.Notifier
	nav      nav.Navigator
}

func NewStore(kv persist.KV, api gql.Mutator, notifier notify.Notifier, navigator nav.Navigator) *Store {
	if notifier == nil {
		notifier = notify.NewLog(nil)
	}
	if navigator == nil {
		navigator = nav.Log{}
	}
	return &Store{kv: kv, api: api, notifier: notifier, nav: navigator}
}

// Hydrate loads persisted identity. A missing user ID is generated
// client-side and written back so it stays stable across runs. Called
// once at process start and never again.
func (s *Store) Hydrate(ctx context.Context) error {
	username, err := s.readKey(ctx, persist.KeyUsername)
	if err != nil {
		return err
	}
	token, err := s.readKey(ctx, persist.KeyToken)
	if err != nil {
		return err
	}
	id, err := s.readKey(ctx, persist.KeyUserID)
	if err != nil {
		return err
	}
	if id == "" {
		id = uuid.NewString()
		if err := s.kv.Set(ctx, persist.KeyUserID, id); err != nil {
			return fmt.Errorf("persist generated user ID: %w", err)
		}
		obslog.L().Info("generated_user_id", zap.String("user_id", id))
	}

	s.mu.Lock()
	s.user = domain.Session{Username: username, ID: id, Token: token}
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for a session and replaces the current
// one wholesale.
func (s *Store) Login(ctx context.Context, username, password string) error {
	var out struct {
		Login domain.Session `json:"login"`
	}
	vars := map[string]any{"username": username, "password": password}
	if err := s.api.Mutate(ctx, gql.LoginMutation, vars, &out); err != nil {
		s.fail(fmt.Errorf("login: %w", err), "failed to login")
		return err
	}
	if err := s.setUser(ctx, out.Login); err != nil {
		return err
	}
	s.nav.Push("/games")
	return nil
}

// Signup registers the account and chains into Login on success.
func (s *Store) Signup(ctx context.Context, username, password string) error {
	var out struct {
		Signup domain.Session `json:"signup"`
	}
	vars := map[string]any{"username": username, "password": password}
	if err := s.api.Mutate(ctx, gql.SignupMutation, vars, &out); err != nil {
		s.fail(fmt.Errorf("signup: %w", err), "failed to signup")
		return err
	}
	return s.Login(ctx, username, password)
}

// Logout resets the session to empty values and clears every
// persisted identity key.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = domain.Session{}
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{persist.KeyUsername, persist.KeyUserID, persist.KeyToken, persist.KeyUserInfo} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	s.nav.Push("/")
	return errors.Join(errs...)
}

// User returns the current session value.
func (s *Store) User() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the stable local user ID.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.ID
}

// Token returns the current auth token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Token
}

func (s *Store) setUser(ctx context.Context, u domain.Session) error {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()

	info, _ := json.Marshal(u)
	var errs []error
	for key, value := range map[string]string{
		persist.KeyUsername: u.Username,
		persist.KeyUserID:   u.ID,
		persist.KeyToken:    u.Token,
		persist.KeyUserInfo: string(info),
	} {
		if err := s.kv.Set(ctx, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		obslog.L().Error("persist_session_failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) readKey(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, persist.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) fail(err error, message string) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	obslog.L().Error("session_error", zap.Error(err))
	s.notifier.Notify(fmt.Sprintf("User error: %s", message), notify.SeverityError)
}
