// Package gamestate owns the single live Game value. Updates merge
// field by field over the current value, so a Turn-only push never
// erases the roster.
package gamestate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/domain"
	"github.com/veldt-labs/commandzone/internal/gql"
	"github.com/veldt-labs/commandzone/internal/history"
	"github.com/veldt-labs/commandzone/internal/nav"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/obslog"
)

// ErrNoGames reports a fetch that returned zero records. Treated as a
// reportable error, never a silent no-op.
var ErrNoGames = errors.New("no games returned")

// API is the transport surface this store needs.
type API interface {
	gql.Queryer
	gql.Mutator
}

type Store struct {
	mu   sync.RWMutex
	game domain.Game
	err  error

	api      API
	notifier notify.Notifier
	nav      nav.Navigator
	history  *history.Repository
}

// NewStore wires the game store. history may be nil.
func NewStore(api API, notifier notify.Notifier, navigator nav.Navigator, hist *history.Repository) *Store {
	if notifier == nil {
		notifier = notify.NewLog(nil)
	}
	if navigator == nil {
		navigator = nav.Log{}
	}
	return &Store{api: api, notifier: notifier, nav: navigator, history: hist}
}

// Game returns the current merged game value.
func (s *Store) Game() domain.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Merge applies the patch's present fields over the current game and
// returns the result. Absent fields keep their current values. A turn
// number lower than the current one is still reflected (the server is
// authoritative) but logged, since accepted updates are expected to be
// monotonic.
func (s *Store) Merge(p domain.GamePatch) domain.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Turn != nil && p.Turn.Number != nil && *p.Turn.Number < s.game.Turn.Number {
		obslog.L().Warn("turn_number_regressed",
			zap.Int("current", s.game.Turn.Number), zap.Int("update", *p.Turn.Number))
	}
	p.ApplyTo(&s.game)
	return s.game
}

// Fetch loads the game by id and merges the first returned record.
func (s *Store) Fetch(ctx context.Context, gameID string) (domain.Game, error) {
	var out struct {
		Games []domain.GamePatch
	}
	err := s.api.Query(ctx, gql.GamesQuery, map[string]any{"gameID": gameID}, &out)
	if err != nil {
		s.fail(fmt.Errorf("fetch game %s: %w", gameID, err), "could not load the game.")
		return domain.Game{}, err
	}
	if len(out.Games) == 0 {
		err := fmt.Errorf("%w for %s", ErrNoGames, gameID)
		s.fail(err, "no game received from subscription")
		return domain.Game{}, err
	}
	return s.Merge(out.Games[0]), nil
}

// Join adds the local player to an existing game, then navigates to
// its view.
func (s *Store) Join(ctx context.Context, input domain.InputJoinGame) (domain.Game, error) {
	var out struct {
		JoinGame domain.GamePatch `json:"joinGame"`
	}
	err := s.api.Mutate(ctx, gql.JoinGameMutation, map[string]any{"input": input}, &out)
	if err != nil {
		s.fail(fmt.Errorf("join game %s: %w", input.ID, err), "error joining game")
		return domain.Game{}, err
	}
	g := s.Merge(out.JoinGame)
	s.record(ctx, g)
	s.nav.Push("/games/" + g.ID)
	return g, nil
}

// Create starts a new game and navigates to its view.
func (s *Store) Create(ctx context.Context, input domain.InputCreateGame) (domain.Game, error) {
	var out struct {
		CreateGame domain.GamePatch `json:"createGame"`
	}
	err := s.api.Mutate(ctx, gql.CreateGameMutation, map[string]any{"input": input}, &out)
	if err != nil {
		s.fail(fmt.Errorf("create game: %w", err), "error creating game")
		return domain.Game{}, err
	}
	g := s.Merge(out.CreateGame)
	s.record(ctx, g)
	s.nav.Push("/games/" + g.ID)
	return g, nil
}

// Update submits changed game metadata and merges the echo.
func (s *Store) Update(ctx context.Context, input domain.InputGame) (domain.Game, error) {
	var out struct {
		UpdateGame domain.GamePatch `json:"updateGame"`
	}
	err := s.api.Mutate(ctx, gql.UpdateGameMutation, map[string]any{"input": input}, &out)
	if err != nil {
		s.fail(fmt.Errorf("update game %s: %w", input.ID, err), "error updating game")
		return domain.Game{}, err
	}
	return s.Merge(out.UpdateGame), nil
}

// record persists the game to history, best-effort.
func (s *Store) record(ctx context.Context, g domain.Game) {
	if err := s.history.SaveGame(ctx, g); err != nil {
		obslog.L().Warn("history_save_failed", zap.String("game_id", g.ID), zap.Error(err))
	}
}

// Fail records a transport failure on a game path. Exposed for the
// coordinator's game subscription stream.
func (s *Store) Fail(err error, message string) {
	s.fail(err, message)
}

func (s *Store) fail(err error, message string) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	obslog.L().Error("game_error", zap.Error(err))
	s.notifier.Notify(fmt.Sprintf("Game error: %s", message), notify.SeverityError)
}
