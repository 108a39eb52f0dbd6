// Package coordinator drives state synchronization for one game: the
// bulk boardstate fetch on entry, one push subscription per
// participant, routing of every update through the identity resolver,
// and atomic boardstate mutations reconciled against the server's
// echo.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/boardstate"
	"github.com/veldt-labs/commandzone/internal/domain"
	"github.com/veldt-labs/commandzone/internal/gamestate"
	"github.com/veldt-labs/commandzone/internal/gql"
	"github.com/veldt-labs/commandzone/internal/history"
	"github.com/veldt-labs/commandzone/internal/identity"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/obslog"
)

// API is the full transport surface the coordinator needs.
type API interface {
	gql.Queryer
	gql.Mutator
	gql.Subscriber
}

// SelfID resolves the local user's stable ID. Read at classification
// time, never cached, so fetch and push paths agree.
type SelfID interface {
	UserID() string
}

type Coordinator struct {
	api      API
	boards   *boardstate.Store
	games    *gamestate.Store
	self     SelfID
	notifier notify.Notifier
	msgs     *notify.Catalog
	history  *history.Repository

	mu      sync.Mutex
	handles []gql.Handle
}

// New wires the coordinator. msgs and hist may be nil.
func New(api API, boards *boardstate.Store, games *gamestate.Store, self SelfID,
	notifier notify.Notifier, msgs *notify.Catalog, hist *history.Repository) *Coordinator {
	if notifier == nil {
		notifier = notify.NewLog(nil)
	}
	return &Coordinator{
		api:      api,
		boards:   boards,
		games:    games,
		self:     self,
		notifier: notifier,
		msgs:     msgs,
		history:  hist,
	}
}

// EnterGame bulk-fetches every boardstate in the game, routes each
// through the identity resolver, and opens one push subscription per
// participant, including self: self-state changes caused by other
// observers' effects arrive on that stream too.
func (c *Coordinator) EnterGame(ctx context.Context, gameID string) error {
	var out struct {
		Boardstates []domain.Boardstate
	}
	err := c.api.Query(ctx, gql.BoardstatesQuery, map[string]any{"gameID": gameID}, &out)
	if err != nil {
		c.boards.Fail(fmt.Errorf("fetch boardstates for %s: %w", gameID, err))
		return err
	}

	obsID := c.self.UserID()
	for _, bs := range out.Boardstates {
		c.subscribeBoardstate(ctx, obsID, bs.User.ID)
		c.route(ctx, bs)
	}
	obslog.L().Info("entered_game",
		zap.String("game_id", gameID), zap.Int("players", len(out.Boardstates)))
	return nil
}

// SubscribeGame fetches the game record, then streams game-level
// updates into the game store.
func (c *Coordinator) SubscribeGame(ctx context.Context, gameID string) error {
	if _, err := c.games.Fetch(ctx, gameID); err != nil {
		return err
	}

	vars := map[string]any{"gameID": gameID, "userID": c.self.UserID()}
	h, err := c.api.Subscribe(ctx, gql.GameUpdatedSubscription, vars,
		func(data json.RawMessage) {
			var push struct {
				GameUpdated domain.GamePatch `json:"gameUpdated"`
			}
			if err := json.Unmarshal(data, &push); err != nil {
				c.games.Fail(fmt.Errorf("decode game push: %w", err), "game subscription error")
				return
			}
			c.games.Merge(push.GameUpdated)
		},
		func(err error) {
			c.games.Fail(fmt.Errorf("game subscription %s: %w", gameID, err), "game subscription error")
		})
	if err != nil {
		c.games.Fail(fmt.Errorf("subscribe game %s: %w", gameID, err), "game subscription error")
		return err
	}
	c.track(h)
	return nil
}

// MutateBoardState submits one boardstate as a single atomic update.
// On success the server's canonical echo is applied, never the locally
// submitted value: the server may reject or adjust the state, and the
// echo is the reconciliation point. The self slot catches up through
// its own subscription stream.
func (c *Coordinator) MutateBoardState(ctx context.Context, bs domain.Boardstate) (domain.Boardstate, error) {
	var out struct {
		UpdateBoardState domain.Boardstate `json:"updateBoardState"`
	}
	err := c.api.Mutate(ctx, gql.UpdateBoardStateMutation, map[string]any{"boardstate": bs}, &out)
	if err != nil {
		c.boards.Fail(fmt.Errorf("update boardstate for %s: %w", bs.User.ID, err))
		return domain.Boardstate{}, err
	}
	echo := out.UpdateBoardState
	if err := c.boards.ApplyBatch([]domain.Boardstate{echo}); err != nil {
		return echo, err
	}
	return echo, nil
}

// Draw pops the top library card into the hand as one local transform
// and submits the result as one mutation — never two round-trips, so
// no observer sees the card in neither zone. An empty library refuses
// with a domain error and submits nothing.
func (c *Coordinator) Draw(ctx context.Context, bs domain.Boardstate) error {
	next, err := boardstate.Draw(bs)
	if err != nil {
		c.notifier.Notify(c.message("boardstate.empty_library", err.Error()), notify.SeverityError)
		return err
	}
	_, err = c.MutateBoardState(ctx, next)
	return err
}

// LeaveGame disposes every subscription opened for the current game.
func (c *Coordinator) LeaveGame() {
	c.mu.Lock()
	handles := c.handles
	c.handles = nil
	c.mu.Unlock()
	for _, h := range handles {
		h.Unsubscribe()
	}
	obslog.L().Info("left_game", zap.Int("subscriptions", len(handles)))
}

// subscribeBoardstate opens one (observer, player) push stream. A
// failure here is reported per subscription and never tears down
// siblings.
func (c *Coordinator) subscribeBoardstate(ctx context.Context, obsID, userID string) {
	vars := map[string]any{"obsID": obsID, "userID": userID}
	h, err := c.api.Subscribe(ctx, gql.BoardstateUpdatedSubscription, vars,
		func(data json.RawMessage) {
			var push struct {
				BoardstateUpdated domain.Boardstate `json:"boardstateUpdated"`
			}
			if err := json.Unmarshal(data, &push); err != nil {
				c.boards.Fail(fmt.Errorf("decode boardstate push: %w", err))
				return
			}
			c.route(ctx, push.BoardstateUpdated)
		},
		func(err error) {
			c.boards.Fail(fmt.Errorf("boardstate subscription %s: %w", userID, err))
		})
	if err != nil {
		c.boards.Fail(fmt.Errorf("subscribe boardstate %s: %w", userID, err))
		return
	}
	c.track(h)
}

// route classifies one update and applies it. Self updates land in
// both the self slot and the keyed map; the keyed map keeps the
// uniform all-players view consistent regardless of origin.
func (c *Coordinator) route(ctx context.Context, bs domain.Boardstate) {
	if identity.Classify(bs, c.self.UserID()) == identity.OriginSelf {
		c.boards.ApplySelf(bs)
	}
	_ = c.boards.ApplyBatch([]domain.Boardstate{bs})

	if err := c.history.SaveLife(ctx, bs); err != nil {
		obslog.L().Warn("history_life_failed", zap.String("user_id", bs.User.ID), zap.Error(err))
	}
}

func (c *Coordinator) track(h gql.Handle) {
	c.mu.Lock()
	c.handles = append(c.handles, h)
	c.mu.Unlock()
}

func (c *Coordinator) message(key, fallback string) string {
	if c.msgs == nil {
		return fallback
	}
	return c.msgs.Message(key)
}
