// Package history keeps a local record of the games this client
// joined or created, for the companion stats view. Best-effort: a nil
// repository or a write failure never blocks game flow.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/veldt-labs/commandzone/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveGame upserts the game's roster and turn position under its id.
func (r *Repository) SaveGame(ctx context.Context, g domain.Game) error {
	if r == nil || r.db == nil || g.ID == "" {
		return nil
	}
	players, err := json.Marshal(g.PlayerIDs)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}

	q := `INSERT INTO games (
	    game_id, created_at, turn_number, turn_phase, active_player, players, seen_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    turn_number=EXCLUDED.turn_number,
	    turn_phase=EXCLUDED.turn_phase,
	    active_player=EXCLUDED.active_player,
	    players=EXCLUDED.players,
	    seen_at=EXCLUDED.seen_at`
	_, err = r.db.ExecContext(ctx, q,
		g.ID, g.CreatedAt, g.Turn.Number, g.Turn.Phase, g.Turn.Player, players, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// SaveLife records a player's life total at the time of a boardstate
// update, keyed by game and player.
func (r *Repository) SaveLife(ctx context.Context, bs domain.Boardstate) error {
	if r == nil || r.db == nil || bs.GameID == "" || bs.User.ID == "" {
		return nil
	}
	q := `INSERT INTO life_log (game_id, user_id, username, life, seen_at)
	  VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.ExecContext(ctx, q, bs.GameID, bs.User.ID, bs.User.Username, bs.Life, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save life: %w", err)
	}
	return nil
}
