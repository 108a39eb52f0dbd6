package domain

import "time"

// TurnPatch is a partial Turn. Nil fields were absent from the update
// and must not overwrite the current value.
type TurnPatch struct {
	Player *string
	Phase  *string
	Number *int
}

// GamePatch is a partial Game as decoded off the wire. Server pushes
// carry only the fields the subscription document asked for, so every
// field is optional here and the store merges field by field.
type GamePatch struct {
	ID        *string
	CreatedAt *time.Time
	Turn      *TurnPatch
	PlayerIDs []User
}

// Game materializes the patch over a zero Game. Used where the server
// is known to have returned a full record.
func (p GamePatch) Game() Game {
	var g Game
	p.ApplyTo(&g)
	return g
}

// ApplyTo merges the present fields of the patch over g in place.
// Merge rules per field: ID, CreatedAt replace when present; PlayerIDs
// replace when non-nil; Turn merges per field.
func (p GamePatch) ApplyTo(g *Game) {
	if p.ID != nil {
		g.ID = *p.ID
	}
	if p.CreatedAt != nil {
		g.CreatedAt = *p.CreatedAt
	}
	if p.PlayerIDs != nil {
		g.PlayerIDs = append([]User(nil), p.PlayerIDs...)
	}
	if p.Turn != nil {
		if p.Turn.Player != nil {
			g.Turn.Player = *p.Turn.Player
		}
		if p.Turn.Phase != nil {
			g.Turn.Phase = *p.Turn.Phase
		}
		if p.Turn.Number != nil {
			g.Turn.Number = *p.Turn.Number
		}
	}
}
