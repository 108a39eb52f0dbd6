package domain

import "time"

// User identifies a player on the platform.
type User struct {
	ID       string
	Username string
}

// Card is a value object describing one printed card. Copies are safe;
// the only identity a Card carries is its ID field. Tapped and Flipped
// are only meaningful for cards resident in the Field or Controlled
// zones and stay zero-valued elsewhere.
type Card struct {
	Name          string
	ID            string
	Tapped        bool
	Flipped       bool
	Colors        []string
	ColorIdentity []string
	ManaCost      string
	Power         string
	Toughness     string
	CMC           float64
	Text          string
	Types         []string
	Subtypes      []string
	Supertypes    []string
	IsTextless    bool
	TCGID         int
	ScryfallID    string
}

// Boardstate is one player's game-visible state. Zone order is
// significant for Library (draw order) and preserved for the rest.
type Boardstate struct {
	User       User
	Life       int
	GameID     string
	Library    []Card
	Hand       []Card
	Graveyard  []Card
	Exiled     []Card
	Revealed   []Card
	Field      []Card
	Controlled []Card
	Commander  []Card
}

// Turn describes whose turn it is and where in the turn the game sits.
type Turn struct {
	Player string
	Phase  string
	Number int
}

// Game is one match's shared metadata.
type Game struct {
	ID        string
	CreatedAt time.Time
	Turn      Turn
	PlayerIDs []User
}

// Session is the local user's identity as persisted between runs.
type Session struct {
	Username string
	ID       string
	Token    string
}
