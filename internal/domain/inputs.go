package domain

// Input shapes submitted to the API. Field names mirror the schema's
// input objects so the structs marshal directly into variables.

// InputGame is the updateGame payload.
type InputGame struct {
	ID        string
	Turn      Turn
	PlayerIDs []User
}

// InputJoinGame joins an existing game with an initial boardstate and
// a decklist for the server to build the library from.
type InputJoinGame struct {
	ID         string
	User       User
	Decklist   string
	BoardState Boardstate
}

// InputPlayer seeds one participant of a created game.
type InputPlayer struct {
	Boardstate
	Decklist string
}

// InputCreateGame is the createGame payload.
type InputCreateGame struct {
	ID      string
	Turn    Turn
	Players []InputPlayer
}
