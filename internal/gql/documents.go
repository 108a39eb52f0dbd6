package gql

// Operation documents. Every boardstate selection shares one card
// fragment; the server's Card type carries the Tapped/Flipped flags
// for all zones, zero-valued outside Field and Controlled.

const cardFragment = `fragment CardFields on Card {
  Name
  ID
  Tapped
  Flipped
  Colors
  ColorIdentity
  ManaCost
  Power
  Toughness
  CMC
  Text
  Types
  Subtypes
  Supertypes
  IsTextless
  TCGID
  ScryfallID
}`

const boardstateFields = `User {
      ID
      Username
    }
    Life
    GameID
    Commander { ...CardFields }
    Library { ...CardFields }
    Hand { ...CardFields }
    Graveyard { ...CardFields }
    Exiled { ...CardFields }
    Revealed { ...CardFields }
    Field { ...CardFields }
    Controlled { ...CardFields }`

const gameFields = `ID
    PlayerIDs {
      ID
      Username
    }
    Turn {
      Player
      Phase
      Number
    }`

// BoardstatesQuery bulk-fetches every boardstate in a game.
const BoardstatesQuery = `query ($gameID: String!) {
  boardstates(gameID: $gameID) {
    ` + boardstateFields + `
  }
}
` + cardFragment

// SelfStateQuery fetches a single player's boardstate.
const SelfStateQuery = `query ($gameID: String!, $userID: String) {
  boardstates(gameID: $gameID, userID: $userID) {
    ` + boardstateFields + `
  }
}
` + cardFragment

// UpdateBoardStateMutation submits one boardstate atomically and
// returns the server's canonical echo.
const UpdateBoardStateMutation = `mutation ($boardstate: InputBoardState!) {
  updateBoardState(input: $boardstate) {
    ` + boardstateFields + `
  }
}
` + cardFragment

// BoardstateUpdatedSubscription streams one player's boardstate to one
// observer.
const BoardstateUpdatedSubscription = `subscription ($obsID: String!, $userID: String!) {
  boardstateUpdated(observerID: $obsID, userID: $userID) {
    ` + boardstateFields + `
  }
}
` + cardFragment

const GamesQuery = `query ($gameID: String) {
  games(gameID: $gameID) {
    ` + gameFields + `
  }
}`

const GameUpdatedSubscription = `subscription ($gameID: String!, $userID: String!) {
  gameUpdated(gameID: $gameID, userID: $userID) {
    ` + gameFields + `
  }
}`

const UpdateGameMutation = `mutation ($input: InputGame!) {
  updateGame(input: $input) {
    ` + gameFields + `
  }
}`

const JoinGameMutation = `mutation ($input: InputJoinGame) {
  joinGame(input: $input) {
    ` + gameFields + `
  }
}`

const CreateGameMutation = `mutation ($input: InputCreateGame!) {
  createGame(input: $input) {
    CreatedAt
    ` + gameFields + `
  }
}`

const LoginMutation = `mutation ($username: String!, $password: String!) {
  login(username: $username, password: $password) {
    ID
    Username
    Token
  }
}`

const SignupMutation = `mutation ($username: String!, $password: String!) {
  signup(username: $username, password: $password) {
    ID
    Username
    Token
  }
}`
