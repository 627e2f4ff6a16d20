// internal/game/errors.go
package game

import "errors"

// Rules-engine errors. Every mutating command on FiveCrownsGame fails with
// one of these and leaves state untouched; the hub maps them to stable wire
// codes sent only to the offending socket.
var (
	ErrGameNotActive    = errors.New("game is not active")
	ErrNotInGame        = errors.New("user is not a member of this game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrWrongPhase       = errors.New("command not allowed in current phase")
	ErrInvalidMeld      = errors.New("meld is not a valid run or book")
	ErrCardNotInHand    = errors.New("card not present in hand")
	ErrMeldNotFound     = errors.New("target meld does not exist")
	ErrCannotExtendMeld = errors.New("cards do not extend the target meld")
	ErrCannotGoOut      = errors.New("hand does not decompose into melds plus one discard")
	ErrFinalTurnPhase   = errors.New("laying off is disabled during the final turn phase")
	ErrGameFull         = errors.New("game already has the maximum number of players")
	ErrAlreadyInGame    = errors.New("user is already a member of this game")
	ErrNotEnoughPlayers = errors.New("at least two players are required to start")
)
