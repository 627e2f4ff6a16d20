// internal/hub/messages.go
package hub

import (
	"errors"

	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/models"
)

// Client command kinds.
const (
	CmdHello     = "cmd.hello"
	CmdJoinGame  = "cmd.joinGame"
	CmdLeaveGame = "cmd.leaveGame"
	CmdStartGame = "cmd.startGame"
	CmdDraw      = "cmd.draw"
	CmdLayMelds  = "cmd.layMelds"
	CmdLayOff    = "cmd.layOff"
	CmdDiscard   = "cmd.discard"
	CmdGoOut     = "cmd.goOut"
)

// Server event kinds.
const (
	EvtHello        = "evt.hello"
	EvtState        = "evt.state"
	EvtError        = "evt.error"
	EvtNotification = "evt.notification"
	EvtGameDeleted  = "evt.gameDeleted"
)

// Error codes sent on evt.error. Rules failures go only to the issuing
// socket, never broadcast.
const (
	CodeNotYourTurn      = "not_your_turn"
	CodeWrongPhase       = "wrong_phase"
	CodeInvalidMeld      = "invalid_meld"
	CodeCardNotInHand    = "card_not_in_hand"
	CodeCannotExtendMeld = "cannot_extend_meld"
	CodeCannotGoOut      = "cannot_go_out"
	CodeFinalTurnPhase   = "final_turn_phase"
	CodeGameNotActive    = "game_not_active"
	CodeNotInGame        = "not_in_game"
	CodeGameFull         = "game_full"
	CodeUnknownType      = "unknown_type"
	CodeUnauthenticated  = "unauthenticated"
	CodeBadRequest       = "bad_request"
	CodeServerRetry      = "server_retry"
)

// Command is the tagged union read off the socket. Type selects the kind;
// the other fields are populated per kind. Unknown types are rejected with
// evt.error{code:unknown_type}.
type Command struct {
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`

	// cmd.hello
	Token string `json:"token,omitempty"`

	// every game-scoped command
	GameID string `json:"gameId,omitempty"`

	// cmd.draw: "stock" or "discard"
	Source string `json:"source,omitempty"`

	// cmd.layMelds and cmd.goOut
	Melds []models.WireMeld `json:"melds,omitempty"`

	// cmd.layOff
	TargetSeat int      `json:"targetSeat,omitempty"`
	MeldIndex  int      `json:"meldIndex,omitempty"`
	Cards      []string `json:"cards,omitempty"`

	// cmd.discard and cmd.goOut
	Card string `json:"card,omitempty"`
}

// HelloEvent acknowledges a successful cmd.hello.
type HelloEvent struct {
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`
	UserID    string `json:"userId"`
}

// StateEvent carries a per-recipient projection. ClientSeq is set only on
// the copy sent to the socket whose command produced the state.
type StateEvent struct {
	Type      string        `json:"type"`
	ClientSeq *int64        `json:"clientSeq,omitempty"`
	State     game.Snapshot `json:"state"`
}

// ErrorEvent reports a rejected command back to the issuing socket.
type ErrorEvent struct {
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
}

// NotificationEvent pushes an out-of-band notification to a user's sockets.
type NotificationEvent struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// GameDeletedEvent tells subscribers a lobby game no longer exists.
type GameDeletedEvent struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

// errorCode maps rules-engine sentinels to wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return CodeNotYourTurn
	case errors.Is(err, game.ErrWrongPhase):
		return CodeWrongPhase
	case errors.Is(err, game.ErrInvalidMeld), errors.Is(err, game.ErrMeldNotFound):
		return CodeInvalidMeld
	case errors.Is(err, game.ErrCardNotInHand):
		return CodeCardNotInHand
	case errors.Is(err, game.ErrCannotExtendMeld):
		return CodeCannotExtendMeld
	case errors.Is(err, game.ErrCannotGoOut):
		return CodeCannotGoOut
	case errors.Is(err, game.ErrFinalTurnPhase):
		return CodeFinalTurnPhase
	case errors.Is(err, game.ErrGameNotActive), errors.Is(err, game.ErrNotEnoughPlayers):
		return CodeGameNotActive
	case errors.Is(err, game.ErrNotInGame):
		return CodeNotInGame
	case errors.Is(err, game.ErrGameFull), errors.Is(err, game.ErrAlreadyInGame):
		return CodeGameFull
	default:
		return CodeBadRequest
	}
}
