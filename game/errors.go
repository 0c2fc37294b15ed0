package game

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDeck rejects an action when the draw pile is exhausted.
	ErrEmptyDeck = errors.New("draw pile is empty")
	// ErrGameFinished rejects any mutation of a finished game.
	ErrGameFinished = errors.New("game is already finished")
	// ErrGameNotStarted rejects actions on a game still in the lobby.
	ErrGameNotStarted = errors.New("game has not started")
	// ErrAuthenticationRequired rejects calls with no session identity.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrVersionConflict is returned by a store when the document
	// changed between the transactional read and write.
	ErrVersionConflict = errors.New("concurrent update conflict")

	// ErrBotActionExpired rejects a bot execution past its TTL.
	ErrBotActionExpired = errors.New("bot action expired")
	// ErrBotActionConsumed rejects a replayed bot execution.
	ErrBotActionConsumed = errors.New("bot action already consumed")
	// ErrBotActionMismatch rejects an execution whose action id does not
	// match the live pending action.
	ErrBotActionMismatch = errors.New("bot action does not match pending action")
)

// GameNotFoundError means no document exists for the room code.
type GameNotFoundError struct {
	RoomCode string
}

func (e GameNotFoundError) Error() string {
	return fmt.Sprintf("game not found for room [%s]", e.RoomCode)
}

// TurnViolationError means the caller is not allowed to act right now.
type TurnViolationError struct {
	PlayerID string
}

func (e TurnViolationError) Error() string {
	return fmt.Sprintf("player [%s] acted out of turn", e.PlayerID)
}

// InvalidTargetError means a steal named a missing player or the actor.
type InvalidTargetError struct {
	TargetPlayerID string
	Reason         string
}

func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid steal target [%s]: %s", e.TargetPlayerID, e.Reason)
}

// InvalidStateError flags a document that violates a structural invariant.
type InvalidStateError struct {
	Msg string
}

func (e InvalidStateError) Error() string {
	return e.Msg
}
