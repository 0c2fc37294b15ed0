package nats

import (
	"fmt"
)

// GetGameSnapshotSubject is where full game snapshots are broadcast
// after every committed mutation of a room.
func GetGameSnapshotSubject(roomCode string) string {
	return fmt.Sprintf("game.%s.snapshot", roomCode)
}
