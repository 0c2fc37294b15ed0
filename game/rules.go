package game

const (
	// MinPlayers and MaxPlayers bound the seat count of a room.
	MinPlayers = 2
	MaxPlayers = 6

	// CardsDealtPerPlayer are dealt to each tank when the game starts.
	CardsDealtPerPlayer = 4
)

// WinThreshold is the score a player must reach to end the game:
// 15 for a head-to-head game, 10 otherwise.
func WinThreshold(numPlayers int) int {
	if numPlayers == 2 {
		return 15
	}
	return 10
}

// NextPlayerIndex advances the turn cyclically.
func NextPlayerIndex(current, numPlayers int) int {
	return (current + 1) % numPlayers
}

// WinnerIndex returns the seat of the first player at or above the win
// threshold, or -1 if nobody has won yet.
func WinnerIndex(g *Game) int {
	threshold := WinThreshold(len(g.Players))
	for i, p := range g.Players {
		if p.ScoreCount >= threshold {
			return i
		}
	}
	return -1
}
