// Package bot implements the tiered decision engine for bot players.
// Decisions are pure over a game snapshot; the only hidden-information
// input is the back of the top draw-pile card.
package bot

import (
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/logging"
)

var botLogger = log.With().Str("logger_name", "bot::decide").Logger()

// Decision is the staged outcome: the action and, for steals, the
// target seat's player id.
type Decision struct {
	Action         game.ActionType
	TargetPlayerID string
}

// easyScoreChance is how often the easy tier ignores opponents.
const easyScoreChance = 0.6

// Decide maps a snapshot, seat, and difficulty to an action. Malformed
// input falls back to scoring; a bot must never deadlock the turn.
func Decide(g *game.Game, botIndex int, difficulty game.BotDifficulty, rng *rand.Rand) Decision {
	if botIndex < 0 || botIndex >= len(g.Players) {
		botLogger.Warn().Int("botIndex", botIndex).Msg("Invalid bot seat, falling back to score")
		return Decision{Action: game.ActionScore}
	}
	top, ok := g.TopCard()
	if !ok {
		botLogger.Warn().Str(logging.RoomCodeKey, g.RoomCode).Msg("No top card visible, falling back to score")
		return Decision{Action: game.ActionScore}
	}

	switch difficulty {
	case game.BotMedium:
		return decideMedium(g, botIndex, top)
	case game.BotHard:
		return decideHard(g, botIndex, top)
	default:
		return decideEasy(g, botIndex, rng)
	}
}

// decideEasy scores 60% of the time, otherwise steals from a uniformly
// random opponent. With a single opponent it always scores.
// Intentionally non-deterministic.
func decideEasy(g *game.Game, botIndex int, rng *rand.Rand) Decision {
	opponents := opponentIndexes(g, botIndex)
	if len(opponents) <= 1 || rng.Float64() < easyScoreChance {
		return Decision{Action: game.ActionScore}
	}
	target := opponents[rng.Intn(len(opponents))]
	return Decision{Action: game.ActionSteal, TargetPlayerID: g.Players[target].ID}
}

// decideMedium scores on a decent own match chance, otherwise raids
// the fattest opposing tank.
func decideMedium(g *game.Game, botIndex int, top game.Card) Decision {
	own := matchProbability(g.Players[botIndex], top.BackColors)
	if own >= 1.0/3.0 {
		return Decision{Action: game.ActionScore}
	}
	target := biggestTank(g, botIndex)
	if target < 0 {
		return Decision{Action: game.ActionScore}
	}
	return Decision{Action: game.ActionSteal, TargetPlayerID: g.Players[target].ID}
}

// decideHard weighs own odds against the best opposing tank, blocking
// the score leader when their tank lines up with the drawn card.
func decideHard(g *game.Game, botIndex int, top game.Card) Decision {
	own := matchProbability(g.Players[botIndex], top.BackColors)
	if own >= 0.5 {
		return Decision{Action: game.ActionScore}
	}

	opponents := opponentIndexes(g, botIndex)
	best, bestProb := -1, -1.0
	for _, idx := range opponents {
		p := matchProbability(g.Players[idx], top.BackColors)
		if p > bestProb {
			best, bestProb = idx, p
		}
	}

	if best >= 0 && best == scoreLeader(g, opponents) && bestProb >= 2.0/3.0 {
		// Defensive block: deny the leader a loaded tank.
		return Decision{Action: game.ActionSteal, TargetPlayerID: g.Players[best].ID}
	}
	if best >= 0 && bestProb >= 0.5 {
		return Decision{Action: game.ActionSteal, TargetPlayerID: g.Players[best].ID}
	}
	if own > 0 {
		return Decision{Action: game.ActionScore}
	}
	if target := biggestTank(g, botIndex); target >= 0 {
		return Decision{Action: game.ActionSteal, TargetPlayerID: g.Players[target].ID}
	}
	return Decision{Action: game.ActionScore}
}

// matchProbability is the share of the card's three back colors present
// in the tank. An empty tank can never match.
func matchProbability(p *game.Player, backColors [3]game.Color) float64 {
	if len(p.Tank) == 0 {
		return 0
	}
	tankColors := p.TankColors()
	hits := 0
	for _, c := range backColors {
		if tankColors[c] {
			hits++
		}
	}
	return float64(hits) / 3.0
}

func opponentIndexes(g *game.Game, botIndex int) []int {
	idxs := make([]int, 0, len(g.Players)-1)
	for i := range g.Players {
		if i != botIndex {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// biggestTank picks the opponent with the most tank cards, lowest seat
// on ties. Returns -1 with no opponents.
func biggestTank(g *game.Game, botIndex int) int {
	best, bestSize := -1, -1
	for i, p := range g.Players {
		if i == botIndex {
			continue
		}
		if len(p.Tank) > bestSize {
			best, bestSize = i, len(p.Tank)
		}
	}
	return best
}

// scoreLeader picks the highest-scoring opponent, lowest seat on ties.
func scoreLeader(g *game.Game, opponents []int) int {
	best, bestScore := -1, -1
	for _, idx := range opponents {
		if g.Players[idx].ScoreCount > bestScore {
			best, bestScore = idx, g.Players[idx].ScoreCount
		}
	}
	return best
}

// DeciderFunc adapts Decide to the engine's BotDecider hook.
func DeciderFunc() func(g *game.Game, botIndex int, rng *rand.Rand) (game.ActionType, string) {
	return func(g *game.Game, botIndex int, rng *rand.Rand) (game.ActionType, string) {
		d := Decide(g, botIndex, g.Players[botIndex].BotDifficulty, rng)
		return d.Action, d.TargetPlayerID
	}
}
