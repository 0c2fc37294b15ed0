package game

// The apply functions hold the actual ruleset. They mutate a working
// copy of the document in place and are shared by the transactional
// engine on the server and by clients replaying an authoritative hint
// onto their visible state. Callers are responsible for turn and
// status validation; only structural preconditions are checked here.

// ApplyScore pops the top card into the acting player's tank and
// resolves a same-color match there. Matched cards (two or more,
// including the drawn card) leave the game and raise the actor's score
// count. The turn always advances.
func ApplyScore(g *Game, actorIdx int, now int64) (*AnimationHint, error) {
	if len(g.DrawPile) == 0 {
		return nil, ErrEmptyDeck
	}
	actor := g.Players[actorIdx]
	drawn := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	actor.Tank = append(actor.Tank, drawn)

	matched := matchingCards(actor.Tank, drawn.Color)
	hint := &AnimationHint{
		PlayerID:  actor.ID,
		Color:     drawn.Color,
		Timestamp: now,
	}
	if len(matched) >= 2 {
		actor.Tank = withoutCards(actor.Tank, matched)
		actor.ScoreCount += len(matched)
		hint.Sequence = SeqScoreSuccess
		hint.AffectedCardIDs = cardIDs(matched)
	} else {
		hint.Sequence = SeqScoreFail
		hint.AffectedCardIDs = []string{drawn.ID}
	}

	g.CurrentPlayerIndex = NextPlayerIndex(g.CurrentPlayerIndex, len(g.Players))
	finishGame(g, hint, actor, ActionScore, "", len(matched) >= 2, now)
	return hint, nil
}

// ApplySteal pops the top card into the target's tank and resolves a
// match there. On a match all matched cards relocate to the acting
// player's tank unscored. In a 2-player game a successful steal keeps
// the turn with the actor; every other outcome advances it.
func ApplySteal(g *Game, actorIdx, targetIdx int, now int64) (*AnimationHint, error) {
	if targetIdx < 0 || targetIdx >= len(g.Players) {
		return nil, InvalidTargetError{Reason: "no such player"}
	}
	if targetIdx == actorIdx {
		return nil, InvalidTargetError{TargetPlayerID: g.Players[targetIdx].ID, Reason: "cannot steal from self"}
	}
	if len(g.DrawPile) == 0 {
		return nil, ErrEmptyDeck
	}
	actor := g.Players[actorIdx]
	target := g.Players[targetIdx]
	drawn := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	target.Tank = append(target.Tank, drawn)

	matched := matchingCards(target.Tank, drawn.Color)
	success := len(matched) >= 2
	hint := &AnimationHint{
		PlayerID:       actor.ID,
		TargetPlayerID: target.ID,
		Color:          drawn.Color,
		Timestamp:      now,
	}
	if success {
		target.Tank = withoutCards(target.Tank, matched)
		actor.Tank = append(actor.Tank, matched...)
		hint.Sequence = SeqStealSuccess
		hint.AffectedCardIDs = cardIDs(matched)
	} else {
		hint.Sequence = SeqStealFail
		hint.AffectedCardIDs = []string{drawn.ID}
	}

	// Chain rule: head-to-head only, a successful steal earns another turn.
	if !(success && len(g.Players) == 2) {
		g.CurrentPlayerIndex = NextPlayerIndex(g.CurrentPlayerIndex, len(g.Players))
	}
	finishGame(g, hint, actor, ActionSteal, target.ID, success, now)
	return hint, nil
}

// finishGame records the audit entry and hint, and flips the game to
// finished if anyone reached the threshold. Steals never score directly
// but the check runs on every action anyway.
func finishGame(g *Game, hint *AnimationHint, actor *Player, action ActionType, targetID string, success bool, now int64) {
	g.LastAction = &ActionRecord{
		PlayerID:       actor.ID,
		PlayerName:     actor.Name,
		Action:         action,
		TargetPlayerID: targetID,
		Success:        success,
		Color:          hint.Color,
		Timestamp:      now,
	}
	g.AnimationHint = hint
	g.UpdatedAt = now
	if WinnerIndex(g) >= 0 {
		g.Status = GameStatusFinished
	}
}

func matchingCards(tank []Card, color Color) []Card {
	var matched []Card
	for _, c := range tank {
		if c.Color == color {
			matched = append(matched, c)
		}
	}
	return matched
}

func withoutCards(tank []Card, remove []Card) []Card {
	removeIDs := make(map[string]bool, len(remove))
	for _, c := range remove {
		removeIDs[c.ID] = true
	}
	kept := tank[:0]
	for _, c := range tank {
		if !removeIDs[c.ID] {
			kept = append(kept, c)
		}
	}
	return kept
}

func cardIDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
