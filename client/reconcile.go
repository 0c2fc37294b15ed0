package client

import (
	"fmt"

	"github.com/belassiter/mantid/game"
)

// Discrepancy is one mismatch between the client-visible state and an
// authoritative snapshot.
type Discrepancy struct {
	Field    string
	PlayerID string
	Visible  string
	Server   string
}

func (d Discrepancy) String() string {
	if d.PlayerID != "" {
		return fmt.Sprintf("%s[%s]: visible=%s server=%s", d.Field, d.PlayerID, d.Visible, d.Server)
	}
	return fmt.Sprintf("%s: visible=%s server=%s", d.Field, d.Visible, d.Server)
}

// Diff compares the client-visible state against a server snapshot.
// It checks exactly the fields that drive what the player sees: draw
// pile length and top card, the turn pointer, and per-player score
// counts and tank card sequences (order matters). A non-empty result
// means the snapshot must not be adopted; the caller logs it and keeps
// the last-known-good state. This is deliberately conservative
// anti-flicker policy, not conflict resolution.
func Diff(visible, server *game.Game) []Discrepancy {
	var diffs []Discrepancy

	if len(visible.DrawPile) != len(server.DrawPile) {
		diffs = append(diffs, Discrepancy{
			Field:   "drawPileLength",
			Visible: fmt.Sprintf("%d", len(visible.DrawPile)),
			Server:  fmt.Sprintf("%d", len(server.DrawPile)),
		})
	}
	visibleTop, visibleOK := visible.TopCard()
	serverTop, serverOK := server.TopCard()
	if visibleOK != serverOK || (visibleOK && visibleTop.ID != serverTop.ID) {
		diffs = append(diffs, Discrepancy{
			Field:   "drawPileTop",
			Visible: visibleTop.ID,
			Server:  serverTop.ID,
		})
	}
	if visible.CurrentPlayerIndex != server.CurrentPlayerIndex {
		diffs = append(diffs, Discrepancy{
			Field:   "currentPlayerIndex",
			Visible: fmt.Sprintf("%d", visible.CurrentPlayerIndex),
			Server:  fmt.Sprintf("%d", server.CurrentPlayerIndex),
		})
	}

	if len(visible.Players) != len(server.Players) {
		diffs = append(diffs, Discrepancy{
			Field:   "playerCount",
			Visible: fmt.Sprintf("%d", len(visible.Players)),
			Server:  fmt.Sprintf("%d", len(server.Players)),
		})
		return diffs
	}
	for i, vp := range visible.Players {
		sp := server.Players[i]
		if vp.ScoreCount != sp.ScoreCount {
			diffs = append(diffs, Discrepancy{
				Field:    "scoreCount",
				PlayerID: vp.ID,
				Visible:  fmt.Sprintf("%d", vp.ScoreCount),
				Server:   fmt.Sprintf("%d", sp.ScoreCount),
			})
		}
		if !sameTankSequence(vp.Tank, sp.Tank) {
			diffs = append(diffs, Discrepancy{
				Field:    "tank",
				PlayerID: vp.ID,
				Visible:  tankIDs(vp.Tank),
				Server:   tankIDs(sp.Tank),
			})
		}
	}
	return diffs
}

func sameTankSequence(a, b []game.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func tankIDs(tank []game.Card) string {
	ids := make([]string, len(tank))
	for i, c := range tank {
		ids[i] = c.ID
	}
	return fmt.Sprintf("%v", ids)
}
