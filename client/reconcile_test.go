package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belassiter/mantid/game"
)

func mkCard(id string, color game.Color) game.Card {
	return game.Card{ID: id, Color: color, BackColors: [3]game.Color{color, game.ColorRed, game.ColorBlue}}
}

func reconcileFixture() *game.Game {
	return &game.Game{
		RoomCode: "ROOM01",
		Status:   game.GameStatusPlaying,
		Players: []*game.Player{
			{ID: "A", Tank: []game.Card{mkCard("green-1", game.ColorGreen), mkCard("pink-1", game.ColorPink)}, ScoreCount: 2},
			{ID: "B", Tank: []game.Card{mkCard("blue-1", game.ColorBlue)}, ScoreCount: 4},
		},
		DrawPile:           []game.Card{mkCard("red-1", game.ColorRed), mkCard("red-2", game.ColorRed)},
		CurrentPlayerIndex: 1,
	}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	g := reconcileFixture()
	assert.Empty(t, Diff(g, g))
	assert.Empty(t, Diff(g, g.Clone()))
}

func TestDiffDetectsSingleFieldChanges(t *testing.T) {
	base := reconcileFixture()

	cases := []struct {
		name   string
		field  string
		mutate func(g *game.Game)
	}{
		{"draw pile length", "drawPileLength", func(g *game.Game) {
			g.DrawPile = g.DrawPile[:1]
		}},
		{"top card identity", "drawPileTop", func(g *game.Game) {
			g.DrawPile[len(g.DrawPile)-1] = mkCard("orange-9", game.ColorOrange)
		}},
		{"turn pointer", "currentPlayerIndex", func(g *game.Game) {
			g.CurrentPlayerIndex = 0
		}},
		{"score count", "scoreCount", func(g *game.Game) {
			g.Players[1].ScoreCount = 5
		}},
		{"tank order", "tank", func(g *game.Game) {
			g.Players[0].Tank[0], g.Players[0].Tank[1] = g.Players[0].Tank[1], g.Players[0].Tank[0]
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := base.Clone()
			tc.mutate(server)
			diffs := Diff(base, server)
			require.NotEmpty(t, diffs)
			found := false
			for _, d := range diffs {
				if d.Field == tc.field {
					found = true
				}
			}
			assert.True(t, found, "expected a %s discrepancy, got %v", tc.field, diffs)
		})
	}
}

func TestDiffIgnoresPresentationFields(t *testing.T) {
	base := reconcileFixture()
	server := base.Clone()
	server.AnimationHint = &game.AnimationHint{Sequence: game.SeqScoreFail, Timestamp: 5}
	server.LastAction = &game.ActionRecord{PlayerID: "A"}
	assert.Empty(t, Diff(base, server))
}
