package game_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belassiter/mantid/bot"
	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/store"
)

type seatSpec struct {
	tank  []string
	score int
	bot   bool
	diff  game.BotDifficulty
}

// buildGame constructs a playing game from the full deck: named cards
// go to tanks, one named card becomes the top of the draw pile, and
// enough cards are dropped from the pile bottom to account for the
// seeded score counts so conservation holds.
func buildGame(t *testing.T, seats []seatSpec, topCardID string, current int) *game.Game {
	t.Helper()
	byID := make(map[string]game.Card)
	for _, c := range game.FullDeck() {
		byID[c.ID] = c
	}

	used := map[string]bool{topCardID: true}
	totalScore := 0
	players := make([]*game.Player, len(seats))
	for i, s := range seats {
		tank := make([]game.Card, len(s.tank))
		for j, id := range s.tank {
			c, ok := byID[id]
			require.True(t, ok, "unknown card id %s", id)
			require.False(t, used[id], "card id %s used twice", id)
			used[id] = true
			tank[j] = c
		}
		players[i] = &game.Player{
			ID:            playerID(i),
			Name:          playerID(i),
			Tank:          tank,
			ScoreCount:    s.score,
			IsBot:         s.bot,
			BotDifficulty: s.diff,
		}
		totalScore += s.score
	}

	var pile []game.Card
	for _, c := range game.FullDeck() {
		if !used[c.ID] {
			pile = append(pile, c)
		}
	}
	require.GreaterOrEqual(t, len(pile), totalScore)
	pile = pile[totalScore:]
	pile = append(pile, byID[topCardID])

	g := &game.Game{
		RoomCode:           "TEST42",
		Status:             game.GameStatusPlaying,
		Players:            players,
		DrawPile:           pile,
		CurrentPlayerIndex: current,
	}
	require.NoError(t, g.Validate())
	return g
}

func playerID(i int) string {
	return string(rune('A' + i))
}

func newTestEngine(t *testing.T) (*game.Engine, *store.MemoryGameStore, *time.Time) {
	t.Helper()
	st := store.NewMemoryGameStore(nil)
	eng := game.NewEngine(st, game.RemoteIdentityPolicy{}, bot.DeciderFunc())
	eng.SetRand(rand.New(rand.NewSource(42)))
	now := time.UnixMilli(1700000000000)
	eng.SetClock(func() time.Time { return now })
	return eng, st, &now
}

func TestScoreMatchScoresPairAndAdvancesTurn(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{tank: []string{"red-1"}},
		{},
	}, "red-2", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, hint, err := eng.Score(context.Background(), "TEST42", "A", "A")
	require.NoError(t, err)

	assert.Empty(t, updated.Players[0].Tank)
	assert.Equal(t, 2, updated.Players[0].ScoreCount)
	assert.Equal(t, game.SeqScoreSuccess, hint.Sequence)
	assert.ElementsMatch(t, []string{"red-1", "red-2"}, hint.AffectedCardIDs)
	assert.Equal(t, 1, updated.CurrentPlayerIndex)
	assert.Equal(t, game.DeckSize, updated.CardCount())
}

func TestScoreNoMatchKeepsCardInTank(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{tank: []string{"blue-1"}},
		{},
	}, "red-2", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, hint, err := eng.Score(context.Background(), "TEST42", "A", "A")
	require.NoError(t, err)

	assert.Len(t, updated.Players[0].Tank, 2)
	assert.Equal(t, 0, updated.Players[0].ScoreCount)
	assert.Equal(t, game.SeqScoreFail, hint.Sequence)
	assert.Equal(t, []string{"red-2"}, hint.AffectedCardIDs)
	assert.Equal(t, 1, updated.CurrentPlayerIndex)
}

func TestStealNoMatchLeavesCardWithTarget(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{},
		{tank: []string{"blue-1"}},
	}, "red-2", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, hint, err := eng.Steal(context.Background(), "TEST42", "A", "A", "B")
	require.NoError(t, err)

	assert.Empty(t, updated.Players[0].Tank)
	assert.Len(t, updated.Players[1].Tank, 2)
	assert.Equal(t, game.SeqStealFail, hint.Sequence)
	assert.Equal(t, 1, updated.CurrentPlayerIndex, "failed steal passes the turn")
}

func TestStealMatchMovesCardsAndChainsTurn(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{},
		{tank: []string{"green-1", "green-2"}},
	}, "green-3", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, hint, err := eng.Steal(context.Background(), "TEST42", "A", "A", "B")
	require.NoError(t, err)

	assert.Len(t, updated.Players[0].Tank, 3, "all three greens relocate to the stealer")
	assert.Empty(t, updated.Players[1].Tank)
	assert.Equal(t, 0, updated.Players[0].ScoreCount, "stolen cards are not scored")
	assert.Equal(t, game.SeqStealSuccess, hint.Sequence)
	assert.Equal(t, 0, updated.CurrentPlayerIndex, "chain rule keeps the turn in a 2-player game")
}

func TestStealMatchAdvancesTurnWithThreePlayers(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{},
		{tank: []string{"green-1", "green-2"}},
		{},
	}, "green-3", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, _, err := eng.Steal(context.Background(), "TEST42", "A", "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentPlayerIndex, "chain rule is 2-player only")
}

func TestScoreReachingThresholdFinishesGame(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{},
		{},
		{tank: []string{"yellow-1"}, score: 9},
	}, "yellow-2", 2)
	require.NoError(t, st.Create(context.Background(), g))

	updated, _, err := eng.Score(context.Background(), "TEST42", "C", "C")
	require.NoError(t, err)
	assert.Equal(t, 11, updated.Players[2].ScoreCount)
	assert.Equal(t, game.GameStatusFinished, updated.Status)

	_, _, err = eng.Score(context.Background(), "TEST42", "A", "A")
	assert.ErrorIs(t, err, game.ErrGameFinished)
}

func TestScoreOutOfTurnRejected(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{{}, {}}, "red-1", 0)
	require.NoError(t, st.Create(context.Background(), g))

	_, _, err := eng.Score(context.Background(), "TEST42", "B", "B")
	var turnErr game.TurnViolationError
	assert.ErrorAs(t, err, &turnErr)

	// Nothing was mutated.
	reloaded, err := st.Load(context.Background(), "TEST42")
	require.NoError(t, err)
	assert.Nil(t, reloaded.LastAction)
	assert.Equal(t, 0, reloaded.CurrentPlayerIndex)
}

func TestStealSelfTargetRejected(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{{}, {}}, "red-1", 0)
	require.NoError(t, st.Create(context.Background(), g))

	_, _, err := eng.Steal(context.Background(), "TEST42", "A", "A", "A")
	var targetErr game.InvalidTargetError
	assert.ErrorAs(t, err, &targetErr)

	_, _, err = eng.Steal(context.Background(), "TEST42", "A", "A", "nobody")
	assert.ErrorAs(t, err, &targetErr)
}

func TestScoreOnEmptyDeckRejected(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{{}, {}}, "red-1", 0)
	// Empty the pile but keep conservation by stashing everything in a tank.
	g.Players[1].Tank = append(g.Players[1].Tank, g.DrawPile...)
	g.DrawPile = nil
	require.NoError(t, st.Create(context.Background(), g))

	_, _, err := eng.Score(context.Background(), "TEST42", "A", "A")
	assert.ErrorIs(t, err, game.ErrEmptyDeck)
}

func TestGameNotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, _, err := eng.Score(context.Background(), "NOSUCH", "A", "A")
	var notFound game.GameNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMissingSessionRejected(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{{}, {}}, "red-1", 0)
	require.NoError(t, st.Create(context.Background(), g))

	_, _, err := eng.Score(context.Background(), "TEST42", "", "A")
	assert.ErrorIs(t, err, game.ErrAuthenticationRequired)
}

func TestBotPendingActionLifecycle(t *testing.T) {
	eng, st, _ := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{tank: []string{"blue-1"}},
		{bot: true, diff: game.BotMedium},
	}, "red-2", 0)
	require.NoError(t, st.Create(context.Background(), g))

	// Human action hands the turn to the bot; the engine stages the
	// bot's move inside the same transaction.
	updated, _, err := eng.Score(context.Background(), "TEST42", "A", "A")
	require.NoError(t, err)
	require.NotNil(t, updated.BotPendingAction)
	bp := updated.BotPendingAction
	assert.Equal(t, updated.Players[1].ID, bp.BotPlayerID)
	assert.False(t, bp.Consumed)
	assert.Greater(t, bp.ExpiresAt, bp.ComputedAt)

	// A wrong action id is rejected.
	_, _, err = eng.ExecuteBotAction(context.Background(), "TEST42", "A", "bogus")
	assert.ErrorIs(t, err, game.ErrBotActionMismatch)

	// Presenting the staged action executes it.
	afterBot, hint, err := eng.ExecuteBotAction(context.Background(), "TEST42", "A", bp.ActionID)
	require.NoError(t, err)
	require.NotNil(t, hint)
	assert.Equal(t, game.DeckSize, afterBot.CardCount())

	// Replaying the same action id is rejected; the staged action is gone.
	_, _, err = eng.ExecuteBotAction(context.Background(), "TEST42", "A", bp.ActionID)
	assert.Error(t, err)
}

func TestBotPendingActionExpires(t *testing.T) {
	eng, st, now := newTestEngine(t)
	g := buildGame(t, []seatSpec{
		{},
		{bot: true, diff: game.BotEasy},
	}, "red-2", 0)
	require.NoError(t, st.Create(context.Background(), g))

	updated, _, err := eng.Score(context.Background(), "TEST42", "A", "A")
	require.NoError(t, err)
	require.NotNil(t, updated.BotPendingAction)

	*now = now.Add(game.DefaultBotActionTTL + time.Second)
	_, _, err = eng.ExecuteBotAction(context.Background(), "TEST42", "A", updated.BotPendingAction.ActionID)
	assert.ErrorIs(t, err, game.ErrBotActionExpired)
}

func TestStartGameDealsFourToEachTank(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	created, err := eng.CreateGame(context.Background(), []game.Seat{
		{Name: "alice"}, {Name: "bob"}, {Name: "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, game.GameStatusWaiting, created.Status)

	started, err := eng.StartGame(context.Background(), created.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, game.GameStatusPlaying, started.Status)
	assert.Equal(t, 0, started.CurrentPlayerIndex)
	for _, p := range started.Players {
		assert.Len(t, p.Tank, game.CardsDealtPerPlayer)
	}
	assert.Len(t, started.DrawPile, game.DeckSize-3*game.CardsDealtPerPlayer)
	assert.Equal(t, game.DeckSize, started.CardCount())

	_, err = eng.StartGame(context.Background(), created.RoomCode)
	assert.Error(t, err, "cannot start twice")
}

// TestRandomPlayoutInvariants drives a seeded random playout and checks
// conservation, turn validity, and score monotonicity after every action.
func TestRandomPlayoutInvariants(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	rng := rand.New(rand.NewSource(99))

	created, err := eng.CreateGame(context.Background(), []game.Seat{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
	})
	require.NoError(t, err)
	g, err := eng.StartGame(context.Background(), created.RoomCode)
	require.NoError(t, err)

	prevScores := make([]int, len(g.Players))
	for step := 0; step < 500; step++ {
		if g.Status == game.GameStatusFinished || len(g.DrawPile) == 0 {
			break
		}
		actor := g.CurrentPlayer()
		if rng.Intn(2) == 0 {
			g, _, err = eng.Score(context.Background(), g.RoomCode, actor.ID, actor.ID)
		} else {
			target := g.Players[(g.CurrentPlayerIndex+1+rng.Intn(len(g.Players)-1))%len(g.Players)]
			g, _, err = eng.Steal(context.Background(), g.RoomCode, actor.ID, actor.ID, target.ID)
		}
		require.NoError(t, err)

		assert.Equal(t, game.DeckSize, g.CardCount(), "conservation at step %d", step)
		require.GreaterOrEqual(t, g.CurrentPlayerIndex, 0)
		require.Less(t, g.CurrentPlayerIndex, len(g.Players))
		for i, p := range g.Players {
			require.GreaterOrEqual(t, p.ScoreCount, prevScores[i], "score monotonicity for seat %d", i)
			prevScores[i] = p.ScoreCount
		}
	}
}
