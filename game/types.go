package game

// GameStatus is the lifecycle state of a game document. It only moves
// forward: waiting -> playing -> finished.
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"
	GameStatusPlaying  GameStatus = "playing"
	GameStatusFinished GameStatus = "finished"
)

// ActionType identifies the two player actions.
type ActionType string

const (
	ActionScore ActionType = "score"
	ActionSteal ActionType = "steal"
)

// BotDifficulty selects a bot strategy tier.
type BotDifficulty string

const (
	BotEasy   BotDifficulty = "easy"
	BotMedium BotDifficulty = "medium"
	BotHard   BotDifficulty = "hard"
)

// AnimationSequence names the visual effect a hint describes.
type AnimationSequence string

const (
	SeqScoreSuccess AnimationSequence = "SCORE_SUCCESS"
	SeqScoreFail    AnimationSequence = "SCORE_FAIL"
	SeqStealSuccess AnimationSequence = "STEAL_SUCCESS"
	SeqStealFail    AnimationSequence = "STEAL_FAIL"
)

// Player is one seat in the game. Tank holds drawn, unscored cards in
// arrival order. ScoreCount is a count; scored cards leave the model.
type Player struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Tank          []Card        `json:"tank"`
	ScoreCount    int           `json:"scoreCount"`
	IsBot         bool          `json:"isBot"`
	BotDifficulty BotDifficulty `json:"botDifficulty,omitempty"`
}

// TankColors returns the distinct face colors currently in the tank.
func (p *Player) TankColors() map[Color]bool {
	colors := make(map[Color]bool, len(p.Tank))
	for _, c := range p.Tank {
		colors[c.Color] = true
	}
	return colors
}

// ActionRecord is the human-readable audit entry of the last action.
type ActionRecord struct {
	PlayerID       string     `json:"playerId"`
	PlayerName     string     `json:"playerName"`
	Action         ActionType `json:"action"`
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
	Success        bool       `json:"success"`
	Color          Color      `json:"color"`
	Timestamp      int64      `json:"timestamp"`
}

// AnimationHint describes what just happened so clients can present it.
// It is never authoritative for rules. Timestamp (unix millis) doubles
// as the dedup key for re-delivered snapshots.
type AnimationHint struct {
	Sequence        AnimationSequence `json:"sequence"`
	PlayerID        string            `json:"playerId"`
	TargetPlayerID  string            `json:"targetPlayerId,omitempty"`
	AffectedCardIDs []string          `json:"affectedCardIds"`
	Color           Color             `json:"color"`
	Timestamp       int64             `json:"timestamp"`
}

// BotPendingAction is a precomputed bot intent staged for timed
// execution by the presentation layer.
type BotPendingAction struct {
	Action         ActionType `json:"action"`
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
	ActionID       string     `json:"actionId"`
	BotPlayerID    string     `json:"botPlayerId"`
	ComputedAt     int64      `json:"computedAt"`
	ExpiresAt      int64      `json:"expiresAt"`
	Consumed       bool       `json:"consumed"`
}

// Game is the shared per-room document. The top of DrawPile is the last
// element. Players are in turn order.
type Game struct {
	RoomCode           string            `json:"roomCode"`
	Status             GameStatus        `json:"status"`
	Players            []*Player         `json:"players"`
	DrawPile           []Card            `json:"drawPile"`
	CurrentPlayerIndex int               `json:"currentPlayerIndex"`
	LastAction         *ActionRecord     `json:"lastAction,omitempty"`
	AnimationHint      *AnimationHint    `json:"animationHint,omitempty"`
	BotPendingAction   *BotPendingAction `json:"botPendingAction,omitempty"`
	CreatedAt          int64             `json:"createdAt"`
	UpdatedAt          int64             `json:"updatedAt"`
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

// PlayerByID returns the player and its seat index, or nil and -1.
func (g *Game) PlayerByID(id string) (*Player, int) {
	for i, p := range g.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// TopCard returns the next card to be drawn without removing it.
func (g *Game) TopCard() (Card, bool) {
	if len(g.DrawPile) == 0 {
		return Card{}, false
	}
	return g.DrawPile[len(g.DrawPile)-1], true
}

// CardCount counts every card accounted for by the document: draw pile,
// tanks, and scored cards.
func (g *Game) CardCount() int {
	total := len(g.DrawPile)
	for _, p := range g.Players {
		total += len(p.Tank) + p.ScoreCount
	}
	return total
}

// Clone deep-copies the document so callers can mutate a working copy
// without touching the original.
func (g *Game) Clone() *Game {
	c := *g
	c.DrawPile = append([]Card(nil), g.DrawPile...)
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		pc.Tank = append([]Card(nil), p.Tank...)
		c.Players[i] = &pc
	}
	if g.LastAction != nil {
		la := *g.LastAction
		c.LastAction = &la
	}
	if g.AnimationHint != nil {
		h := *g.AnimationHint
		h.AffectedCardIDs = append([]string(nil), g.AnimationHint.AffectedCardIDs...)
		c.AnimationHint = &h
	}
	if g.BotPendingAction != nil {
		bp := *g.BotPendingAction
		c.BotPendingAction = &bp
	}
	return &c
}

// Validate checks the structural invariants that must hold after every
// mutation of a playing or finished game.
func (g *Game) Validate() error {
	if len(g.Players) < MinPlayers || len(g.Players) > MaxPlayers {
		return InvalidStateError{Msg: "player count out of range"}
	}
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return InvalidStateError{Msg: "currentPlayerIndex out of range"}
	}
	if g.Status != GameStatusWaiting && g.CardCount() != DeckSize {
		return InvalidStateError{Msg: "card conservation violated"}
	}
	return nil
}
